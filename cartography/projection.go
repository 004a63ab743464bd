/*
Package cartography maps web-map tile indices to geodetic coordinates and
geodetic coordinates to the engine's Cartesian space.

Lat/lon pairs are carried as orb.Point values, which are [lon, lat].
*/
package cartography

import (
	"fmt"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/paulmach/orb"
	"math"
)

// WGS-84 ellipsoid.
const (
	SemiMajorAxis  = 6378137.0
	Flattening     = 1 / 298.257223563
	EccentricitySq = Flattening * (2 - Flattening)
)

// MercatorMaxLat is the latitude of the top edge of the zoom 0 tile.
var MercatorMaxLat = math.Atan(math.Sinh(math.Pi)) * 180 / math.Pi

// Corners holds the four geodetic corners of a tile.
type Corners struct {
	UpperLeft  orb.Point
	UpperRight orb.Point
	LowerLeft  orb.Point
	LowerRight orb.Point
}

// TileToLatLon returns the geodetic position of the tile-grid vertex (x, y)
// at the given zoom. Grid vertices run from 0 to 2^zoom inclusive on both
// axes, so the far edges of the last tile are addressable.
func TileToLatLon(zoom, x, y int) (orb.Point, error) {
	if zoom < 0 || zoom > MaxZoom {
		return orb.Point{}, fmt.Errorf("%w: zoom %d out of range [0,%d]", ErrInvalidTile, zoom, MaxZoom)
	}
	n := 1 << zoom
	if x < 0 || x > n || y < 0 || y > n {
		return orb.Point{}, fmt.Errorf("%w: grid vertex (%d,%d) outside [0,%d] at zoom %d", ErrInvalidTile, x, y, n, zoom)
	}
	return tileToLatLon(float64(n), float64(x), float64(y)), nil
}

func tileToLatLon(n, x, y float64) orb.Point {
	lon := x/n*360 - 180
	lat := math.Atan(math.Sinh(math.Pi*(1-2*y/n))) * 180 / math.Pi
	return orb.Point{lon, lat}
}

// TileDimensions returns the latitude span of the top row of tiles and the
// longitude span of any tile at the given zoom, in degrees.
func TileDimensions(zoom int) (height, width float64) {
	n := math.Pow(2, float64(zoom))
	lat1 := math.Atan(math.Sinh(math.Pi))
	lat2 := math.Atan(math.Sinh(math.Pi * (1 - 2/n)))
	return (lat1 - lat2) * 180 / math.Pi, 360 / n
}

// TileCorners returns the geodetic corners of the tile.
func TileCorners(k TileKey) (Corners, error) {
	if err := k.Validate(); err != nil {
		return Corners{}, err
	}
	n := float64(int(1) << k.Zoom)
	x, y := float64(k.X), float64(k.Y)
	return Corners{
		UpperLeft:  tileToLatLon(n, x, y),
		UpperRight: tileToLatLon(n, x+1, y),
		LowerLeft:  tileToLatLon(n, x, y+1),
		LowerRight: tileToLatLon(n, x+1, y+1),
	}, nil
}

// GeodeticToECEF converts degrees latitude/longitude and meters of
// ellipsoidal altitude to an engine-space point.
// Engine space is ECEF with the axes remapped to (X, Z, -Y), which puts the
// Earth's rotational axis on the engine's up (Y) axis.
func GeodeticToECEF(lat, lon, alt float64) mgl64.Vec3 {
	x, y, z := geodeticToECEF(lat, lon, alt)
	return mgl64.Vec3{x, z, -y}
}

func geodeticToECEF(lat, lon, alt float64) (x, y, z float64) {
	latRad := mgl64.DegToRad(lat)
	lonRad := mgl64.DegToRad(lon)
	sinLat := math.Sin(latRad)

	// prime vertical radius of curvature
	n := SemiMajorAxis / math.Sqrt(1-EccentricitySq*sinLat*sinLat)

	x = (n + alt) * math.Cos(latRad) * math.Cos(lonRad)
	y = (n + alt) * math.Cos(latRad) * math.Sin(lonRad)
	z = ((1-EccentricitySq)*n + alt) * sinLat
	return x, y, z
}

// TileCornerPoints returns the engine-space corners of the tile at zero
// altitude, ordered lower-left, lower-right, upper-left, upper-right.
func TileCornerPoints(k TileKey) ([4]mgl64.Vec3, error) {
	c, err := TileCorners(k)
	if err != nil {
		return [4]mgl64.Vec3{}, err
	}
	return [4]mgl64.Vec3{
		GeodeticToECEF(c.LowerLeft.Lat(), c.LowerLeft.Lon(), 0),
		GeodeticToECEF(c.LowerRight.Lat(), c.LowerRight.Lon(), 0),
		GeodeticToECEF(c.UpperLeft.Lat(), c.UpperLeft.Lon(), 0),
		GeodeticToECEF(c.UpperRight.Lat(), c.UpperRight.Lon(), 0),
	}, nil
}
