package cartography

import (
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
	"math"
)

// EarthRadiusKm is the mean radius used for cap distances.
const EarthRadiusKm = 6371.0088

// CapBound is the lat/lon box around the circle of radiusKm centred on lat, lon.
// A box crossing the antimeridian has Min.X > Max.X.
func CapBound(lat, lon, radiusKm float64) orb.Bound {
	center := s2.PointFromLatLng(s2.LatLngFromDegrees(lat, lon))
	c := s2.CapFromCenterAngle(center, s1.Angle(radiusKm/EarthRadiusKm))
	rect := c.RectBound()
	b := orb.Bound{
		Min: orb.Point{s1.Angle(rect.Lng.Lo).Degrees(), s1.Angle(rect.Lat.Lo).Degrees()},
		Max: orb.Point{s1.Angle(rect.Lng.Hi).Degrees(), s1.Angle(rect.Lat.Hi).Degrees()},
	}
	if rect.Lng.IsFull() {
		b.Min[0], b.Max[0] = -180, 180
	}
	return b
}

// splitAntimeridian returns one or two boxes clamped to the Mercator range.
func splitAntimeridian(b orb.Bound) []orb.Bound {
	boxes := []orb.Bound{b}
	if b.Min.X() > b.Max.X() {
		boxes = []orb.Bound{
			{Min: orb.Point{-180, b.Min.Y()}, Max: b.Max},
			{Min: b.Min, Max: orb.Point{180, b.Max.Y()}},
		}
	}
	for i, box := range boxes {
		boxes[i] = orb.Bound{
			Min: orb.Point{
				math.Max(-180, box.Min.X()),
				math.Max(-MercatorMaxLat+1e-9, box.Min.Y()),
			},
			Max: orb.Point{
				math.Min(180-1e-9, box.Max.X()),
				math.Min(MercatorMaxLat-1e-9, box.Max.Y()),
			},
		}
	}
	return boxes
}

// tileRange is the inclusive x and y range of tiles at z touching box.
func tileRange(box orb.Bound, z maptile.Zoom) (lo, hi maptile.Tile) {
	lo = maptile.At(orb.Point{box.Min.X(), box.Max.Y()}, z)
	hi = maptile.At(orb.Point{box.Max.X(), box.Min.Y()}, z)
	last := uint32(1)<<uint32(z) - 1
	if hi.X > last {
		hi.X = last
	}
	if hi.Y > last {
		hi.Y = last
	}
	return lo, hi
}

// Cover calls fn for every tile at zoom intersecting b, stopping early if fn
// returns false. It reports whether it ran to completion.
func Cover(b orb.Bound, zoom int, fn func(TileKey) bool) bool {
	z := maptile.Zoom(zoom)
	for _, box := range splitAntimeridian(b) {
		lo, hi := tileRange(box, z)
		for x := lo.X; x <= hi.X; x++ {
			for y := lo.Y; y <= hi.Y; y++ {
				if !fn(KeyFromTile(maptile.New(x, y, z))) {
					return false
				}
			}
		}
	}
	return true
}

// CoverCount is the number of tiles Cover visits across zooms [minZoom, maxZoom].
func CoverCount(b orb.Bound, minZoom, maxZoom int) int {
	n := 0
	for zoom := minZoom; zoom <= maxZoom; zoom++ {
		for _, box := range splitAntimeridian(b) {
			lo, hi := tileRange(box, maptile.Zoom(zoom))
			n += int(hi.X-lo.X+1) * int(hi.Y-lo.Y+1)
		}
	}
	return n
}
