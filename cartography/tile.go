package cartography

import (
	"errors"
	"fmt"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
	"strconv"
	"strings"
)

// MaxZoom is the deepest zoom level a TileKey may address.
// 2^30 tiles per axis still fits comfortably in an int.
const MaxZoom = 30

// DefaultTileURLTemplate is the OpenStreetMap raster tile endpoint.
const DefaultTileURLTemplate = "https://tile.openstreetmap.org/{z}/{x}/{y}.png"

var ErrInvalidTile = errors.New("invalid tile index")

// Quadrant identifies one of the four children of a tile.
// The order is the slot order of a node's children array.
type Quadrant int

const (
	QuadrantTopLeft Quadrant = iota
	QuadrantTopRight
	QuadrantBottomLeft
	QuadrantBottomRight
)

var Quadrants = [4]Quadrant{QuadrantTopLeft, QuadrantTopRight, QuadrantBottomLeft, QuadrantBottomRight}

// Offset returns the (qx, qy) offset of the quadrant within the parent tile.
func (q Quadrant) Offset() (qx, qy int) {
	return int(q) & 1, int(q) >> 1
}

func (q Quadrant) String() string {
	switch q {
	case QuadrantTopLeft:
		return "top-left"
	case QuadrantTopRight:
		return "top-right"
	case QuadrantBottomLeft:
		return "bottom-left"
	case QuadrantBottomRight:
		return "bottom-right"
	}
	return "quadrant(" + strconv.Itoa(int(q)) + ")"
}

// TileKey addresses one web-map tile.
// Zoom 0 is the single root tile covering the whole globe.
type TileKey struct {
	Zoom int
	X    int
	Y    int
}

// Root is the zoom 0 tile.
var Root = TileKey{}

func (k TileKey) String() string {
	return fmt.Sprintf("%d/%d/%d", k.Zoom, k.X, k.Y)
}

// Validate returns ErrInvalidTile (wrapped) if the key is outside the
// standard tile index range for its zoom.
func (k TileKey) Validate() error {
	if k.Zoom < 0 || k.Zoom > MaxZoom {
		return fmt.Errorf("%w: zoom %d out of range [0,%d]", ErrInvalidTile, k.Zoom, MaxZoom)
	}
	n := 1 << k.Zoom
	if k.X < 0 || k.X >= n || k.Y < 0 || k.Y >= n {
		return fmt.Errorf("%w: %s outside [0,%d) at zoom %d", ErrInvalidTile, k, n, k.Zoom)
	}
	return nil
}

// Child returns the key of the given quadrant one zoom level deeper.
func (k TileKey) Child(q Quadrant) TileKey {
	qx, qy := q.Offset()
	return TileKey{Zoom: k.Zoom + 1, X: 2*k.X + qx, Y: 2*k.Y + qy}
}

// Children returns the four child keys in quadrant order.
func (k TileKey) Children() [4]TileKey {
	var out [4]TileKey
	for i, q := range Quadrants {
		out[i] = k.Child(q)
	}
	return out
}

// Tile converts the key to an orb maptile.
func (k TileKey) Tile() maptile.Tile {
	return maptile.New(uint32(k.X), uint32(k.Y), maptile.Zoom(k.Zoom))
}

// Bound is the lon/lat bounding box of the tile.
func (k TileKey) Bound() orb.Bound {
	return k.Tile().Bound()
}

// KeyFromTile is the inverse of TileKey.Tile.
func KeyFromTile(t maptile.Tile) TileKey {
	return TileKey{Zoom: int(t.Z), X: int(t.X), Y: int(t.Y)}
}

// ParseTileKey parses the z/x/y form produced by TileKey.String.
func ParseTileKey(s string) (TileKey, error) {
	parts := strings.Split(strings.Trim(s, "/"), "/")
	if len(parts) != 3 {
		return TileKey{}, fmt.Errorf("%w: %q is not z/x/y", ErrInvalidTile, s)
	}
	var vals [3]int
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return TileKey{}, fmt.Errorf("%w: %q: %v", ErrInvalidTile, s, err)
		}
		vals[i] = v
	}
	k := TileKey{Zoom: vals[0], X: vals[1], Y: vals[2]}
	return k, k.Validate()
}

// TileURL substitutes the key into a {z}/{x}/{y} URL template.
func TileURL(template string, k TileKey) string {
	return strings.NewReplacer(
		"{z}", strconv.Itoa(k.Zoom),
		"{x}", strconv.Itoa(k.X),
		"{y}", strconv.Itoa(k.Y),
	).Replace(template)
}
