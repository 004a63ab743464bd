package quadtree

import (
	"errors"
	"github.com/go-gl/mathgl/mgl64"
)

var ErrRendererUnavailable = errors.New("tile renderer unavailable")

// Mesh is a renderer-owned textured quad.
// TextureLoaded flips to true at most once, when the tile image is ready to draw.
// Release frees the mesh and abandons any fetch still in flight; it is called
// exactly once, when the owning node is destroyed.
type Mesh interface {
	TextureLoaded() bool
	Release()
}

// TileRenderer is the drawing capability the tree consumes.
// CreateTile must return immediately; the texture arrives later.
// Corners are ordered lower-left, lower-right, upper-left, upper-right.
type TileRenderer interface {
	CreateTile(imageURL string, corners [4]mgl64.Vec3) Mesh
	Draw(mesh Mesh, viewProjection mgl64.Mat4)
}
