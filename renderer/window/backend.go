// Package window draws the globe in a desktop window with ebiten.
package window

import (
	"errors"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/rotblauer/globe/quadtree"
	"github.com/rotblauer/globe/renderer"
	"image"
	"image/color"
)

// quadIndices splits a tile into lower-left/lower-right/upper-left and
// upper-left/lower-right/upper-right.
var quadIndices = []uint16{0, 1, 2, 2, 1, 3}

var wireColor = color.RGBA{R: 0xff, G: 0xd0, B: 0x40, A: 0xff}

type texture struct {
	img *ebiten.Image
}

func (t *texture) Bounds() image.Rectangle { return t.img.Bounds() }

func (t *texture) Dispose() { t.img.Deallocate() }

// Backend rasterizes meshes onto Target with DrawTriangles.
type Backend struct {
	Target    *ebiten.Image
	Wireframe bool

	// Culled counts meshes skipped this frame for being behind the camera or back-facing.
	Culled int

	vertices [4]ebiten.Vertex
}

func (b *Backend) Upload(img image.Image) (renderer.Texture, error) {
	if img == nil {
		return nil, errors.New("upload: nil image")
	}
	return &texture{img: ebiten.NewImageFromImage(img)}, nil
}

// DrawMesh projects the corners to pixels and draws the two triangles.
// Unloaded meshes are drawn as wireframe only.
func (b *Backend) DrawMesh(m *renderer.Mesh, viewProjection mgl64.Mat4) {
	if b.Target == nil {
		return
	}
	w, h := b.Target.Bounds().Dx(), b.Target.Bounds().Dy()

	var px [4][2]float32
	for i, c := range m.Corners() {
		ndc, ok := quadtree.ProjectNDC(c, viewProjection)
		if !ok {
			b.Culled++
			return
		}
		px[i] = [2]float32{
			float32((ndc.X() + 1) / 2 * float64(w)),
			float32((1 - ndc.Y()) / 2 * float64(h)),
		}
	}
	// Front faces have a negative cross product once y points down.
	if cross(px[0], px[1], px[2]) >= 0 && cross(px[2], px[1], px[3]) >= 0 {
		b.Culled++
		return
	}

	if tex, ok := m.Texture().(*texture); ok {
		sw, sh := tex.img.Bounds().Dx(), tex.img.Bounds().Dy()
		src := [4][2]float32{
			{0, float32(sh)},
			{float32(sw), float32(sh)},
			{0, 0},
			{float32(sw), 0},
		}
		for i := range b.vertices {
			b.vertices[i] = ebiten.Vertex{
				DstX: px[i][0], DstY: px[i][1],
				SrcX: src[i][0], SrcY: src[i][1],
				ColorR: 1, ColorG: 1, ColorB: 1, ColorA: 1,
			}
		}
		op := &ebiten.DrawTrianglesOptions{}
		op.Filter = ebiten.FilterLinear
		b.Target.DrawTriangles(b.vertices[:], quadIndices, tex.img, op)
	}

	if b.Wireframe || !m.TextureLoaded() {
		ll, lr, ul, ur := px[0], px[1], px[2], px[3]
		for _, e := range [][2][2]float32{{ll, lr}, {lr, ur}, {ur, ul}, {ul, ll}} {
			vector.StrokeLine(b.Target, e[0][0], e[0][1], e[1][0], e[1][1], 1, wireColor, false)
		}
	}
}

// cross is the z of (b-a) x (c-a) in pixel space.
func cross(a, b, c [2]float32) float32 {
	return (b[0]-a[0])*(c[1]-a[1]) - (b[1]-a[1])*(c[0]-a[0])
}
