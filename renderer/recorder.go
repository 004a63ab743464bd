package renderer

import (
	"errors"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/rotblauer/globe/quadtree"
	"image"
)

// DrawCall is one mesh drawn by a Recorder.
type DrawCall struct {
	URL    string
	Loaded bool

	// NDC holds the projected corners; Visible counts those in front of the camera.
	NDC     [4]mgl64.Vec3
	Visible int
}

// Recorder is a backend that keeps decoded images in memory and records
// draw calls instead of rasterizing them.
type Recorder struct {
	Calls []DrawCall

	uploads  int
	textures int
}

type imageTexture struct {
	img      image.Image
	owner    *Recorder
	disposed bool
}

func (t *imageTexture) Bounds() image.Rectangle { return t.img.Bounds() }

func (t *imageTexture) Dispose() {
	if t.disposed {
		return
	}
	t.disposed = true
	t.owner.textures--
}

func (r *Recorder) Upload(img image.Image) (Texture, error) {
	if img == nil {
		return nil, errors.New("upload: nil image")
	}
	r.uploads++
	r.textures++
	return &imageTexture{img: img, owner: r}, nil
}

func (r *Recorder) DrawMesh(m *Mesh, viewProjection mgl64.Mat4) {
	call := DrawCall{URL: m.URL(), Loaded: m.TextureLoaded()}
	for i, c := range m.Corners() {
		if ndc, ok := quadtree.ProjectNDC(c, viewProjection); ok {
			call.NDC[i] = ndc
			call.Visible++
		}
	}
	r.Calls = append(r.Calls, call)
}

// Reset forgets the recorded draw calls.
func (r *Recorder) Reset() { r.Calls = r.Calls[:0] }

// Uploads is the number of textures ever created.
func (r *Recorder) Uploads() int { return r.uploads }

// Textures is the number of textures not yet disposed.
func (r *Recorder) Textures() int { return r.textures }
