// Package renderer implements the quad-tree's drawing capability on top of the
// async tile loader and a pluggable drawing backend.
//
// Everything here runs on the frame goroutine. Textures are created in
// BeginFrame, which drains finished loads, so a backend that must touch the
// GPU from one thread can do so safely.
package renderer

import (
	"context"
	"errors"
	"fmt"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/rotblauer/globe/quadtree"
	"github.com/rotblauer/globe/tileload"
	"image"
	"log/slog"
	"sync/atomic"
)

// Texture is a backend-owned image.
type Texture interface {
	Bounds() image.Rectangle
	Dispose()
}

// Backend uploads decoded images and draws meshes.
type Backend interface {
	Upload(img image.Image) (Texture, error)
	DrawMesh(m *Mesh, viewProjection mgl64.Mat4)
}

// Mesh is one textured tile quad.
type Mesh struct {
	url     string
	corners [4]mgl64.Vec3
	ticket  *tileload.Ticket
	owner   *Renderer

	loaded   atomic.Bool
	released bool
	texture  Texture
	err      error
}

func (m *Mesh) URL() string { return m.url }

// Corners are ordered lower-left, lower-right, upper-left, upper-right.
func (m *Mesh) Corners() [4]mgl64.Vec3 { return m.corners }

func (m *Mesh) TextureLoaded() bool { return m.loaded.Load() }

// Texture is nil until the mesh has loaded.
func (m *Mesh) Texture() Texture { return m.texture }

// Err is the load error, if the texture failed to arrive.
func (m *Mesh) Err() error { return m.err }

func (m *Mesh) Release() {
	if m.released {
		return
	}
	m.released = true
	m.ticket.Release()
	delete(m.owner.pending, m.ticket)
	if m.texture != nil {
		m.texture.Dispose()
		m.texture = nil
	}
	m.owner.live--
}

type Renderer struct {
	loader  *tileload.Loader
	backend Backend
	logger  *slog.Logger

	// pending maps in-flight tickets to their meshes.
	pending map[*tileload.Ticket]*Mesh
	live    int
}

func New(loader *tileload.Loader, backend Backend) (*Renderer, error) {
	if loader == nil {
		return nil, errors.New("renderer needs a tile loader")
	}
	if backend == nil {
		return nil, fmt.Errorf("%w: no backend", quadtree.ErrRendererUnavailable)
	}
	return &Renderer{
		loader:  loader,
		backend: backend,
		logger:  slog.With("component", "renderer"),
		pending: make(map[*tileload.Ticket]*Mesh),
	}, nil
}

// CreateTile requests the image and returns an unloaded mesh at once.
func (r *Renderer) CreateTile(imageURL string, corners [4]mgl64.Vec3) quadtree.Mesh {
	m := &Mesh{
		url:     imageURL,
		corners: corners,
		owner:   r,
	}
	m.ticket = r.loader.Request(imageURL)
	r.pending[m.ticket] = m
	r.live++
	return m
}

func (r *Renderer) Draw(mesh quadtree.Mesh, viewProjection mgl64.Mat4) {
	m, ok := mesh.(*Mesh)
	if !ok || m == nil || m.released {
		return
	}
	r.backend.DrawMesh(m, viewProjection)
}

// BeginFrame uploads every texture that finished loading since the last frame.
// It returns the number of meshes that became loaded.
func (r *Renderer) BeginFrame() int {
	loaded := 0
	r.loader.Drain(func(res tileload.Result) {
		if r.complete(res) {
			loaded++
		}
	})
	return loaded
}

// Settle blocks until no mesh is waiting for its texture, or ctx is done.
func (r *Renderer) Settle(ctx context.Context) (int, error) {
	loaded := 0
	for len(r.pending) > 0 {
		_, err := r.loader.DrainWait(ctx, func(res tileload.Result) {
			if r.complete(res) {
				loaded++
			}
		})
		if err != nil {
			return loaded, err
		}
	}
	return loaded, nil
}

func (r *Renderer) complete(res tileload.Result) bool {
	m, ok := r.pending[res.Ticket]
	if !ok {
		return false
	}
	delete(r.pending, res.Ticket)
	if res.Err != nil {
		m.err = res.Err
		r.logger.Debug("Tile unavailable", "url", m.url, "error", res.Err)
		return false
	}
	tex, err := r.backend.Upload(res.Image)
	if err != nil {
		m.err = err
		r.logger.Error("Texture upload failed", "url", m.url, "error", err)
		return false
	}
	m.texture = tex
	m.loaded.Store(true)
	return true
}

// Live is the number of meshes created and not yet released.
func (r *Renderer) Live() int { return r.live }

// Pending is the number of meshes still waiting for a texture.
func (r *Renderer) Pending() int { return len(r.pending) }

func (r *Renderer) Loader() *tileload.Loader { return r.loader }
