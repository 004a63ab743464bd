package quadtree

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/rotblauer/globe/params"
)

type fakeMesh struct {
	url      string
	corners  [4]mgl64.Vec3
	loaded   bool
	released int
	draws    int
	panics   bool
}

func (m *fakeMesh) TextureLoaded() bool { return m.loaded }
func (m *fakeMesh) Release()            { m.released++ }

// fakeRenderer records every mesh it hands out.
// With autoLoad set, new meshes are loaded immediately unless their URL is in never.
type fakeRenderer struct {
	autoLoad bool
	never    map[string]bool
	panicky  map[string]bool

	meshes  map[string]*fakeMesh
	created []string
	all     []*fakeMesh
}

func newFakeRenderer(autoLoad bool) *fakeRenderer {
	return &fakeRenderer{
		autoLoad: autoLoad,
		never:    map[string]bool{},
		panicky:  map[string]bool{},
		meshes:   map[string]*fakeMesh{},
	}
}

func (r *fakeRenderer) CreateTile(imageURL string, corners [4]mgl64.Vec3) Mesh {
	m := &fakeMesh{
		url:     imageURL,
		corners: corners,
		loaded:  r.autoLoad && !r.never[imageURL],
		panics:  r.panicky[imageURL],
	}
	r.meshes[imageURL] = m
	r.created = append(r.created, imageURL)
	r.all = append(r.all, m)
	return m
}

func (r *fakeRenderer) Draw(mesh Mesh, viewProjection mgl64.Mat4) {
	m := mesh.(*fakeMesh)
	m.draws++
	if m.panics {
		panic("draw failed: " + m.url)
	}
}

// testConfig uses a template whose URLs are the tile keys themselves.
func testConfig(minDepth, maxDepth int) *params.EngineConfig {
	c := params.DefaultEngineConfig()
	c.MinDepth = minDepth
	c.MaxDepth = maxDepth
	c.TileURLTemplate = "{z}/{x}/{y}"
	return c
}
