package renderer

import (
	"bytes"
	"context"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/rotblauer/globe/common"
	"github.com/rotblauer/globe/params"
	"github.com/rotblauer/globe/quadtree"
	"github.com/rotblauer/globe/tileload"
	"image"
	"image/png"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestRenderer(t *testing.T, handler http.HandlerFunc) (*Renderer, *Recorder, string) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	loader, err := tileload.New(params.DefaultTestLoaderConfig(), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = loader.Close() })
	rec := &Recorder{}
	r, err := New(loader, rec)
	if err != nil {
		t.Fatal(err)
	}
	return r, rec, srv.URL + "/{z}/{x}/{y}.png"
}

func tilePNG(t *testing.T) []byte {
	buf := bytes.Buffer{}
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 8, 8))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func settle(t *testing.T, r *Renderer) int {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	n, err := r.Settle(ctx)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	return n
}

func TestNew_Errors(t *testing.T) {
	if _, err := New(nil, &Recorder{}); err == nil {
		t.Fatal("expected error without a loader")
	}
	loader, err := tileload.New(params.DefaultTestLoaderConfig(), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer loader.Close()
	if _, err := New(loader, nil); err == nil {
		t.Fatal("expected error without a backend")
	}
}

func TestRenderer_TreeLifecycle(t *testing.T) {
	defer common.SlogResetLevel(slog.LevelWarn)()
	tile := tilePNG(t)
	r, rec, template := newTestRenderer(t, func(w http.ResponseWriter, req *http.Request) {
		_, _ = w.Write(tile)
	})

	config := params.DefaultEngineConfig()
	config.MinDepth, config.MaxDepth = 1, 1
	config.TileURLTemplate = template
	tree, err := quadtree.NewTree(r, config)
	if err != nil {
		t.Fatal(err)
	}
	if r.Live() != 5 || r.Pending() != 5 {
		t.Fatalf("live = %d, pending = %d, want 5 and 5", r.Live(), r.Pending())
	}

	// Nothing is loaded yet, so the root stands in for the whole globe.
	stats := tree.Render(mgl64.Ident4())
	if stats.Drawn != 1 || stats.DrawnLoaded != 0 {
		t.Fatalf("before load: drawn = %d (%d loaded)", stats.Drawn, stats.DrawnLoaded)
	}

	if n := settle(t, r); n != 5 {
		t.Fatalf("loaded %d meshes, want 5", n)
	}
	rec.Reset()
	stats = tree.Render(mgl64.Ident4())
	if stats.Drawn != 4 || stats.DrawnLoaded != 4 {
		t.Fatalf("after load: drawn = %d (%d loaded), want 4", stats.Drawn, stats.DrawnLoaded)
	}
	if len(rec.Calls) != 4 {
		t.Fatalf("recorded %d calls, want 4", len(rec.Calls))
	}
	for _, c := range rec.Calls {
		if !c.Loaded || !strings.HasSuffix(c.URL, ".png") {
			t.Errorf("bad call %+v", c)
		}
	}
	if rec.Textures() != 5 {
		t.Errorf("textures = %d, want 5", rec.Textures())
	}

	tree.Close()
	if r.Live() != 0 || rec.Textures() != 0 {
		t.Fatalf("after close: live = %d, textures = %d", r.Live(), rec.Textures())
	}
}

func TestRenderer_FailedTile(t *testing.T) {
	defer common.SlogResetLevel(slog.LevelError + 1)()
	tile := tilePNG(t)
	r, _, template := newTestRenderer(t, func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path == "/1/1/1.png" {
			http.Error(w, "nope", http.StatusInternalServerError)
			return
		}
		_, _ = w.Write(tile)
	})
	config := params.DefaultEngineConfig()
	config.MinDepth, config.MaxDepth = 1, 1
	config.TileURLTemplate = template
	tree, err := quadtree.NewTree(r, config)
	if err != nil {
		t.Fatal(err)
	}
	defer tree.Close()

	if n := settle(t, r); n != 4 {
		t.Fatalf("loaded %d meshes, want 4", n)
	}
	failed := tree.Root().Children()[3].Mesh().(*Mesh)
	if failed.TextureLoaded() || failed.Err() == nil {
		t.Fatalf("failed mesh: loaded = %v, err = %v", failed.TextureLoaded(), failed.Err())
	}
	stats := tree.Render(mgl64.Ident4())
	if stats.Drawn != 1 || stats.MaxDrawnZoom != 0 {
		t.Fatalf("drawn = %d at zoom %d, want the root alone", stats.Drawn, stats.MaxDrawnZoom)
	}
}

func TestRenderer_ReleaseBeforeLoad(t *testing.T) {
	defer common.SlogResetLevel(slog.LevelWarn)()
	block := make(chan struct{})
	r, rec, template := newTestRenderer(t, func(w http.ResponseWriter, req *http.Request) {
		select {
		case <-block:
		case <-req.Context().Done():
		}
	})
	defer close(block)

	m := r.CreateTile(strings.NewReplacer("{z}", "0", "{x}", "0", "{y}", "0").Replace(template), [4]mgl64.Vec3{})
	m.Release()
	m.Release()
	if r.Live() != 0 || r.Pending() != 0 {
		t.Fatalf("live = %d, pending = %d after release", r.Live(), r.Pending())
	}
	r.BeginFrame()
	if rec.Uploads() != 0 {
		t.Fatal("released mesh was uploaded")
	}
	r.Draw(m, mgl64.Ident4())
	if len(rec.Calls) != 0 {
		t.Fatal("released mesh was drawn")
	}
}
