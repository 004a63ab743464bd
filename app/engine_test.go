package app

import (
	"bytes"
	"context"
	"errors"
	"github.com/rotblauer/globe/common"
	"github.com/rotblauer/globe/metrics"
	"github.com/rotblauer/globe/params"
	"github.com/rotblauer/globe/renderer"
	"github.com/rotblauer/globe/tiledb"
	"image"
	"image/png"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"
)

func newTestEngine(t *testing.T) (*Engine, *renderer.Recorder) {
	t.Helper()
	buf := bytes.Buffer{}
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatal(err)
	}
	tile := buf.Bytes()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(tile)
	}))
	t.Cleanup(srv.Close)

	config := DefaultConfig()
	config.Engine.MinDepth, config.Engine.MaxDepth = 2, 6
	config.Engine.TileURLTemplate = srv.URL + "/{z}/{x}/{y}.png"
	config.Loader = params.DefaultTestLoaderConfig()
	config.Loader.StorePath = filepath.Join(t.TempDir(), "tiles.db")
	config.Camera.Altitude = 50_000
	config.Camera.Lat, config.Camera.Lon = 45, 7
	config.ReportEvery = 2

	rec := &renderer.Recorder{}
	e, err := New(config, rec)
	if err != nil {
		t.Fatal(err)
	}
	return e, rec
}

func TestEngine_Frames(t *testing.T) {
	defer common.SlogResetLevel(slog.LevelWarn)()
	e, rec := newTestEngine(t)

	reports := make(chan FrameReport, 16)
	sub := e.SubscribeFrames(reports)
	defer sub.Unsubscribe()

	if e.LastFrame() != nil {
		t.Fatal("last frame before any render")
	}
	for i := 0; i < 10; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if _, err := e.Renderer().Settle(ctx); err != nil {
			cancel()
			t.Fatal(err)
		}
		cancel()
		rec.Reset()
		e.Frame(1)
	}

	last := e.LastFrame()
	if last == nil || last.Stats.Frame != 10 {
		t.Fatalf("last frame = %+v", last)
	}
	if last.Stats.MaxDrawnZoom != 6 {
		t.Errorf("max drawn zoom = %d, want 6", last.Stats.MaxDrawnZoom)
	}
	if len(last.Drawn) != last.Stats.Drawn || len(rec.Calls) != last.Stats.Drawn {
		t.Errorf("drawn = %d keys, %d calls, stats say %d", len(last.Drawn), len(rec.Calls), last.Stats.Drawn)
	}
	if len(reports) != 5 {
		t.Errorf("received %d reports, want 5", len(reports))
	}
	if e.FrameTimes().Len() != 10 {
		t.Errorf("frame times = %d, want 10", e.FrameTimes().Len())
	}
	s := e.Metrics().Snapshot()
	if s.Frames != 10 || s.TilesLoaded == 0 {
		t.Errorf("metrics = %+v", s)
	}
	if err := e.Close(); err != nil {
		t.Fatal(err)
	}
	if e.Renderer().Live() != 0 {
		t.Errorf("live meshes after close = %d", e.Renderer().Live())
	}
}

func TestNew_ErrorReleasesResources(t *testing.T) {
	var m *metrics.Engine
	newMetrics = func() *metrics.Engine {
		m = metrics.NewEngine()
		return m
	}
	defer func() { newMetrics = metrics.NewEngine }()

	config := DefaultConfig()
	config.Engine.MinDepth = 0
	config.Loader = params.DefaultTestLoaderConfig()
	config.Loader.StorePath = filepath.Join(t.TempDir(), "tiles.db")
	if _, err := New(config, &renderer.Recorder{}); err == nil {
		t.Fatal("min depth 0: expected error")
	}
	if !m.Stopped() {
		t.Error("metrics not stopped")
	}
	// The store lock is released.
	store, err := tiledb.Open(config.Loader.StorePath, false)
	if err != nil {
		t.Fatal(err)
	}
	_ = store.Close()
}

func TestFlight_Altitude(t *testing.T) {
	f := &Flight{Frames: 3, FromAltitude: 1e6, ToAltitude: 1e4, Aspect: 1}
	for i, want := range []float64{1e6, 1e5, 1e4} {
		if got := f.Altitude(i); math.Abs(got-want) > 1e-6*want {
			t.Errorf("altitude(%d) = %v, want %v", i, got, want)
		}
	}
	if err := (&Flight{Frames: 0, FromAltitude: 1, ToAltitude: 1, Aspect: 1}).Validate(); err == nil {
		t.Error("zero frames validated")
	}
}

func TestEngine_Fly(t *testing.T) {
	defer common.SlogResetLevel(slog.LevelWarn)()
	e, _ := newTestEngine(t)
	defer e.Close()

	f := &Flight{
		Frames:       12,
		FromAltitude: 1e7,
		ToAltitude:   2e4,
		Lat:          45,
		Lon:          7,
		Aspect:       1.6,
		Settle:       5 * time.Second,
	}
	samples, err := e.Fly(context.Background(), f)
	if err != nil {
		t.Fatal(err)
	}
	if len(samples) != 12 {
		t.Fatalf("samples = %d", len(samples))
	}
	first, last := samples[0], samples[len(samples)-1]
	if first.Frame != 1 || last.Frame != 12 {
		t.Errorf("frames %d..%d", first.Frame, last.Frame)
	}
	if last.MaxZoom <= first.MaxZoom {
		t.Errorf("zoom did not grow on approach: %d -> %d", first.MaxZoom, last.MaxZoom)
	}
	if math.Abs(last.Altitude-2e4) > 1 || math.Abs(last.Lat-45) > 1e-6 {
		t.Errorf("last sample %+v", last)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	samples, err = e.Fly(ctx, f)
	if !errors.Is(err, context.Canceled) || len(samples) != 0 {
		t.Errorf("canceled flight: %d samples, %v", len(samples), err)
	}
}
