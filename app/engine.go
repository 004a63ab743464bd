// Package app wires the globe together: tile store, loader, renderer, quad-tree and camera.
package app

import (
	"errors"
	"github.com/ethereum/go-ethereum/event"
	"github.com/rotblauer/globe/camera"
	"github.com/rotblauer/globe/common"
	"github.com/rotblauer/globe/metrics"
	"github.com/rotblauer/globe/params"
	"github.com/rotblauer/globe/quadtree"
	"github.com/rotblauer/globe/renderer"
	"github.com/rotblauer/globe/tiledb"
	"github.com/rotblauer/globe/tileload"
	"log/slog"
	"sync/atomic"
	"time"
)

type Config struct {
	Engine *params.EngineConfig
	Loader *params.LoaderConfig
	Camera *params.CameraConfig

	// ReportEvery publishes a FrameReport to subscribers every n frames.
	// Zero publishes none.
	ReportEvery int
}

func DefaultConfig() *Config {
	return &Config{
		Engine:      params.DefaultEngineConfig(),
		Loader:      params.DefaultLoaderConfig(),
		Camera:      params.DefaultCameraConfig(),
		ReportEvery: 30,
	}
}

// FrameReport summarizes one frame for observers on other goroutines.
type FrameReport struct {
	Time     time.Time           `json:"time"`
	Duration time.Duration       `json:"duration"`
	Stats    quadtree.FrameStats `json:"stats"`
	Lat      float64             `json:"lat"`
	Lon      float64             `json:"lon"`
	Altitude float64             `json:"altitude"`
	Drawn    []string            `json:"drawn"`
}

// Engine drives one frame at a time. Update and Render must be called from
// the same goroutine; LastFrame, SubscribeFrames and Metrics are safe from any.
type Engine struct {
	Camera *camera.Orbit

	config   *Config
	store    *tiledb.Store
	loader   *tileload.Loader
	renderer *renderer.Renderer
	tree     *quadtree.Tree
	metrics  *metrics.Engine
	frames   *common.FrameTimes
	logger   *slog.Logger

	feed event.FeedOf[FrameReport]
	last atomic.Pointer[FrameReport]
}

var newMetrics = metrics.NewEngine

// New opens the tile store (if configured), starts the loader and builds the tree.
func New(config *Config, backend renderer.Backend) (*Engine, error) {
	if config == nil {
		config = DefaultConfig()
	}
	e := &Engine{
		config:  config,
		metrics: newMetrics(),
		frames:  common.NewFrameTimes(600),
		logger:  slog.With("component", "engine"),
		Camera:  camera.NewOrbit(config.Camera),
	}
	var err error
	if config.Loader.StorePath != "" {
		e.store, err = tiledb.Open(config.Loader.StorePath, config.Loader.Offline)
		if err != nil {
			e.abort()
			return nil, err
		}
	}
	e.loader, err = tileload.New(config.Loader, e.store, e.metrics)
	if err != nil {
		e.abort()
		return nil, err
	}
	e.renderer, err = renderer.New(e.loader, backend)
	if err != nil {
		e.abort()
		return nil, err
	}
	e.tree, err = quadtree.NewTree(e.renderer, config.Engine)
	if err != nil {
		e.abort()
		return nil, err
	}
	return e, nil
}

func (e *Engine) Tree() *quadtree.Tree { return e.tree }

func (e *Engine) Renderer() *renderer.Renderer { return e.renderer }

func (e *Engine) Loader() *tileload.Loader { return e.loader }

func (e *Engine) Metrics() *metrics.Engine { return e.metrics }

func (e *Engine) FrameTimes() *common.FrameTimes { return e.frames }

// Store is nil when the loader runs without a disk cache.
func (e *Engine) Store() *tiledb.Store { return e.store }

func (e *Engine) Fingerprint() string { return e.config.Engine.Fingerprint() }

// Update uploads finished textures and grows or shrinks the tree.
func (e *Engine) Update() {
	e.renderer.BeginFrame()
	e.tree.Update()
}

// Render draws the tree from the camera and records the frame.
func (e *Engine) Render(aspect float64) quadtree.FrameStats {
	start := time.Now()
	stats := e.tree.Render(e.Camera.ViewProjection(aspect))
	took := time.Since(start)

	e.frames.Add(took)
	e.metrics.MarkFrame(stats.Nodes, stats.Drawn, stats.MaxDrawnZoom, stats.Panics)

	lat, lon := e.Camera.Target()
	report := &FrameReport{
		Time:     start,
		Duration: took,
		Stats:    stats,
		Lat:      lat,
		Lon:      lon,
		Altitude: e.Camera.Altitude,
	}
	drawn := e.tree.Drawn()
	report.Drawn = make([]string, len(drawn))
	for i, k := range drawn {
		report.Drawn[i] = k.String()
	}
	e.last.Store(report)
	if n := e.config.ReportEvery; n > 0 && stats.Frame%uint64(n) == 0 {
		e.feed.Send(*report)
	}
	return stats
}

// Frame is Update followed by Render.
func (e *Engine) Frame(aspect float64) quadtree.FrameStats {
	e.Update()
	return e.Render(aspect)
}

// LastFrame is nil until the first Render.
func (e *Engine) LastFrame() *FrameReport { return e.last.Load() }

// SubscribeFrames delivers every ReportEvery-th frame to ch.
// Sends block the frame loop, so ch should be buffered and drained promptly.
func (e *Engine) SubscribeFrames(ch chan<- FrameReport) event.Subscription {
	return e.feed.Subscribe(ch)
}

func (e *Engine) Close() error {
	e.tree.Close()
	err := e.loader.Close()
	e.metrics.Stop()
	if e.store != nil {
		err = errors.Join(err, e.store.Close())
	}
	return err
}

// abort undoes a partial New.
func (e *Engine) abort() {
	if e.loader != nil {
		_ = e.loader.Close()
	}
	e.metrics.Stop()
	if e.store != nil {
		_ = e.store.Close()
	}
}
