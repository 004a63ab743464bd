// Package metrics counts what the engine does: tile traffic and frame throughput.
package metrics

import (
	ethmetrics "github.com/ethereum/go-ethereum/metrics"
	"sync/atomic"
	"time"
)

// Engine groups the counters shared by the loader, the renderer and the frame loop.
// All methods are safe for concurrent use.
type Engine struct {
	reg ethmetrics.Registry

	TilesRequested ethmetrics.Counter
	TilesLoaded    ethmetrics.Counter
	TilesFailed    ethmetrics.Counter
	TilesCanceled  ethmetrics.Counter
	MemoryHits     ethmetrics.Counter
	StoreHits      ethmetrics.Counter
	NegativeHits   ethmetrics.Counter
	TilesPending   ethmetrics.Gauge

	BytesFetched ethmetrics.Meter
	Frames       ethmetrics.Meter

	Nodes   ethmetrics.Gauge
	Drawn   ethmetrics.Gauge
	MaxZoom ethmetrics.Gauge
	Panics  ethmetrics.Counter

	started time.Time
	stopped atomic.Bool
}

func NewEngine() *Engine {
	// The metrics package hands out no-op instruments unless enabled.
	ethmetrics.Enabled = true

	e := &Engine{
		reg:            ethmetrics.NewRegistry(),
		TilesRequested: ethmetrics.NewCounter(),
		TilesLoaded:    ethmetrics.NewCounter(),
		TilesFailed:    ethmetrics.NewCounter(),
		TilesCanceled:  ethmetrics.NewCounter(),
		MemoryHits:     ethmetrics.NewCounter(),
		StoreHits:      ethmetrics.NewCounter(),
		NegativeHits:   ethmetrics.NewCounter(),
		TilesPending:   ethmetrics.NewGauge(),
		BytesFetched:   ethmetrics.NewMeter(),
		Frames:         ethmetrics.NewMeter(),
		Nodes:          ethmetrics.NewGauge(),
		Drawn:          ethmetrics.NewGauge(),
		MaxZoom:        ethmetrics.NewGauge(),
		Panics:         ethmetrics.NewCounter(),
		started:        time.Now(),
	}
	for name, m := range map[string]interface{}{
		"tiles.requested.count": e.TilesRequested,
		"tiles.loaded.count":    e.TilesLoaded,
		"tiles.failed.count":    e.TilesFailed,
		"tiles.canceled.count":  e.TilesCanceled,
		"cache.memory.count":    e.MemoryHits,
		"cache.store.count":     e.StoreHits,
		"cache.negative.count":  e.NegativeHits,
		"tiles.pending.gauge":   e.TilesPending,
		"bytes.meter":           e.BytesFetched,
		"frames.meter":          e.Frames,
		"tree.nodes.gauge":      e.Nodes,
		"frame.drawn.gauge":     e.Drawn,
		"frame.zoom.gauge":      e.MaxZoom,
		"frame.panics.count":    e.Panics,
	} {
		if err := e.reg.Register(name, m); err != nil {
			panic(err)
		}
	}
	return e
}

func (e *Engine) Registry() ethmetrics.Registry { return e.reg }

// MarkFrame records one rendered frame.
func (e *Engine) MarkFrame(nodes, drawn, maxZoom, panics int) {
	e.Frames.Mark(1)
	e.Nodes.Update(int64(nodes))
	e.Drawn.Update(int64(drawn))
	e.MaxZoom.Update(int64(maxZoom))
	if panics > 0 {
		e.Panics.Inc(int64(panics))
	}
}

// Snapshot is a point-in-time copy of the engine metrics.
type Snapshot struct {
	TilesRequested int64 `json:"tiles_requested"`
	TilesLoaded    int64 `json:"tiles_loaded"`
	TilesFailed    int64 `json:"tiles_failed"`
	TilesCanceled  int64 `json:"tiles_canceled"`
	MemoryHits     int64 `json:"memory_hits"`
	StoreHits      int64 `json:"store_hits"`
	NegativeHits   int64 `json:"negative_hits"`
	TilesPending   int64 `json:"tiles_pending"`

	BytesFetched   int64   `json:"bytes_fetched"`
	BytesPerSecond float64 `json:"bytes_per_second"`

	Frames          int64   `json:"frames"`
	FramesPerSecond float64 `json:"frames_per_second"`

	Nodes   int64 `json:"nodes"`
	Drawn   int64 `json:"drawn"`
	MaxZoom int64 `json:"max_zoom"`
	Panics  int64 `json:"panics"`

	Running time.Duration `json:"running"`
}

func (e *Engine) Snapshot() Snapshot {
	bytes := e.BytesFetched.Snapshot()
	frames := e.Frames.Snapshot()
	return Snapshot{
		TilesRequested:  e.TilesRequested.Snapshot().Count(),
		TilesLoaded:     e.TilesLoaded.Snapshot().Count(),
		TilesFailed:     e.TilesFailed.Snapshot().Count(),
		TilesCanceled:   e.TilesCanceled.Snapshot().Count(),
		MemoryHits:      e.MemoryHits.Snapshot().Count(),
		StoreHits:       e.StoreHits.Snapshot().Count(),
		NegativeHits:    e.NegativeHits.Snapshot().Count(),
		TilesPending:    e.TilesPending.Snapshot().Value(),
		BytesFetched:    bytes.Count(),
		BytesPerSecond:  bytes.Rate1(),
		Frames:          frames.Count(),
		FramesPerSecond: frames.RateMean(),
		Nodes:           e.Nodes.Snapshot().Value(),
		Drawn:           e.Drawn.Snapshot().Value(),
		MaxZoom:         e.MaxZoom.Snapshot().Value(),
		Panics:          e.Panics.Snapshot().Count(),
		Running:         time.Since(e.started).Round(time.Second),
	}
}

// Stop releases the meters' background tickers.
func (e *Engine) Stop() {
	e.stopped.Store(true)
	e.BytesFetched.Stop()
	e.Frames.Stop()
}

func (e *Engine) Stopped() bool { return e.stopped.Load() }
