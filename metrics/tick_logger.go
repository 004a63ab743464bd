package metrics

import (
	"github.com/dustin/go-humanize"
	"github.com/rotblauer/globe/common"
	"log/slog"
	"sync"
	"time"
)

// TickLogger logs an engine summary on an interval until stopped.
type TickLogger struct {
	engine   *Engine
	interval time.Duration
	ticker   *time.Ticker
	done     chan struct{}
	once     sync.Once
	logger   *slog.Logger
}

func NewTickLogger(engine *Engine, interval time.Duration) *TickLogger {
	tl := &TickLogger{
		engine:   engine,
		interval: interval,
		ticker:   time.NewTicker(interval),
		done:     make(chan struct{}),
		logger:   slog.With("component", "metrics"),
	}
	go tl.run()
	return tl
}

func (tl *TickLogger) run() {
	for {
		select {
		case <-tl.done:
			return
		case <-tl.ticker.C:
			tl.Log()
		}
	}
}

func (tl *TickLogger) Log() {
	s := tl.engine.Snapshot()
	tl.logger.Info("Engine",
		"frames", humanize.Comma(s.Frames),
		"fps", common.DecimalToFixed(s.FramesPerSecond, 1),
		"nodes", humanize.Comma(s.Nodes),
		"drawn", s.Drawn,
		"zoom", s.MaxZoom,
		"tiles.loaded", humanize.Comma(s.TilesLoaded),
		"tiles.failed", humanize.Comma(s.TilesFailed),
		"tiles.pending", humanize.Comma(s.TilesPending),
		"tiles.canceled", humanize.Comma(s.TilesCanceled),
		"hits.memory", humanize.Comma(s.MemoryHits),
		"hits.store", humanize.Comma(s.StoreHits),
		"bps", humanize.Bytes(uint64(s.BytesPerSecond)),
		"total.bytes", humanize.Bytes(uint64(s.BytesFetched)),
		"running", s.Running)
}

func (tl *TickLogger) Stop() {
	if tl == nil {
		return
	}
	tl.once.Do(func() {
		tl.ticker.Stop()
		close(tl.done)
	})
}
