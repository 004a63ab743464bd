package metrics

import (
	"github.com/rotblauer/globe/common"
	"log/slog"
	"testing"
	"time"
)

func TestEngine_Snapshot(t *testing.T) {
	e := NewEngine()
	defer e.Stop()

	e.TilesRequested.Inc(5)
	e.TilesLoaded.Inc(3)
	e.TilesFailed.Inc(1)
	e.StoreHits.Inc(2)
	e.BytesFetched.Mark(2048)
	e.MarkFrame(85, 40, 7, 0)
	e.MarkFrame(89, 43, 8, 2)

	s := e.Snapshot()
	if s.TilesRequested != 5 || s.TilesLoaded != 3 || s.TilesFailed != 1 || s.StoreHits != 2 {
		t.Errorf("tile counters = %+v", s)
	}
	if s.BytesFetched != 2048 {
		t.Errorf("bytes = %d, want 2048", s.BytesFetched)
	}
	if s.Frames != 2 || s.Nodes != 89 || s.Drawn != 43 || s.MaxZoom != 8 || s.Panics != 2 {
		t.Errorf("frame gauges = %+v", s)
	}

	names := map[string]bool{}
	e.Registry().Each(func(name string, _ interface{}) {
		names[name] = true
	})
	for _, want := range []string{"tiles.loaded.count", "frames.meter", "tree.nodes.gauge"} {
		if !names[want] {
			t.Errorf("registry missing %q", want)
		}
	}
}

func TestTickLogger_Stop(t *testing.T) {
	defer common.SlogResetLevel(slog.LevelWarn)()
	e := NewEngine()
	defer e.Stop()
	tl := NewTickLogger(e, 10*time.Millisecond)
	time.Sleep(35 * time.Millisecond)
	tl.Log()
	tl.Stop()
	tl.Stop()
}
