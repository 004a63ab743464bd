package tileload

import (
	"context"
	"errors"
	"github.com/rotblauer/globe/cartography"
	"sync"
	"sync/atomic"
)

var ErrNoStore = errors.New("prefetch needs a tile store")

// PrefetchStats counts what a Prefetch did.
type PrefetchStats struct {
	Queued  int64
	Skipped int64
	Fetched int64
	Failed  int64
	Bytes   int64
}

// Prefetch downloads every key's tile into the store on workers goroutines,
// skipping tiles already stored. It returns when keys is closed and drained,
// or when ctx is done. Individual fetch failures are counted, not returned.
func (l *Loader) Prefetch(ctx context.Context, template string, workers int, keys <-chan cartography.TileKey) (*PrefetchStats, error) {
	if l.store == nil {
		return nil, ErrNoStore
	}
	if l.config.Offline {
		return nil, ErrOffline
	}
	if workers < 1 {
		workers = 1
	}
	var queued, skipped, fetched, failed, size atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				var k cartography.TileKey
				var ok bool
				select {
				case <-ctx.Done():
					return
				case k, ok = <-keys:
					if !ok {
						return
					}
				}
				queued.Add(1)
				url := cartography.TileURL(template, k)
				if l.store.Has(url) {
					skipped.Add(1)
					continue
				}
				data, err := l.Fetch(ctx, url)
				if err != nil {
					if ctx.Err() == nil {
						l.logger.Warn("Prefetch failed", "tile", k, "error", err)
						failed.Add(1)
					}
					continue
				}
				fetched.Add(1)
				size.Add(int64(len(data)))
			}
		}()
	}
	wg.Wait()
	stats := &PrefetchStats{
		Queued:  queued.Load(),
		Skipped: skipped.Load(),
		Fetched: fetched.Load(),
		Failed:  failed.Load(),
		Bytes:   size.Load(),
	}
	return stats, ctx.Err()
}
