package tileload

import (
	"context"
	"github.com/paulmach/orb"
	"github.com/rotblauer/globe/cartography"
	"github.com/rotblauer/globe/common"
	"github.com/rotblauer/globe/tiledb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
)

func coverKeys(b orb.Bound, minZoom, maxZoom int) <-chan cartography.TileKey {
	keys := make(chan cartography.TileKey)
	go func() {
		defer close(keys)
		for z := minZoom; z <= maxZoom; z++ {
			cartography.Cover(b, z, func(k cartography.TileKey) bool {
				keys <- k
				return true
			})
		}
	}()
	return keys
}

func TestLoader_Prefetch(t *testing.T) {
	defer common.SlogResetLevel(slog.LevelError + 1)()
	tile := pngTile(t)
	ts := newTileServer(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/2/") {
			http.Error(w, "nope", http.StatusNotFound)
			return
		}
		_, _ = w.Write(tile)
	})
	store, err := tiledb.Open(filepath.Join(t.TempDir(), "tiles.db"), false)
	require.NoError(t, err)
	defer store.Close()
	l := newTestLoader(t, nil, store)

	world := orb.Bound{Min: orb.Point{-180, -90}, Max: orb.Point{180, 90}}
	template := ts.URL + "/{z}/{x}/{y}.png"
	stats, err := l.Prefetch(context.Background(), template, 4, coverKeys(world, 0, 2))
	require.NoError(t, err)
	assert.EqualValues(t, 21, stats.Queued)
	assert.EqualValues(t, 5, stats.Fetched)
	assert.EqualValues(t, 16, stats.Failed)
	assert.EqualValues(t, 5*len(tile), stats.Bytes)

	n, err := store.Len()
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	// Everything stored is skipped the second time.
	hits := ts.hits.Load()
	stats, err = l.Prefetch(context.Background(), template, 2, coverKeys(world, 0, 1))
	require.NoError(t, err)
	assert.EqualValues(t, 5, stats.Skipped)
	assert.Equal(t, hits, ts.hits.Load())
}

func TestLoader_PrefetchNeedsStore(t *testing.T) {
	l := newTestLoader(t, nil, nil)
	keys := make(chan cartography.TileKey)
	close(keys)
	_, err := l.Prefetch(context.Background(), "{z}/{x}/{y}", 1, keys)
	assert.ErrorIs(t, err, ErrNoStore)
}

func TestLoader_PrefetchCanceled(t *testing.T) {
	store, err := tiledb.Open(filepath.Join(t.TempDir(), "tiles.db"), false)
	require.NoError(t, err)
	defer store.Close()
	l := newTestLoader(t, nil, store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	keys := make(chan cartography.TileKey)
	_, err = l.Prefetch(ctx, "{z}/{x}/{y}", 2, keys)
	assert.ErrorIs(t, err, context.Canceled)
}
