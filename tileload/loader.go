// Package tileload fetches and decodes tile images on a worker pool.
// Requests are issued and results drained from the frame goroutine; only the
// workers block on I/O.
package tileload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"github.com/golang/groupcache/singleflight"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jellydator/ttlcache/v3"
	"github.com/rotblauer/globe/metrics"
	"github.com/rotblauer/globe/params"
	"github.com/rotblauer/globe/tiledb"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
)

var (
	ErrClosed        = errors.New("loader closed")
	ErrOffline       = errors.New("tile not in store and loader is offline")
	ErrRecentFailure = errors.New("tile failed recently")
	ErrTooLarge      = errors.New("tile response too large")
)

// StatusError is a non-200 tile server response.
type StatusError struct {
	URL    string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: %d %s", e.URL, e.Status, http.StatusText(e.Status))
}

type Loader struct {
	config  *params.LoaderConfig
	client  *http.Client
	store   *tiledb.Store
	metrics *metrics.Engine
	logger  *slog.Logger

	images   *lru.Cache[string, image.Image]
	failures *ttlcache.Cache[string, error]
	flight   singleflight.Group

	jobs    chan *Ticket
	results chan Result
	pending atomic.Int64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed atomic.Bool
}

// New starts config.Workers workers. store and m may be nil.
func New(config *params.LoaderConfig, store *tiledb.Store, m *metrics.Engine) (*Loader, error) {
	if config == nil {
		config = params.DefaultLoaderConfig()
	}
	if config.Workers < 1 {
		return nil, fmt.Errorf("loader needs at least one worker, got %d", config.Workers)
	}
	if config.Offline && store == nil {
		return nil, fmt.Errorf("offline loader needs a tile store")
	}
	images, err := lru.New[string, image.Image](config.MemoryCacheSize)
	if err != nil {
		return nil, err
	}
	if m == nil {
		m = metrics.NewEngine()
	}
	ctx, cancel := context.WithCancel(context.Background())
	l := &Loader{
		config:  config,
		client:  &http.Client{Timeout: config.RequestTimeout},
		store:   store,
		metrics: m,
		logger:  slog.With("component", "loader"),
		images:  images,
		failures: ttlcache.New[string, error](
			ttlcache.WithTTL[string, error](config.FailureTTL),
			ttlcache.WithDisableTouchOnHit[string, error]()),
		jobs:    make(chan *Ticket, config.QueueSize),
		results: make(chan Result, config.QueueSize),
		ctx:     ctx,
		cancel:  cancel,
	}
	go l.failures.Start()
	for i := 0; i < config.Workers; i++ {
		l.wg.Add(1)
		go l.work()
	}
	l.logger.Info("Tile loader started", "workers", config.Workers,
		"store", store != nil, "offline", config.Offline)
	return l, nil
}

func (l *Loader) Metrics() *metrics.Engine { return l.metrics }

// Pending is the number of requests neither delivered nor released.
func (l *Loader) Pending() int { return int(l.pending.Load()) }

// Request queues url and returns at once.
// The result is delivered through Drain unless the ticket is released first.
func (l *Loader) Request(url string) *Ticket {
	ctx, cancel := context.WithCancel(l.ctx)
	t := &Ticket{url: url, ctx: ctx, cancel: cancel}
	if l.closed.Load() {
		t.Release()
		return t
	}
	l.metrics.TilesRequested.Inc(1)
	l.track(1)
	select {
	case l.jobs <- t:
	default:
		// Queue is full; wait off the caller's goroutine.
		go func() {
			select {
			case l.jobs <- t:
			case <-t.ctx.Done():
				l.abandon()
			}
		}()
	}
	return t
}

// Drain hands every result completed so far to fn, skipping released tickets.
// It never blocks and returns the number of results delivered.
func (l *Loader) Drain(fn func(Result)) int {
	n := 0
	for {
		select {
		case res := <-l.results:
			n += l.deliver(res, fn)
		default:
			return n
		}
	}
}

// DrainWait blocks until at least one result is ready or ctx is done, then drains like Drain.
func (l *Loader) DrainWait(ctx context.Context, fn func(Result)) (int, error) {
	select {
	case res := <-l.results:
		n := l.deliver(res, fn)
		return n + l.Drain(fn), nil
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-l.ctx.Done():
		return 0, ErrClosed
	}
}

func (l *Loader) deliver(res Result, fn func(Result)) int {
	if res.Ticket.Released() {
		l.abandon()
		return 0
	}
	l.track(-1)
	fn(res)
	return 1
}

func (l *Loader) track(delta int64) {
	l.metrics.TilesPending.Update(l.pending.Add(delta))
}

func (l *Loader) abandon() {
	l.track(-1)
	l.metrics.TilesCanceled.Inc(1)
}

// Close stops the workers. Pending requests are abandoned.
func (l *Loader) Close() error {
	if !l.closed.CompareAndSwap(false, true) {
		return nil
	}
	l.cancel()
	l.wg.Wait()
	l.failures.Stop()
	l.logger.Info("Tile loader closed")
	return nil
}

func (l *Loader) work() {
	defer l.wg.Done()
	for {
		select {
		case <-l.ctx.Done():
			return
		case t := <-l.jobs:
			if t.Released() {
				l.abandon()
				continue
			}
			img, src, err := l.Load(t.ctx, t.url)
			if t.Released() {
				l.abandon()
				continue
			}
			select {
			case l.results <- Result{Ticket: t, Image: img, Source: src, Err: err}:
			case <-l.ctx.Done():
				return
			}
		}
	}
}

// Load resolves url from memory, the failure cache, the store, and finally the network.
func (l *Loader) Load(ctx context.Context, url string) (image.Image, Source, error) {
	if img, ok := l.images.Get(url); ok {
		l.metrics.MemoryHits.Inc(1)
		l.metrics.TilesLoaded.Inc(1)
		return img, SourceMemory, nil
	}
	if item := l.failures.Get(url); item != nil {
		l.metrics.NegativeHits.Inc(1)
		l.metrics.TilesFailed.Inc(1)
		return nil, SourceNone, fmt.Errorf("%w: %v", ErrRecentFailure, item.Value())
	}

	img, src, err := l.load(ctx, url)
	if err != nil {
		if ctx.Err() != nil {
			return nil, SourceNone, ctx.Err()
		}
		l.failures.Set(url, err, ttlcache.DefaultTTL)
		l.metrics.TilesFailed.Inc(1)
		l.logger.Warn("Tile failed", "url", url, "error", err)
		return nil, SourceNone, err
	}
	l.images.Add(url, img)
	l.metrics.TilesLoaded.Inc(1)
	return img, src, nil
}

func (l *Loader) load(ctx context.Context, url string) (image.Image, Source, error) {
	if l.store != nil {
		data, err := l.store.Get(url)
		if err == nil {
			img, err := decode(data)
			if err == nil {
				l.metrics.StoreHits.Inc(1)
				return img, SourceStore, nil
			}
			l.logger.Warn("Stored tile is corrupt, refetching", "url", url, "error", err)
		} else if !errors.Is(err, tiledb.ErrNotFound) {
			l.logger.Error("Tile store read failed", "url", url, "error", err)
		}
	}
	if l.config.Offline {
		return nil, SourceNone, ErrOffline
	}
	data, err := l.Fetch(ctx, url)
	if err != nil {
		return nil, SourceNone, err
	}
	img, err := decode(data)
	if err != nil {
		return nil, SourceNone, err
	}
	return img, SourceNetwork, nil
}

// Fetch downloads url, writing it through to the store.
// Concurrent fetches of the same url share one request.
func (l *Loader) Fetch(ctx context.Context, url string) ([]byte, error) {
	v, err := l.flight.Do(url, func() (interface{}, error) {
		return l.fetch(ctx, url)
	})
	if err != nil && ctx.Err() == nil && errors.Is(err, context.Canceled) {
		// The shared fetch belonged to a request that was released.
		return l.fetch(ctx, url)
	}
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (l *Loader) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", l.config.UserAgent)
	res, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 1<<10))
		return nil, &StatusError{URL: url, Status: res.StatusCode}
	}
	data, err := io.ReadAll(io.LimitReader(res.Body, l.config.MaxTileBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > l.config.MaxTileBytes {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrTooLarge, url, l.config.MaxTileBytes)
	}
	l.metrics.BytesFetched.Mark(int64(len(data)))
	if l.store != nil {
		if err := l.store.Put(url, data); err != nil {
			l.logger.Error("Tile store write failed", "url", url, "error", err)
		}
	}
	return data, nil
}

func decode(data []byte) (image.Image, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode tile: %w", err)
	}
	slog.Debug("Decoded tile", "format", format, "bounds", img.Bounds())
	return img, nil
}
