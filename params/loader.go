package params

import (
	"path/filepath"
	"time"
)

type LoaderConfig struct {
	// Workers is the number of concurrent tile fetches.
	Workers int

	// QueueSize buffers pending requests and completed results.
	QueueSize int

	// MemoryCacheSize is the number of decoded tile images kept in memory.
	MemoryCacheSize int

	// FailureTTL is how long a failed URL is remembered. Requests for it
	// during this window fail immediately without touching the network.
	FailureTTL time.Duration

	// RequestTimeout bounds a single HTTP fetch.
	RequestTimeout time.Duration

	// MaxTileBytes caps the size of a tile response body.
	MaxTileBytes int64

	// UserAgent is sent with every request.
	// The OSM tile usage policy requires a descriptive one.
	UserAgent string

	// StorePath is the bbolt tile store. Empty disables the disk cache.
	StorePath string

	// Offline serves tiles from the store only.
	Offline bool
}

func DefaultLoaderConfig() *LoaderConfig {
	return &LoaderConfig{
		Workers:         8,
		QueueSize:       1024,
		MemoryCacheSize: 512,
		FailureTTL:      5 * time.Minute,
		RequestTimeout:  15 * time.Second,
		MaxTileBytes:    4 << 20,
		UserAgent:       "rotblauer-globe/0.1 (+https://github.com/rotblauer/globe)",
		StorePath:       filepath.Join(DatadirRoot, TileDBName),
	}
}

// DefaultTestLoaderConfig has no disk store and small queues.
func DefaultTestLoaderConfig() *LoaderConfig {
	c := DefaultLoaderConfig()
	c.Workers = 2
	c.QueueSize = 64
	c.MemoryCacheSize = 16
	c.RequestTimeout = 2 * time.Second
	c.StorePath = ""
	return c
}
