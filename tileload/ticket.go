package tileload

import (
	"context"
	"image"
	"sync/atomic"
)

// Source is where a loaded tile came from.
type Source int

const (
	SourceNone Source = iota
	SourceMemory
	SourceStore
	SourceNetwork
)

func (s Source) String() string {
	switch s {
	case SourceMemory:
		return "memory"
	case SourceStore:
		return "store"
	case SourceNetwork:
		return "network"
	}
	return "none"
}

// Ticket is the handle for one tile request.
// Releasing it cancels the fetch if it is still running and guarantees its
// result is never delivered.
type Ticket struct {
	url      string
	ctx      context.Context
	cancel   context.CancelFunc
	released atomic.Bool
}

func (t *Ticket) URL() string { return t.url }

func (t *Ticket) Release() {
	if t.released.CompareAndSwap(false, true) {
		t.cancel()
	}
}

func (t *Ticket) Released() bool { return t.released.Load() }

// Result is a finished request.
type Result struct {
	Ticket *Ticket
	Image  image.Image
	Source Source
	Err    error
}
