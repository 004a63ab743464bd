package common

import (
	"sync"
)

// RingBuffer keeps the last size values added, oldest first.
// Based on https://medium.com/@nathanbcrocker/a-practical-guide-to-implementing-a-generic-ring-buffer-in-go-866d27ec1a05.
type RingBuffer[T any] struct {
	mu     sync.Mutex
	buffer []T
	write  int
	count  int
}

func NewRingBuffer[T any](size int) *RingBuffer[T] {
	if size < 1 {
		size = 1
	}
	return &RingBuffer[T]{buffer: make([]T, size)}
}

// Add overwrites the oldest value once the buffer is full.
func (rb *RingBuffer[T]) Add(value T) {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	rb.buffer[rb.write] = value
	rb.write = (rb.write + 1) % len(rb.buffer)
	if rb.count < len(rb.buffer) {
		rb.count++
	}
}

// Get copies out every value, oldest first.
func (rb *RingBuffer[T]) Get() []T {
	return rb.Tail(-1)
}

// Tail copies out the newest n values, oldest first. A negative n is all of them.
func (rb *RingBuffer[T]) Tail(n int) []T {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	if n < 0 || n > rb.count {
		n = rb.count
	}
	out := make([]T, n)
	size := len(rb.buffer)
	for i := range out {
		out[i] = rb.buffer[(rb.write+size-n+i)%size]
	}
	return out
}

func (rb *RingBuffer[T]) Len() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.count
}

func (rb *RingBuffer[T]) Cap() int { return len(rb.buffer) }
