// Package ring provides a fixed-capacity single-producer/single-consumer
// ring buffer used to hand samples from the acquisition tick to the
// averaging goroutine.
package ring

import (
	"errors"
	"sync/atomic"
)

var (
	// ErrFull is returned by Push when the buffer holds capacity items.
	ErrFull = errors.New("ring: buffer full")
	// ErrEmpty is returned by Pop when the buffer holds no items.
	ErrEmpty = errors.New("ring: buffer empty")
)

// Buffer is a bounded FIFO safe for exactly one concurrent pusher and one
// concurrent popper. The head and tail indices increase monotonically and
// are reduced modulo capacity on access, so tail-head is always the number
// of buffered items: 0 means empty, capacity means full. This removes the
// head==tail empty/full ambiguity of the classic wrap-by-modulo design.
//
// Both indices are atomics so the producer's writes are visible to the
// consumer without a lock. Correctness still requires the SPSC discipline:
// only one goroutine may call Push and only one may call Pop.
type Buffer[T any] struct {
	data []T
	head atomic.Uint64 // next read slot (mod capacity)
	tail atomic.Uint64 // next write slot (mod capacity)
}

// New allocates a buffer holding up to capacity items. Capacity does not
// need to be a power of two. Panics if capacity is not positive.
func New[T any](capacity int) *Buffer[T] {
	if capacity <= 0 {
		panic("ring: capacity must be positive")
	}
	return &Buffer[T]{
		data: make([]T, capacity),
	}
}

// Push appends v at the tail. Returns ErrFull, leaving the buffer
// unchanged, when capacity items are already queued. Never blocks and
// never allocates.
func (b *Buffer[T]) Push(v T) error {
	head := b.head.Load()
	tail := b.tail.Load()
	if tail-head >= uint64(len(b.data)) {
		return ErrFull
	}
	b.data[tail%uint64(len(b.data))] = v
	// The slot write above must land before the tail publish.
	b.tail.Store(tail + 1)
	return nil
}

// Pop removes and returns the oldest item. Returns ErrEmpty when no item
// is queued. Never blocks.
func (b *Buffer[T]) Pop() (T, error) {
	head := b.head.Load()
	tail := b.tail.Load()
	if head == tail {
		var zero T
		return zero, ErrEmpty
	}
	v := b.data[head%uint64(len(b.data))]
	b.head.Store(head + 1)
	return v, nil
}

// Len returns the number of buffered items.
func (b *Buffer[T]) Len() int {
	return int(b.tail.Load() - b.head.Load())
}

// Cap returns the fixed capacity.
func (b *Buffer[T]) Cap() int {
	return len(b.data)
}
