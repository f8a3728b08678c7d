// Package eventbus is an in-process fan-out bus for plan events.
package eventbus

import (
	"sync"
	"sync/atomic"
)

// DefaultBuffer is the per-subscriber channel capacity.
const DefaultBuffer = 16

// TypedBus delivers values of type T to every subscriber. Publishing never
// blocks: a subscriber whose buffer is full misses the event and the drop is
// counted.
type TypedBus[T any] struct {
	mu      sync.RWMutex
	subs    map[int]chan T
	next    int
	buffer  int
	closed  bool
	dropped atomic.Uint64
}

// NewTyped returns a bus with buffer slots per subscriber. buffer <= 0 uses
// DefaultBuffer.
func NewTyped[T any](buffer int) *TypedBus[T] {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &TypedBus[T]{subs: map[int]chan T{}, buffer: buffer}
}

// Publish hands e to each subscriber and returns how many received it.
func (b *TypedBus[T]) Publish(e T) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return 0
	}
	n := 0
	for _, ch := range b.subs {
		select {
		case ch <- e:
			n++
		default:
			b.dropped.Add(1)
		}
	}
	return n
}

// Subscribe returns a receive channel and a cancel func that closes it.
// Subscribing to a closed bus yields an already closed channel.
func (b *TypedBus[T]) Subscribe() (<-chan T, func()) {
	ch := make(chan T, b.buffer)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	id := b.next
	b.next++
	b.subs[id] = ch
	return ch, func() { b.cancel(id) }
}

func (b *TypedBus[T]) cancel(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
}

// Subscribers returns the live subscriber count.
func (b *TypedBus[T]) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Dropped returns how many deliveries were skipped on full buffers.
func (b *TypedBus[T]) Dropped() uint64 { return b.dropped.Load() }

// Close closes every subscriber channel. Later publishes are ignored.
func (b *TypedBus[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		close(ch)
		delete(b.subs, id)
	}
}
