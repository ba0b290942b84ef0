package audit

import "sync"

const defaultBufferSize = 1024

// RingBuffer holds events waiting for the fan-out worker. It never blocks
// the publisher: once full, each new event evicts the oldest one.
type RingBuffer struct {
	mu      sync.Mutex
	slots   []Event
	start   int
	size    int
	dropped int64
}

func NewRingBuffer(capacity int) *RingBuffer {
	if capacity <= 0 {
		capacity = defaultBufferSize
	}
	return &RingBuffer{slots: make([]Event, capacity)}
}

// Enqueue appends event and reports whether an older event was evicted.
func (b *RingBuffer) Enqueue(event Event) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	full := b.size == len(b.slots)
	if full {
		b.start = b.wrap(b.start + 1)
		b.dropped++
	} else {
		b.size++
	}
	b.slots[b.wrap(b.start+b.size-1)] = event
	return full
}

// DequeueBatch pops up to n events in publish order.
func (b *RingBuffer) DequeueBatch(n int) []Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	n = min(n, b.size)
	if n <= 0 {
		return nil
	}
	batch := make([]Event, 0, n)
	for range n {
		batch = append(batch, b.slots[b.start])
		b.slots[b.start] = Event{}
		b.start = b.wrap(b.start + 1)
	}
	b.size -= n
	return batch
}

func (b *RingBuffer) wrap(i int) int { return i % len(b.slots) }

func (b *RingBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.size
}

// Dropped counts events evicted since creation.
func (b *RingBuffer) Dropped() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}
