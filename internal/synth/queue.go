package synth

import (
	"sync/atomic"

	"github.com/ayusman/bowstring/internal/music"
)

// eventQueue is a bounded single-producer/single-consumer ring. The gesture
// path pushes, the audio render path pops; neither side ever blocks or
// takes a lock, which keeps the render callback free of priority inversion.
// Delivery is in-order and lossless up to capacity; a full queue rejects
// the push so the producer can surface the failure.
type eventQueue struct {
	buf  []music.NoteEvent
	mask uint64
	head atomic.Uint64 // next slot to read; owned by the consumer
	tail atomic.Uint64 // next slot to write; owned by the producer
}

// newEventQueue creates a queue with at least the requested capacity,
// rounded up to a power of two.
func newEventQueue(capacity int) *eventQueue {
	n := uint64(1)
	for n < uint64(capacity) {
		n <<= 1
	}
	return &eventQueue{
		buf:  make([]music.NoteEvent, n),
		mask: n - 1,
	}
}

// push appends an event. Producer side only. Returns false when the ring
// is full.
func (q *eventQueue) push(ev music.NoteEvent) bool {
	tail := q.tail.Load()
	head := q.head.Load()
	if tail-head > q.mask {
		return false
	}
	q.buf[tail&q.mask] = ev
	q.tail.Store(tail + 1)
	return true
}

// pop removes the oldest event. Consumer side only.
func (q *eventQueue) pop() (music.NoteEvent, bool) {
	head := q.head.Load()
	if head == q.tail.Load() {
		return music.NoteEvent{}, false
	}
	ev := q.buf[head&q.mask]
	q.head.Store(head + 1)
	return ev, true
}

// pending returns the number of queued events. Approximate under
// concurrency; exact from either endpoint's own goroutine.
func (q *eventQueue) pending() int {
	return int(q.tail.Load() - q.head.Load())
}
