package synth

import (
	"sync"
	"testing"

	"github.com/ayusman/bowstring/internal/music"
)

func TestEventQueue_OrderAndCapacity(t *testing.T) {
	q := newEventQueue(4)

	for i := 0; i < 4; i++ {
		if !q.push(music.NoteEvent{Note: 60 + i}) {
			t.Fatalf("push %d rejected below capacity", i)
		}
	}
	if q.push(music.NoteEvent{Note: 99}) {
		t.Error("push into a full ring must fail")
	}

	for i := 0; i < 4; i++ {
		ev, ok := q.pop()
		if !ok {
			t.Fatalf("pop %d failed", i)
		}
		if ev.Note != 60+i {
			t.Errorf("pop %d = note %d, want %d", i, ev.Note, 60+i)
		}
	}
	if _, ok := q.pop(); ok {
		t.Error("pop from empty ring must fail")
	}
}

func TestEventQueue_RoundsUpCapacity(t *testing.T) {
	q := newEventQueue(5)
	for i := 0; i < 8; i++ {
		if !q.push(music.NoteEvent{}) {
			t.Fatalf("capacity 5 should round up to 8, push %d failed", i)
		}
	}
}

func TestEventQueue_WrapAround(t *testing.T) {
	q := newEventQueue(4)

	// Cycle well past the ring size to exercise index wrapping.
	for i := 0; i < 100; i++ {
		if !q.push(music.NoteEvent{Note: i}) {
			t.Fatalf("push %d rejected on empty ring", i)
		}
		ev, ok := q.pop()
		if !ok || ev.Note != i {
			t.Fatalf("pop %d = (%d, %v)", i, ev.Note, ok)
		}
	}
}

// One producer and one consumer hammering the ring must deliver every
// event exactly once and in order.
func TestEventQueue_ConcurrentSPSC(t *testing.T) {
	q := newEventQueue(16)
	const total = 10000

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < total; {
			if q.push(music.NoteEvent{Velocity: i}) {
				i++
			}
		}
	}()

	for i := 0; i < total; {
		ev, ok := q.pop()
		if !ok {
			continue
		}
		if ev.Velocity != i {
			t.Fatalf("event %d arrived out of order as %d", i, ev.Velocity)
		}
		i++
	}
	wg.Wait()

	if q.pending() != 0 {
		t.Errorf("pending = %d after drain, want 0", q.pending())
	}
}
