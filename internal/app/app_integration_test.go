package app

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/ayusman/bowstring/internal/config"
	"github.com/ayusman/bowstring/internal/music"
	"github.com/ayusman/bowstring/internal/store"
	"github.com/ayusman/bowstring/internal/tracker"
)

// collector is a sink that records every event it receives.
type collector struct {
	mu     sync.Mutex
	events []music.NoteEvent
}

func (c *collector) Send(ev music.NoteEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
	return nil
}

func (c *collector) snapshot() []music.NoteEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]music.NoteEvent, len(c.events))
	copy(out, c.events)
	return out
}

// pushPose delivers n frames of the given two-hand pose with timestamps
// advancing by 33ms from start.
func pushPose(src *tracker.MockSource, start time.Time, n int, right, left *tracker.HandFrame) time.Time {
	ts := start
	for i := 0; i < n; i++ {
		var hands []tracker.HandFrame
		if right != nil {
			r := *right
			r.Timestamp = ts
			hands = append(hands, r)
		}
		if left != nil {
			l := *left
			l.Timestamp = ts
			hands = append(hands, l)
		}
		src.Push(tracker.FrameSet{Hands: hands, Timestamp: ts})
		ts = ts.Add(33 * time.Millisecond)
	}
	return ts
}

func waitEvents(t *testing.T, ch <-chan music.NoteEvent, n int) []music.NoteEvent {
	t.Helper()

	var events []music.NoteEvent
	deadline := time.After(2 * time.Second)
	for len(events) < n {
		select {
		case ev := <-ch:
			events = append(events, ev)
		case <-deadline:
			t.Fatalf("timed out waiting for event %d of %d", len(events)+1, n)
		}
	}
	return events
}

// A scripted pinch on the right hand produces exactly one note on and one
// note off, and the session log records the note with its duration.
func TestApp_BowStrokeProducesOneNote(t *testing.T) {
	st, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	defer st.Close()

	src := tracker.NewMockSource(256)
	sink := &collector{}

	a, err := New(Config{
		App:    config.Default(),
		Source: src,
		Sinks:  []music.Sink{sink},
		Store:  st,
		Logger: zap.NewNop(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	eventCh := make(chan music.NoteEvent, 16)
	a.Subscribe(func(ev music.NoteEvent) { eventCh <- ev })

	if err := a.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	t0 := time.Now()
	openRight := tracker.RightHand(1, false)
	closedRight := tracker.RightHand(1, true)
	left := tracker.LeftHand(0.2, 0, 0)

	// Settle: string 1, first position, bow open.
	ts := pushPose(src, t0, 10, &openRight, &left)
	// Pinch closed for ~300ms: one note on.
	ts = pushPose(src, ts, 10, &closedRight, &left)
	// Pinch open again: one note off.
	pushPose(src, ts, 10, &openRight, &left)

	events := waitEvents(t, eventCh, 2)
	a.Stop()

	if events[0].Edge != music.EdgeOn || events[0].Note != 76 {
		t.Fatalf("first event = %v %d, want on E5(76)", events[0].Edge, events[0].Note)
	}
	if events[1].Edge != music.EdgeOff || events[1].Note != 76 {
		t.Fatalf("second event = %v %d, want off E5(76)", events[1].Edge, events[1].Note)
	}

	got := sink.snapshot()
	if len(got) != 2 {
		t.Errorf("sink received %d events, want 2", len(got))
	}

	// The recorder paired the on/off into one note row.
	sessions, err := st.Sessions().List()
	if err != nil || len(sessions) != 1 {
		t.Fatalf("sessions = %d (%v), want 1", len(sessions), err)
	}
	sess := sessions[0]
	if sess.TotalNotes != 1 || sess.UniqueNotes != 1 {
		t.Errorf("session counts = %d/%d, want 1/1", sess.TotalNotes, sess.UniqueNotes)
	}
	if !sess.EndTime.Valid {
		t.Error("session should be closed after Stop")
	}

	notes, err := st.Notes().BySession(sess.ID)
	if err != nil || len(notes) != 1 {
		t.Fatalf("notes = %d (%v), want 1", len(notes), err)
	}
	n := notes[0]
	if n.MIDINote != 76 || n.NoteName != "E5" || n.String != "E" {
		t.Errorf("note = %d %s on %s, want 76 E5 on E", n.MIDINote, n.NoteName, n.String)
	}
	if !n.DurationMs.Valid || n.DurationMs.Int64 <= 0 {
		t.Errorf("note duration = %+v, want positive", n.DurationMs)
	}
}

// Curling left-hand fingers mid-bow retriggers onto the new pitch.
func TestApp_FingerChangeRetriggers(t *testing.T) {
	src := tracker.NewMockSource(256)
	sink := &collector{}

	a, err := New(Config{
		App:    config.Default(),
		Source: src,
		Sinks:  []music.Sink{sink},
		Logger: zap.NewNop(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	eventCh := make(chan music.NoteEvent, 16)
	a.Subscribe(func(ev music.NoteEvent) { eventCh <- ev })
	if err := a.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer a.Stop()

	t0 := time.Now()
	openRight := tracker.RightHand(2, false)
	closedRight := tracker.RightHand(2, true)
	openHand := tracker.LeftHand(0.2, 0, 0)
	oneFinger := tracker.LeftHand(0.2, 1, 0)

	// Settle on string 2 (A, 69), bow it with no fingers, then press one
	// finger (+2 semitones).
	ts := pushPose(src, t0, 10, &openRight, &openHand)
	ts = pushPose(src, ts, 10, &closedRight, &openHand)
	pushPose(src, ts, 10, &closedRight, &oneFinger)

	events := waitEvents(t, eventCh, 3)

	want := []struct {
		edge music.Edge
		note int
	}{
		{music.EdgeOn, 69},
		{music.EdgeOff, 69},
		{music.EdgeOn, 71},
	}
	for i, w := range want {
		if events[i].Edge != w.edge || events[i].Note != w.note {
			t.Errorf("event %d = %v %d, want %v %d",
				i, events[i].Edge, events[i].Note, w.edge, w.note)
		}
	}
}

// Under the glide policy the same finger change emits a single change
// event instead of an off/on pair.
func TestApp_GlidePolicyEmitsChange(t *testing.T) {
	cfg := config.Default()
	cfg.Violin.Policy = "glide"

	src := tracker.NewMockSource(256)
	sink := &collector{}

	a, err := New(Config{App: cfg, Source: src, Sinks: []music.Sink{sink}, Logger: zap.NewNop()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	eventCh := make(chan music.NoteEvent, 16)
	a.Subscribe(func(ev music.NoteEvent) { eventCh <- ev })
	if err := a.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer a.Stop()

	t0 := time.Now()
	openRight := tracker.RightHand(2, false)
	closedRight := tracker.RightHand(2, true)
	openHand := tracker.LeftHand(0.2, 0, 0)
	oneFinger := tracker.LeftHand(0.2, 1, 0)

	ts := pushPose(src, t0, 10, &openRight, &openHand)
	ts = pushPose(src, ts, 10, &closedRight, &openHand)
	pushPose(src, ts, 10, &closedRight, &oneFinger)

	events := waitEvents(t, eventCh, 2)
	if events[0].Edge != music.EdgeOn || events[0].Note != 69 {
		t.Fatalf("first event = %v %d, want on 69", events[0].Edge, events[0].Note)
	}
	if events[1].Edge != music.EdgeChange || events[1].Note != 71 {
		t.Fatalf("second event = %v %d, want change 71", events[1].Edge, events[1].Note)
	}
}

func TestApp_RejectsBadPolicy(t *testing.T) {
	cfg := config.Default()
	cfg.Violin.Policy = "portamento"

	_, err := New(Config{App: cfg, Source: tracker.NewMockSource(1), Logger: zap.NewNop()})
	if err == nil {
		t.Fatal("unknown policy should fail construction")
	}
}

func TestApp_StopWithoutStart(t *testing.T) {
	a, err := New(Config{App: config.Default(), Source: tracker.NewMockSource(1), Logger: zap.NewNop()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	a.Stop() // must not panic or block
}

func TestRunCalibration_DerivesProfileFromZones(t *testing.T) {
	src := tracker.NewMockSource(64)

	window := 5
	ys := map[int]float64{1: 0.2, 2: 0.5, 3: 0.8}
	var promptedZones []int

	// Pre-load exactly window frames per zone; sampling consumes them in
	// zone order.
	for _, zone := range []int{1, 2, 3} {
		left := tracker.LeftHand(ys[zone], 0, 0)
		for i := 0; i < window; i++ {
			src.PushHands(left)
		}
	}

	profile, err := RunCalibration(src, CalibrationOptions{
		Window:      window,
		ZoneTimeout: time.Second,
		Prompt:      func(zone int) { promptedZones = append(promptedZones, zone) },
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("RunCalibration: %v", err)
	}

	if len(promptedZones) != 3 {
		t.Errorf("prompted %d zones, want 3", len(promptedZones))
	}
	if profile.LowBound != 0.35 || profile.MidBound != 0.65 || profile.HighBound != 1.0 {
		t.Errorf("profile = %+v, want bounds 0.35/0.65/1.0", profile)
	}
}

func TestRunCalibration_ClosedStreamAborts(t *testing.T) {
	src := tracker.NewMockSource(4)
	src.Close()

	_, err := RunCalibration(src, CalibrationOptions{Window: 3, ZoneTimeout: time.Second}, zap.NewNop())
	if !errors.Is(err, ErrCalibrationAborted) {
		t.Errorf("err = %v, want ErrCalibrationAborted", err)
	}
}
