package app

import (
	"time"

	"go.uber.org/zap"

	"github.com/ayusman/bowstring/internal/music"
	"github.com/ayusman/bowstring/internal/tracker"
)

// run is the main performance loop. Each tracker frame is classified,
// stabilized, and mapped; only debounced field changes reach the mapper,
// so the sinks see clean note edges rather than per-frame chatter.
func (a *App) run(stop <-chan struct{}) {
	defer a.wg.Done()

	frames := a.source.Frames()
	for {
		select {
		case <-stop:
			return
		case set, ok := <-frames:
			if !ok {
				a.log.Warn("tracker stream closed")
				return
			}
			a.process(&set)
		}
	}
}

func (a *App) process(set *tracker.FrameSet) {
	now := set.Timestamp
	if now.IsZero() {
		now = time.Now()
	}

	// The source already gates on confidence; re-check here so a source
	// with a looser threshold cannot feed weak detections downstream.
	kept := set.Hands[:0]
	for _, h := range set.Hands {
		if h.Confidence >= a.cfg.Tracker.MinConfidence {
			kept = append(kept, h)
		}
	}
	set.Hands = kept

	right, left := a.classifier.Classify(set)
	state, changed := a.stabilizer.Update(right, left, now)
	if !changed {
		return
	}

	events := a.mapper.Update(state.Bowing, state.String, state.Position,
		state.FingerCount, state.PitchOffset, now)
	for _, ev := range events {
		a.log.Debug("note event",
			zap.Stringer("edge", ev.Edge),
			zap.String("note", music.NoteName(ev.Note)),
			zap.String("string", music.StringName(ev.String)),
			zap.Int("position", ev.Position),
			zap.Int("fingers", ev.FingerCount))
		a.deliver(ev)
	}
}

// deliver fans an event out to the sinks, the recorder, and observers.
func (a *App) deliver(ev music.NoteEvent) {
	if err := a.sink.Send(ev); err != nil {
		a.log.Warn("sink rejected event",
			zap.Stringer("edge", ev.Edge),
			zap.Int("note", ev.Note),
			zap.Error(err))
	}

	if a.rec != nil {
		a.rec.observe(ev)
	}

	a.mu.Lock()
	observers := a.observers
	a.mu.Unlock()
	for _, fn := range observers {
		fn(ev)
	}
}

// pollStats periodically logs engine diagnostics. The render path only
// bumps counters; this goroutine is the one place they turn into log
// lines.
func (a *App) pollStats(stop <-chan struct{}) {
	defer a.wg.Done()

	if a.engine == nil {
		return
	}

	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()

	var lastMisses, lastUnderruns uint64
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			st := a.engine.Stats()
			if st.DeadlineMisses > lastMisses {
				a.log.Warn("audio render missed deadlines",
					zap.Uint64("new", st.DeadlineMisses-lastMisses),
					zap.Uint64("total", st.DeadlineMisses))
				lastMisses = st.DeadlineMisses
			}
			if st.Underruns > lastUnderruns {
				a.log.Warn("synth event queue rejected events",
					zap.Uint64("new", st.Underruns-lastUnderruns),
					zap.Uint64("total", st.Underruns))
				lastUnderruns = st.Underruns
			}
		}
	}
}
