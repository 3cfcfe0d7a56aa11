package app

import (
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/ayusman/bowstring/internal/music"
	"github.com/ayusman/bowstring/internal/store"
)

// recorder persists the notes of one session. Durations are derived by
// pairing each on (or glide change) with the event that ends it.
type recorder struct {
	log      *zap.Logger
	sessions *store.SessionRepository
	notes    *store.NoteRepository
	metrics  *store.MetricRepository

	session *store.Session

	pending   *store.Note // sounding note awaiting its end
	pendingAt time.Time

	total    int
	seen     map[int]struct{}
	durSumMs float64
	durCount int
}

func newRecorder(s *store.Store, log *zap.Logger) *recorder {
	return &recorder{
		log:      log,
		sessions: s.Sessions(),
		notes:    s.Notes(),
		metrics:  s.Metrics(),
	}
}

// begin opens a fresh session row.
func (r *recorder) begin() error {
	session, err := r.sessions.Start()
	if err != nil {
		return err
	}
	r.session = session
	r.pending = nil
	r.total = 0
	r.seen = make(map[int]struct{})
	r.durSumMs = 0
	r.durCount = 0
	return nil
}

func (r *recorder) sessionID() string {
	if r.session == nil {
		return ""
	}
	return r.session.ID
}

// observe folds one note event into the session log. Runs on the pipeline
// goroutine.
func (r *recorder) observe(ev music.NoteEvent) {
	if r.session == nil {
		return
	}

	switch ev.Edge {
	case music.EdgeOn:
		r.closePending(ev.Timestamp)
		r.open(ev)
	case music.EdgeChange:
		r.closePending(ev.Timestamp)
		r.open(ev)
	case music.EdgeOff:
		r.closePending(ev.Timestamp)
	}
}

func (r *recorder) open(ev music.NoteEvent) {
	r.pending = &store.Note{
		SessionID:   r.session.ID,
		Timestamp:   ev.Timestamp.UTC(),
		MIDINote:    ev.Note,
		NoteName:    music.NoteName(ev.Note),
		String:      music.StringName(ev.String),
		Position:    ev.Position,
		FingerCount: ev.FingerCount,
		PitchOffset: ev.PitchOffset,
		Velocity:    ev.Velocity,
	}
	r.pendingAt = ev.Timestamp
}

// closePending writes the open note, if any, with its measured duration.
func (r *recorder) closePending(at time.Time) {
	if r.pending == nil {
		return
	}
	n := r.pending
	r.pending = nil

	ms := at.Sub(r.pendingAt).Milliseconds()
	if ms >= 0 {
		n.DurationMs = sql.NullInt64{Int64: ms, Valid: true}
		r.durSumMs += float64(ms)
		r.durCount++
	}

	if err := r.notes.Create(n); err != nil {
		r.log.Error("failed to record note",
			zap.String("note", n.NoteName), zap.Error(err))
		return
	}

	r.total++
	r.seen[n.MIDINote] = struct{}{}
}

// finish closes the session row with summary statistics and writes any
// diagnostic metrics.
func (r *recorder) finish(end time.Time, extras map[string]float64) error {
	if r.session == nil {
		return nil
	}
	session := r.session
	r.session = nil

	avgMs := 0.0
	if r.durCount > 0 {
		avgMs = r.durSumMs / float64(r.durCount)
	}
	npm := 0.0
	if minutes := end.Sub(session.StartTime).Minutes(); minutes > 0 {
		npm = float64(r.total) / minutes
	}

	for metricType, value := range extras {
		if err := r.metrics.Record(session.ID, metricType, value); err != nil {
			r.log.Error("failed to record metric",
				zap.String("type", metricType), zap.Error(err))
		}
	}

	return r.sessions.Finish(session.ID, end.UTC(), r.total, len(r.seen), avgMs, npm)
}
