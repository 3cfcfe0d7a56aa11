package store

import (
	"database/sql"
	"errors"
	"testing"
	"time"
)

func TestSessionRepository_StartAndFinish(t *testing.T) {
	s := newTestStore(t)
	repo := s.Sessions()

	sess, err := repo.Start()
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if sess.ID == "" {
		t.Fatal("session ID should be generated")
	}
	if sess.EndTime.Valid {
		t.Error("new session should be open")
	}

	end := sess.StartTime.Add(5 * time.Minute)
	if err := repo.Finish(sess.ID, end, 42, 7, 350.5, 8.4); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	got, err := repo.GetByID(sess.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.TotalNotes != 42 || got.UniqueNotes != 7 {
		t.Errorf("counts = %d/%d, want 42/7", got.TotalNotes, got.UniqueNotes)
	}
	if !got.EndTime.Valid {
		t.Fatal("finished session should have an end time")
	}
	if got.Duration() != 5*time.Minute {
		t.Errorf("Duration = %v, want 5m", got.Duration())
	}
	if !got.AvgNoteMs.Valid || got.AvgNoteMs.Float64 != 350.5 {
		t.Errorf("AvgNoteMs = %+v, want 350.5", got.AvgNoteMs)
	}
}

func TestSessionRepository_FinishUnknown(t *testing.T) {
	s := newTestStore(t)

	err := s.Sessions().Finish("no-such-id", time.Now(), 0, 0, 0, 0)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Finish unknown = %v, want ErrNotFound", err)
	}
}

func TestSessionRepository_GetByIDNotFound(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Sessions().GetByID("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID missing = %v, want ErrNotFound", err)
	}
}

func TestSessionRepository_ListOrdersByStart(t *testing.T) {
	s := newTestStore(t)
	repo := s.Sessions()

	first, _ := repo.Start()
	// Force distinct, ordered start times.
	s.DB().Exec(`UPDATE sessions SET start_time = ? WHERE id = ?`,
		time.Now().UTC().Add(-time.Hour), first.ID)
	second, err := repo.Start()
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	sessions, err := repo.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("List returned %d sessions, want 2", len(sessions))
	}
	if sessions[0].ID != second.ID {
		t.Error("most recent session should come first")
	}
}

func TestSessionRepository_DeleteCascadesNotes(t *testing.T) {
	s := newTestStore(t)
	sess, _ := s.Sessions().Start()

	n := &Note{
		SessionID: sess.ID,
		Timestamp: time.Now().UTC(),
		MIDINote:  76,
		NoteName:  "E5",
		String:    "E",
		Position:  1,
		Velocity:  100,
	}
	if err := s.Notes().Create(n); err != nil {
		t.Fatalf("Create note: %v", err)
	}

	if err := s.Sessions().Delete(sess.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	notes, err := s.Notes().BySession(sess.ID)
	if err != nil {
		t.Fatalf("BySession: %v", err)
	}
	if len(notes) != 0 {
		t.Errorf("deleting a session should cascade to its %d notes", len(notes))
	}
}

func TestNoteRepository_CreateAndQuery(t *testing.T) {
	s := newTestStore(t)
	sess, _ := s.Sessions().Start()
	repo := s.Notes()

	base := time.Now().UTC().Truncate(time.Millisecond)
	for i, note := range []int{76, 76, 78} {
		n := &Note{
			SessionID:   sess.ID,
			Timestamp:   base.Add(time.Duration(i) * time.Second),
			MIDINote:    note,
			NoteName:    "E5",
			String:      "E",
			Position:    1,
			FingerCount: i,
			Velocity:    100,
			DurationMs:  sql.NullInt64{Int64: 400, Valid: true},
		}
		if err := repo.Create(n); err != nil {
			t.Fatalf("Create note %d: %v", i, err)
		}
		if n.ID == 0 {
			t.Error("Create should fill in the generated ID")
		}
	}

	notes, err := repo.BySession(sess.ID)
	if err != nil {
		t.Fatalf("BySession: %v", err)
	}
	if len(notes) != 3 {
		t.Fatalf("BySession returned %d notes, want 3", len(notes))
	}
	if notes[0].FingerCount != 0 || notes[2].FingerCount != 2 {
		t.Error("notes should come back in playing order")
	}

	total, unique, err := repo.CountBySession(sess.ID)
	if err != nil {
		t.Fatalf("CountBySession: %v", err)
	}
	if total != 3 || unique != 2 {
		t.Errorf("counts = %d/%d, want 3/2", total, unique)
	}
}

func TestMetricRepository_RecordAndQuery(t *testing.T) {
	s := newTestStore(t)
	sess, _ := s.Sessions().Start()

	repo := s.Metrics()
	if err := repo.Record(sess.ID, MetricDeadlineMisses, 3); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := repo.Record(sess.ID, MetricMIDIDropped, 0); err != nil {
		t.Fatalf("Record: %v", err)
	}

	metrics, err := repo.BySession(sess.ID)
	if err != nil {
		t.Fatalf("BySession: %v", err)
	}
	if len(metrics) != 2 {
		t.Fatalf("got %d metrics, want 2", len(metrics))
	}
	if metrics[0].Type != MetricDeadlineMisses || metrics[0].Value != 3 {
		t.Errorf("first metric = %s/%v", metrics[0].Type, metrics[0].Value)
	}
}
