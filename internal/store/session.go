package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// Session represents one practice session.
type Session struct {
	ID             string
	StartTime      time.Time
	EndTime        sql.NullTime
	TotalNotes     int
	UniqueNotes    int
	AvgNoteMs      sql.NullFloat64
	NotesPerMinute sql.NullFloat64
}

// Duration returns the session length, or zero if it is still open.
func (s *Session) Duration() time.Duration {
	if !s.EndTime.Valid {
		return 0
	}
	return s.EndTime.Time.Sub(s.StartTime)
}

// SessionRepository provides CRUD operations for sessions.
type SessionRepository struct {
	db *sql.DB
}

// Sessions returns the session repository for this store.
func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{db: s.db}
}

// Start creates and returns a new open session.
func (r *SessionRepository) Start() (*Session, error) {
	sess := &Session{
		ID:        uuid.NewString(),
		StartTime: time.Now().UTC(),
	}

	_, err := r.db.Exec(
		`INSERT INTO sessions (id, start_time) VALUES (?, ?)`,
		sess.ID, sess.StartTime,
	)
	if err != nil {
		return nil, err
	}

	return sess, nil
}

// Finish closes the session and writes its summary statistics.
func (r *SessionRepository) Finish(id string, end time.Time, totalNotes, uniqueNotes int, avgNoteMs, notesPerMinute float64) error {
	result, err := r.db.Exec(
		`UPDATE sessions
		 SET end_time = ?, total_notes = ?, unique_notes = ?, avg_note_duration_ms = ?, notes_per_minute = ?
		 WHERE id = ?`,
		end, totalNotes, uniqueNotes, avgNoteMs, notesPerMinute, id,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// GetByID retrieves a session by its ID.
func (r *SessionRepository) GetByID(id string) (*Session, error) {
	sess := &Session{}

	err := r.db.QueryRow(
		`SELECT id, start_time, end_time, total_notes, unique_notes, avg_note_duration_ms, notes_per_minute
		 FROM sessions WHERE id = ?`,
		id,
	).Scan(&sess.ID, &sess.StartTime, &sess.EndTime, &sess.TotalNotes,
		&sess.UniqueNotes, &sess.AvgNoteMs, &sess.NotesPerMinute)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return sess, nil
}

// List retrieves all sessions, most recent first.
func (r *SessionRepository) List() ([]*Session, error) {
	rows, err := r.db.Query(
		`SELECT id, start_time, end_time, total_notes, unique_notes, avg_note_duration_ms, notes_per_minute
		 FROM sessions ORDER BY start_time DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		sess := &Session{}
		err := rows.Scan(&sess.ID, &sess.StartTime, &sess.EndTime, &sess.TotalNotes,
			&sess.UniqueNotes, &sess.AvgNoteMs, &sess.NotesPerMinute)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}

// Delete removes a session and, via cascade, its notes and metrics.
func (r *SessionRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
