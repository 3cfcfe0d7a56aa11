package store

import (
	"database/sql"
	"time"
)

// Note represents one played note within a session.
type Note struct {
	ID          int64
	SessionID   string
	Timestamp   time.Time
	MIDINote    int
	NoteName    string
	String      string // violin letter: E, A, D, G
	Position    int
	FingerCount int
	PitchOffset int
	DurationMs  sql.NullInt64
	Velocity    int
}

// NoteRepository provides persistence for played notes.
type NoteRepository struct {
	db *sql.DB
}

// Notes returns the note repository for this store.
func (s *Store) Notes() *NoteRepository {
	return &NoteRepository{db: s.db}
}

// Create inserts a note row and fills in its generated ID.
func (r *NoteRepository) Create(n *Note) error {
	result, err := r.db.Exec(
		`INSERT INTO notes (session_id, timestamp, midi_note, note_name, string_played,
		                    position, finger_count, pitch_offset, duration_ms, velocity)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.SessionID, n.Timestamp, n.MIDINote, n.NoteName, n.String,
		n.Position, n.FingerCount, n.PitchOffset, n.DurationMs, n.Velocity,
	)
	if err != nil {
		return err
	}

	n.ID, err = result.LastInsertId()
	return err
}

// BySession retrieves all notes of a session in playing order.
func (r *NoteRepository) BySession(sessionID string) ([]*Note, error) {
	rows, err := r.db.Query(
		`SELECT id, session_id, timestamp, midi_note, note_name, string_played,
		        position, finger_count, pitch_offset, duration_ms, velocity
		 FROM notes WHERE session_id = ? ORDER BY timestamp ASC, id ASC`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notes []*Note
	for rows.Next() {
		n := &Note{}
		err := rows.Scan(&n.ID, &n.SessionID, &n.Timestamp, &n.MIDINote, &n.NoteName,
			&n.String, &n.Position, &n.FingerCount, &n.PitchOffset, &n.DurationMs, &n.Velocity)
		if err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return notes, nil
}

// CountBySession returns total and distinct note counts for a session.
func (r *NoteRepository) CountBySession(sessionID string) (total, unique int, err error) {
	err = r.db.QueryRow(
		`SELECT COUNT(*), COUNT(DISTINCT midi_note) FROM notes WHERE session_id = ?`,
		sessionID,
	).Scan(&total, &unique)
	return total, unique, err
}
