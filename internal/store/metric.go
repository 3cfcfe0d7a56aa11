package store

import (
	"database/sql"
	"time"
)

// Metric types recorded at session close.
const (
	MetricDeadlineMisses = "deadline_misses"
	MetricMIDIDropped    = "midi_dropped"
	MetricFramesDropped  = "frames_dropped"
)

// Metric is one engine diagnostic value tied to a session.
type Metric struct {
	ID         int64
	SessionID  string
	Type       string
	Value      float64
	RecordedAt time.Time
}

// MetricRepository provides persistence for session diagnostics.
type MetricRepository struct {
	db *sql.DB
}

// Metrics returns the metric repository for this store.
func (s *Store) Metrics() *MetricRepository {
	return &MetricRepository{db: s.db}
}

// Record inserts a metric value for a session.
func (r *MetricRepository) Record(sessionID, metricType string, value float64) error {
	_, err := r.db.Exec(
		`INSERT INTO metrics (session_id, metric_type, value, recorded_at) VALUES (?, ?, ?, ?)`,
		sessionID, metricType, value, time.Now().UTC(),
	)
	return err
}

// BySession retrieves all metrics of a session.
func (r *MetricRepository) BySession(sessionID string) ([]*Metric, error) {
	rows, err := r.db.Query(
		`SELECT id, session_id, metric_type, value, recorded_at
		 FROM metrics WHERE session_id = ? ORDER BY id ASC`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var metrics []*Metric
	for rows.Next() {
		m := &Metric{}
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Type, &m.Value, &m.RecordedAt); err != nil {
			return nil, err
		}
		metrics = append(metrics, m)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return metrics, nil
}
