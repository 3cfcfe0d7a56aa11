package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Sessions table - one row per practice session
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			start_time DATETIME NOT NULL,
			end_time DATETIME,
			total_notes INTEGER NOT NULL DEFAULT 0,
			unique_notes INTEGER NOT NULL DEFAULT 0,
			avg_note_duration_ms REAL,
			notes_per_minute REAL
		)`,

		// Notes table - every note event played during a session
		`CREATE TABLE IF NOT EXISTS notes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			timestamp DATETIME NOT NULL,
			midi_note INTEGER NOT NULL,
			note_name TEXT NOT NULL,
			string_played TEXT NOT NULL,
			position INTEGER NOT NULL,
			finger_count INTEGER NOT NULL,
			pitch_offset INTEGER NOT NULL DEFAULT 0,
			duration_ms INTEGER,
			velocity INTEGER NOT NULL DEFAULT 100
		)`,

		// Metrics table - engine diagnostics recorded at session close
		`CREATE TABLE IF NOT EXISTS metrics (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			metric_type TEXT NOT NULL,
			value REAL NOT NULL,
			recorded_at DATETIME NOT NULL
		)`,

		// Calibration profiles table - saved left-hand position boundaries
		`CREATE TABLE IF NOT EXISTS calibration_profiles (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			created_at DATETIME NOT NULL,
			is_active INTEGER NOT NULL DEFAULT 0,
			low_bound REAL NOT NULL,
			mid_bound REAL NOT NULL,
			high_bound REAL NOT NULL
		)`,

		// Indexes for better query performance
		`CREATE INDEX IF NOT EXISTS idx_notes_session_id ON notes(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_metrics_session_id ON metrics(session_id)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
