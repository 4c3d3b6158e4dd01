package store

import "database/sql"

// migrate runs all database migrations
func migrate(db *sql.DB) error {
	migrations := []string{
		// Finished sessions handed over by the engine
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			strategy TEXT NOT NULL DEFAULT '',
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			paused_seconds REAL NOT NULL DEFAULT 0,
			distance_meters REAL NOT NULL DEFAULT 0,
			duration_seconds REAL NOT NULL DEFAULT 0,
			pace_seconds_per_km REAL NOT NULL DEFAULT 0,
			avg_speed_kph REAL NOT NULL DEFAULT 0,
			rep_count INTEGER NOT NULL DEFAULT 0,
			calories REAL NOT NULL DEFAULT 0,
			goal_id TEXT,
			goal_unit TEXT,
			goal_target REAL,
			goal_progress REAL,
			accepted_fixes INTEGER NOT NULL DEFAULT 0,
			rejected_fixes INTEGER NOT NULL DEFAULT 0,
			baseline_area REAL,
			down_threshold REAL,
			up_threshold REAL,
			created_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_sessions_started_at ON sessions(started_at)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_kind ON sessions(kind)`,

		// Smoothed trail of distance sessions
		`CREATE TABLE IF NOT EXISTS trail_points (
			session_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			lat REAL NOT NULL,
			lng REAL NOT NULL,
			accuracy REAL,
			speed REAL,
			recorded_at TEXT NOT NULL,
			PRIMARY KEY (session_id, seq),
			FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
		)`,

		// Personal bests per activity kind
		`CREATE TABLE IF NOT EXISTS personal_records (
			id INTEGER PRIMARY KEY,
			category TEXT NOT NULL UNIQUE,
			session_id TEXT NOT NULL,
			value REAL NOT NULL,
			achieved_at TEXT NOT NULL,
			FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
		)`,

		`CREATE INDEX IF NOT EXISTS idx_personal_records_session ON personal_records(session_id)`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}

	return nil
}
