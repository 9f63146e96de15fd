package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// References table - one row per named reference pose or sequence
		`CREATE TABLE IF NOT EXISTS refs (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			kind TEXT NOT NULL CHECK(kind IN ('hand', 'body')),
			fps REAL NOT NULL DEFAULT 0,
			frames INTEGER NOT NULL DEFAULT 0,
			samples INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Reference points table - landmark positions of every reference frame
		`CREATE TABLE IF NOT EXISTS ref_points (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			ref_id TEXT NOT NULL REFERENCES refs(id) ON DELETE CASCADE,
			frame_index INTEGER NOT NULL,
			landmark_index INTEGER NOT NULL,
			x REAL NOT NULL,
			y REAL NOT NULL,
			confidence REAL
		)`,

		// Reference samples table - raw recordings a reference was averaged from
		`CREATE TABLE IF NOT EXISTS ref_samples (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			ref_id TEXT NOT NULL REFERENCES refs(id) ON DELETE CASCADE,
			sample_index INTEGER NOT NULL,
			data TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_ref_points_ref_id ON ref_points(ref_id, frame_index)`,
		`CREATE INDEX IF NOT EXISTS idx_ref_samples_ref_id ON ref_samples(ref_id)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
