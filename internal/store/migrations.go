package store

import (
	"fmt"
)

func (s *Store) migrate() error {
	if err := s.migrateV1(); err != nil {
		return err
	}
	return s.migrateV2()
}

func (s *Store) migrateV1() error {
	schema := `
	CREATE TABLE IF NOT EXISTS structures (
		id         TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL,
		name       TEXT NOT NULL,
		levels     TEXT NOT NULL DEFAULT '[]',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_structures_user ON structures(user_id, created_at);

	CREATE TABLE IF NOT EXISTS habits (
		id              TEXT PRIMARY KEY,
		user_id         TEXT NOT NULL,
		structure_id    TEXT REFERENCES structures(id) ON DELETE SET NULL,
		name            TEXT NOT NULL,
		description     TEXT NOT NULL DEFAULT '',
		completed_dates TEXT NOT NULL DEFAULT '[]',
		created_at      INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_habits_user ON habits(user_id, created_at);

	CREATE TABLE IF NOT EXISTS goals (
		id               TEXT PRIMARY KEY,
		user_id          TEXT NOT NULL,
		structure_id     TEXT REFERENCES structures(id) ON DELETE SET NULL,
		title            TEXT NOT NULL,
		status           TEXT NOT NULL DEFAULT 'Active',
		progress_percent REAL NOT NULL DEFAULT 0,
		created_at       INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_goals_user ON goals(user_id, created_at);

	CREATE TABLE IF NOT EXISTS events (
		id           TEXT PRIMARY KEY,
		user_id      TEXT NOT NULL,
		structure_id TEXT REFERENCES structures(id) ON DELETE SET NULL,
		title        TEXT NOT NULL,
		start_at     INTEGER NOT NULL,
		end_at       INTEGER NOT NULL,
		all_day      INTEGER NOT NULL DEFAULT 0,
		type         TEXT NOT NULL DEFAULT 'event',
		created_at   INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_user_start ON events(user_id, start_at);

	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	INSERT OR IGNORE INTO meta(key, value) VALUES ('schema_version', '1');
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to execute migration v1: %w", err)
	}

	return nil
}

func (s *Store) migrateV2() error {
	var version string
	err := s.db.QueryRow(`SELECT value FROM meta WHERE key = 'schema_version'`).Scan(&version)
	if err != nil || version >= "2" {
		return nil
	}

	schema := `
	CREATE TABLE IF NOT EXISTS notes (
		id           TEXT PRIMARY KEY,
		user_id      TEXT NOT NULL,
		structure_id TEXT REFERENCES structures(id) ON DELETE SET NULL,
		title        TEXT NOT NULL,
		content      TEXT NOT NULL DEFAULT '',
		created_at   INTEGER NOT NULL,
		updated_at   INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_notes_user ON notes(user_id, updated_at);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to execute migration v2: %w", err)
	}

	if _, err := s.db.Exec(`INSERT OR REPLACE INTO meta(key, value) VALUES ('schema_version', '2')`); err != nil {
		return fmt.Errorf("failed to update schema version: %w", err)
	}

	return nil
}

// SchemaVersion returns the recorded schema version.
func (s *Store) SchemaVersion() (string, error) {
	var version string
	if err := s.db.QueryRow(`SELECT value FROM meta WHERE key = 'schema_version'`).Scan(&version); err != nil {
		return "", fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}
