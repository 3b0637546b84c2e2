package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	lerrors "github.com/p-blackswan/lifeos/internal/errors"
)

// Store manages the SQLite database
type Store struct {
	db     *sql.DB
	logger zerolog.Logger
	mu     sync.RWMutex
	now    func() time.Time
}

// New opens (or creates) the SQLite database and runs migrations.
func New(dbPath string, logger zerolog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{
		db:     db,
		logger: logger.With().Str("component", "store").Logger(),
		now:    time.Now,
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	s.logger.Info().Str("path", dbPath).Msg("Store initialized successfully")
	return s, nil
}

// dsn applies per-connection pragmas so every pooled connection enforces
// foreign keys, not just the one that ran the PRAGMA statements below.
func dsn(dbPath string) string {
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	return dbPath + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// SetClock overrides the clock used for created/updated timestamps.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Close closes the database connection
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable. Used by the readiness check.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// DB returns the underlying database connection (for testing)
func (s *Store) DB() *sql.DB {
	return s.db
}

// Counts is a per-table row count snapshot for the admin surface.
type Counts struct {
	Users      int `json:"users"`
	Structures int `json:"structures"`
	Habits     int `json:"habits"`
	Goals      int `json:"goals"`
	Events     int `json:"events"`
	Notes      int `json:"notes"`
}

// Counts returns row counts across all users.
func (s *Store) Counts(ctx context.Context) (Counts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var c Counts
	queries := []struct {
		dst   *int
		query string
	}{
		{&c.Structures, `SELECT COUNT(*) FROM structures`},
		{&c.Habits, `SELECT COUNT(*) FROM habits`},
		{&c.Goals, `SELECT COUNT(*) FROM goals`},
		{&c.Events, `SELECT COUNT(*) FROM events`},
		{&c.Notes, `SELECT COUNT(*) FROM notes`},
		{&c.Users, `SELECT COUNT(DISTINCT user_id) FROM (
			SELECT user_id FROM structures UNION SELECT user_id FROM habits
			UNION SELECT user_id FROM goals UNION SELECT user_id FROM events
			UNION SELECT user_id FROM notes)`},
	}
	for _, q := range queries {
		if err := s.db.QueryRowContext(ctx, q.query).Scan(q.dst); err != nil {
			return Counts{}, fmt.Errorf("failed to count rows: %w", err)
		}
	}
	return c, nil
}

func nullable(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, lerrors.ErrNotFound)
}

// checkAffected turns a zero-row update or delete into a not-found error.
func checkAffected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return notFound(kind, id)
	}
	return nil
}

// structureFilter appends an optional structure_id condition.
func structureFilter(query string, args []any, structureID string) (string, []any) {
	if structureID == "" {
		return query, args
	}
	return query + ` AND structure_id = ?`, append(args, structureID)
}
