// Package counter counts site visits: a SQLite-backed store, the HTTP
// handler that exposes it, and a client for a counter hosted elsewhere.
package counter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SiteCounter is the id of the whole-site visit counter.
const SiteCounter = "website-views"

// Store wraps a SQLite database holding named counters.
type Store struct {
	db *sql.DB
	id string
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and creates the schema. Increment on the returned store
// targets SiteCounter.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	// Pragmas must be in the DSN to apply to every pooled connection.
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open counter db: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db, id: SiteCounter}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS counters (
    id TEXT PRIMARY KEY,
    count INTEGER NOT NULL DEFAULT 0,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`)
	return err
}

// Increment bumps the site counter and returns the new value.
func (s *Store) Increment(ctx context.Context) (int64, error) {
	return s.Add(ctx, s.id)
}

// Add atomically increments counter id, creating it at 1 when missing, and
// returns the new value.
func (s *Store) Add(ctx context.Context, id string) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `
INSERT INTO counters (id, count, updated_at) VALUES (?, 1, CURRENT_TIMESTAMP)
ON CONFLICT(id) DO UPDATE SET count = count + 1, updated_at = CURRENT_TIMESTAMP
RETURNING count`, id).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("increment %s: %w", id, err)
	}
	return n, nil
}

// Count returns the current value of counter id, 0 when it was never
// incremented.
func (s *Store) Count(ctx context.Context, id string) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT count FROM counters WHERE id = ?`, id).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return n, nil
}
