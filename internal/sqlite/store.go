// Package sqlite implements the SQLite storage backend for the Peregrin
// item/event graph store.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/stackingturtles/peregrin/pkg/types"
)

// DBFileName is the database file created inside Config.DataDir.
const DBFileName = "peregrin.db"

// timeFormat stores UTC timestamps with fixed-width fractional seconds so
// that lexicographic order matches time order.
const timeFormat = "2006-01-02T15:04:05.000000000Z"

var _ types.Store = (*Store)(nil)

// Store implements types.Store on a single SQLite database. All writes go
// through one open transaction; Commit flushes it and begins the next.
// Multiple engine processes may share the database file; writers serialize
// on the SQLite write lock (WAL mode, busy_timeout set at open).
type Store struct {
	mu sync.Mutex
	db *sql.DB
	tx *sql.Tx
}

// Open creates the data directory if needed, initializes the schema, and
// begins the first transaction.
func Open(config types.Config) (*Store, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(config.DataDir, 0o755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(config.DataDir, DBFileName)
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", dbPath, err)
	}
	// A held write transaction does not mix with connection pooling.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA busy_timeout = 5000;",
		"PRAGMA foreign_keys = ON;",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying pragma: %w", err)
		}
	}

	for _, ddl := range schemaDDL {
		if _, err := db.Exec(ddl); err != nil {
			db.Close()
			return nil, fmt.Errorf("initializing schema: %w", err)
		}
	}
	for _, ddl := range indexDDL {
		if _, err := db.Exec(ddl); err != nil {
			db.Close()
			return nil, fmt.Errorf("initializing indexes: %w", err)
		}
	}

	tx, err := db.Begin()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}

	return &Store{db: db, tx: tx}, nil
}

// Commit flushes the open transaction and starts a new one.
func (s *Store) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commitLocked()
}

func (s *Store) commitLocked() error {
	if s.db == nil {
		return types.ErrStoreClosed
	}
	if err := s.tx.Commit(); err != nil {
		return fmt.Errorf("committing: %w", err)
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	s.tx = tx
	return nil
}

// Close commits outstanding writes and releases the database. Idempotent.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	if err := s.tx.Commit(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		s.db.Close()
		s.db = nil
		return fmt.Errorf("committing on close: %w", err)
	}
	err := s.db.Close()
	s.db = nil
	s.tx = nil
	if err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	return nil
}

// ready reports whether the store can serve calls. Callers hold s.mu.
func (s *Store) ready() error {
	if s.db == nil {
		return types.ErrStoreClosed
	}
	return nil
}

// newID generates a UUID v7 row ID, falling back to v4 if v7 generation
// fails.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// nowStamp formats the current UTC time for storage.
func nowStamp() string {
	return time.Now().UTC().Format(timeFormat)
}

// formatTime formats a caller-supplied time for storage.
func formatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

// parseTime reads a stored timestamp back. Zero time on malformed input;
// stored values are always written by formatTime.
func parseTime(s string) time.Time {
	t, err := time.Parse(timeFormat, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// scanID runs a single-ID lookup inside the open transaction, mapping
// sql.ErrNoRows to types.ErrNotFound.
func (s *Store) scanID(query string, args ...any) (string, error) {
	var id string
	err := s.tx.QueryRow(query, args...).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", types.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return id, nil
}

// scanValues collects a single-column result set into a string slice.
func (s *Store) scanValues(query string, args ...any) ([]string, error) {
	rows, err := s.tx.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if values == nil {
		values = []string{}
	}
	return values, nil
}
