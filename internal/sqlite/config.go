// Config key-value store and the append-only status ledger.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/stackingturtles/peregrin/pkg/types"
)

// Config returns a config value, or ErrNotFound.
func (s *Store) Config(name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready(); err != nil {
		return "", err
	}

	var value string
	err := s.tx.QueryRow("SELECT value FROM config WHERE name = ?", name).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", types.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("reading config %q: %w", name, err)
	}
	return value, nil
}

// SetConfig inserts or updates a config value and records the change in
// the status ledger. An unchanged value writes nothing and logs nothing.
// The write is committed immediately so other processes polling the flag
// see it.
func (s *Store) SetConfig(engineID, name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready(); err != nil {
		return err
	}
	if name == "" {
		return types.ErrInvalidName
	}

	actionID, err := s.addActionLocked("config")
	if err != nil {
		return err
	}

	var oldValue string
	err = s.tx.QueryRow("SELECT value FROM config WHERE name = ?", name).Scan(&oldValue)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if err := s.addStatusLocked(engineID, actionID,
			fmt.Sprintf("CONFIG NEW: %s = %s", name, value)); err != nil {
			return err
		}
		if _, err := s.tx.Exec(
			"INSERT INTO config (config_id, name, value, updated_at) VALUES (?, ?, ?, ?)",
			newID(), name, value, nowStamp(),
		); err != nil {
			return fmt.Errorf("inserting config %q: %w", name, err)
		}

	case err != nil:
		return fmt.Errorf("reading config %q: %w", name, err)

	case oldValue == value:
		// No change, no write, no status line.
		return nil

	default:
		if err := s.addStatusLocked(engineID, actionID,
			fmt.Sprintf("CONFIG CHANGE: %s: %s -> %s", name, oldValue, value)); err != nil {
			return err
		}
		if _, err := s.tx.Exec(
			"UPDATE config SET value = ?, updated_at = ? WHERE name = ?",
			value, nowStamp(), name,
		); err != nil {
			return fmt.Errorf("updating config %q: %w", name, err)
		}
	}

	return s.commitLocked()
}

// AddStatus appends one line to the audit trail.
func (s *Store) AddStatus(engineID, actionID, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready(); err != nil {
		return err
	}
	return s.addStatusLocked(engineID, actionID, message)
}

func (s *Store) addStatusLocked(engineID, actionID, message string) error {
	if _, err := s.tx.Exec(
		"INSERT INTO status (status_id, engine_id, action_id, message, created_at) VALUES (?, ?, ?, ?, ?)",
		newID(), engineID, actionID, message, nowStamp(),
	); err != nil {
		return fmt.Errorf("inserting status: %w", err)
	}
	return nil
}

// RecentStatus returns the newest status lines, newest first.
func (s *Store) RecentStatus(limit int) ([]types.Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 1000
	}

	rows, err := s.tx.Query(
		`SELECT status_id, engine_id, action_id, message, created_at
		 FROM status ORDER BY created_at DESC, status_id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying status: %w", err)
	}
	defer rows.Close()

	var lines []types.Status
	for rows.Next() {
		var st types.Status
		var createdAt string
		if err := rows.Scan(&st.StatusID, &st.EngineID, &st.ActionID, &st.Message, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning status: %w", err)
		}
		st.CreatedAt = parseTime(createdAt)
		lines = append(lines, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating status: %w", err)
	}
	if lines == nil {
		lines = []types.Status{}
	}
	return lines, nil
}
