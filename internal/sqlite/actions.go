// Action get-or-create.
package sqlite

import (
	"errors"
	"fmt"

	"github.com/stackingturtles/peregrin/pkg/types"
)

// AddAction resolves or creates an action by name.
func (s *Store) AddAction(name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addActionLocked(name)
}

func (s *Store) addActionLocked(name string) (string, error) {
	if err := s.ready(); err != nil {
		return "", err
	}
	if name == "" {
		return "", types.ErrInvalidName
	}

	id, err := s.scanID("SELECT action_id FROM actions WHERE name = ?", name)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, types.ErrNotFound) {
		return "", fmt.Errorf("looking up action %q: %w", name, err)
	}

	id = newID()
	if _, err := s.tx.Exec(
		"INSERT INTO actions (action_id, name) VALUES (?, ?) ON CONFLICT(name) DO NOTHING",
		id, name,
	); err != nil {
		return "", fmt.Errorf("inserting action %q: %w", name, err)
	}

	// Re-read for the canonical ID in case the insert hit the conflict arm.
	id, err = s.scanID("SELECT action_id FROM actions WHERE name = ?", name)
	if err != nil {
		return "", fmt.Errorf("re-reading action %q: %w", name, err)
	}
	return id, nil
}
