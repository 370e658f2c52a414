// Engine registration and engine-action declarations, with the disabled
// gates the batch driver consults before invoking handlers.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/stackingturtles/peregrin/pkg/types"
)

// AddEngine registers an engine by (name, version) and returns its ID.
func (s *Store) AddEngine(name, version, descr string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready(); err != nil {
		return "", err
	}
	if name == "" {
		return "", types.ErrInvalidName
	}

	id, err := s.scanID(
		"SELECT engine_id FROM engines WHERE name = ? AND version = ?",
		name, version,
	)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, types.ErrNotFound) {
		return "", fmt.Errorf("looking up engine %s/%s: %w", name, version, err)
	}

	id = newID()
	if _, err := s.tx.Exec(
		`INSERT INTO engines (engine_id, name, version, description, created_at)
		 VALUES (?, ?, ?, ?, ?) ON CONFLICT(name, version) DO NOTHING`,
		id, name, version, descr, nowStamp(),
	); err != nil {
		return "", fmt.Errorf("inserting engine %s/%s: %w", name, version, err)
	}

	id, err = s.scanID(
		"SELECT engine_id FROM engines WHERE name = ? AND version = ?",
		name, version,
	)
	if err != nil {
		return "", fmt.Errorf("re-reading engine %s/%s: %w", name, version, err)
	}
	return id, nil
}

// EngineDisabled reports the engine's disabled flag. Returns ErrNotFound
// for an unknown engine; the caller chooses the fail-safe default.
func (s *Store) EngineDisabled(engineID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready(); err != nil {
		return false, err
	}

	var disabled bool
	err := s.tx.QueryRow(
		"SELECT disabled FROM engines WHERE engine_id = ?", engineID,
	).Scan(&disabled)
	if errors.Is(err, sql.ErrNoRows) {
		return false, types.ErrNotFound
	}
	if err != nil {
		return false, fmt.Errorf("reading engine %s disabled flag: %w", engineID, err)
	}
	return disabled, nil
}

// SetEngineDisabled flips an engine's disabled gate.
func (s *Store) SetEngineDisabled(engineID string, disabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready(); err != nil {
		return err
	}

	res, err := s.tx.Exec(
		"UPDATE engines SET disabled = ? WHERE engine_id = ?", disabled, engineID,
	)
	if err != nil {
		return fmt.Errorf("updating engine %s disabled flag: %w", engineID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return types.ErrNotFound
	}
	return nil
}

// AddEngineAction declares that engineID supports actionName via the named
// handler function.
func (s *Store) AddEngineAction(engineID, actionName, handler, params string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready(); err != nil {
		return "", err
	}
	if handler == "" {
		return "", types.ErrInvalidName
	}

	actionID, err := s.addActionLocked(actionName)
	if err != nil {
		return "", err
	}

	id, err := s.scanID(
		"SELECT engine_action_id FROM engine_actions WHERE engine_id = ? AND action_id = ? AND handler = ?",
		engineID, actionID, handler,
	)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, types.ErrNotFound) {
		return "", fmt.Errorf("looking up engine action %s.%s: %w", engineID, actionName, err)
	}

	id = newID()
	if _, err := s.tx.Exec(
		`INSERT INTO engine_actions (engine_action_id, engine_id, action_id, handler, params)
		 VALUES (?, ?, ?, ?, ?) ON CONFLICT(engine_id, action_id, handler) DO NOTHING`,
		id, engineID, actionID, handler, params,
	); err != nil {
		return "", fmt.Errorf("inserting engine action %s.%s: %w", engineID, actionName, err)
	}

	id, err = s.scanID(
		"SELECT engine_action_id FROM engine_actions WHERE engine_id = ? AND action_id = ? AND handler = ?",
		engineID, actionID, handler,
	)
	if err != nil {
		return "", fmt.Errorf("re-reading engine action %s.%s: %w", engineID, actionName, err)
	}
	return id, nil
}

// EngineActionDisabled reports the disabled flag of one engine-action
// declaration. Returns ErrNotFound when the declaration is absent.
func (s *Store) EngineActionDisabled(engineID, actionName, handler string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready(); err != nil {
		return false, err
	}

	actionID, err := s.addActionLocked(actionName)
	if err != nil {
		return false, err
	}

	var disabled bool
	err = s.tx.QueryRow(
		"SELECT disabled FROM engine_actions WHERE engine_id = ? AND action_id = ? AND handler = ?",
		engineID, actionID, handler,
	).Scan(&disabled)
	if errors.Is(err, sql.ErrNoRows) {
		return false, types.ErrNotFound
	}
	if err != nil {
		return false, fmt.Errorf("reading engine action %s.%s disabled flag: %w", engineID, actionName, err)
	}
	return disabled, nil
}

// SetEngineActionDisabled flips one declaration's disabled gate.
func (s *Store) SetEngineActionDisabled(engineID, actionName, handler string, disabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready(); err != nil {
		return err
	}

	actionID, err := s.addActionLocked(actionName)
	if err != nil {
		return err
	}

	res, err := s.tx.Exec(
		"UPDATE engine_actions SET disabled = ? WHERE engine_id = ? AND action_id = ? AND handler = ?",
		disabled, engineID, actionID, handler,
	)
	if err != nil {
		return fmt.Errorf("updating engine action %s.%s disabled flag: %w", engineID, actionName, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return types.ErrNotFound
	}
	return nil
}

// EngineActions lists the enabled action declarations of an engine that
// still have pending events.
func (s *Store) EngineActions(engineID string) ([]types.EngineAction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready(); err != nil {
		return nil, err
	}

	rows, err := s.tx.Query(
		`SELECT ea.engine_action_id, ea.engine_id, ea.action_id, a.name, ea.handler, ea.params, ea.disabled
		 FROM engines e
		 INNER JOIN engine_actions ea ON e.engine_id = ea.engine_id
		 INNER JOIN actions a ON ea.action_id = a.action_id
		 INNER JOIN item_events ie ON e.engine_id = ie.engine_id AND a.action_id = ie.action_id
		 WHERE e.disabled = 0 AND ea.disabled = 0
		   AND ie.completed_at IS NULL
		   AND e.engine_id = ?
		 GROUP BY ea.engine_action_id, ea.engine_id, ea.action_id, a.name, ea.handler, ea.params, ea.disabled
		 ORDER BY a.name, ea.handler`,
		engineID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing engine actions for %s: %w", engineID, err)
	}
	defer rows.Close()

	var list []types.EngineAction
	for rows.Next() {
		var ea types.EngineAction
		if err := rows.Scan(&ea.EngineActionID, &ea.EngineID, &ea.ActionID, &ea.ActionName, &ea.Handler, &ea.Params, &ea.Disabled); err != nil {
			return nil, fmt.Errorf("scanning engine action: %w", err)
		}
		list = append(list, ea)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating engine actions: %w", err)
	}
	if list == nil {
		list = []types.EngineAction{}
	}
	return list, nil
}
