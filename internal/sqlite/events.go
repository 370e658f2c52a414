// Event ledger: the per-(engine, action, item) completion records that
// double as the work queue.
package sqlite

import (
	"errors"
	"fmt"
	"time"

	"github.com/stackingturtles/peregrin/pkg/types"
)

// AddItemEvent schedules pending (engine, action, item) work.
func (s *Store) AddItemEvent(engineID, actionID, itemID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready(); err != nil {
		return "", err
	}
	return s.addItemEventLocked(engineID, actionID, itemID)
}

func (s *Store) addItemEventLocked(engineID, actionID, itemID string) (string, error) {
	if engineID == "" || actionID == "" || itemID == "" {
		return "", types.ErrInvalidID
	}

	id, err := s.scanID(
		"SELECT item_event_id FROM item_events WHERE engine_id = ? AND action_id = ? AND item_id = ?",
		engineID, actionID, itemID,
	)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, types.ErrNotFound) {
		return "", fmt.Errorf("looking up item event: %w", err)
	}

	id = newID()
	if _, err := s.tx.Exec(
		`INSERT INTO item_events (item_event_id, engine_id, action_id, item_id, added_at)
		 VALUES (?, ?, ?, ?, ?) ON CONFLICT(engine_id, action_id, item_id) DO NOTHING`,
		id, engineID, actionID, itemID, nowStamp(),
	); err != nil {
		return "", fmt.Errorf("inserting item event: %w", err)
	}

	id, err = s.scanID(
		"SELECT item_event_id FROM item_events WHERE engine_id = ? AND action_id = ? AND item_id = ?",
		engineID, actionID, itemID,
	)
	if err != nil {
		return "", fmt.Errorf("re-reading item event: %w", err)
	}
	return id, nil
}

// CompleteItem stamps the event's completion time. An event that was
// never scheduled is created with completion pre-set, so completions
// recorded out of band still land in the ledger.
func (s *Store) CompleteItem(engineID, itemID, actionID string, completed time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready(); err != nil {
		return err
	}
	if engineID == "" || actionID == "" || itemID == "" {
		return types.ErrInvalidID
	}

	_, err := s.scanID(
		"SELECT item_event_id FROM item_events WHERE engine_id = ? AND action_id = ? AND item_id = ?",
		engineID, actionID, itemID,
	)
	if errors.Is(err, types.ErrNotFound) {
		if _, err := s.tx.Exec(
			`INSERT INTO item_events (item_event_id, engine_id, action_id, item_id, added_at, completed_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			newID(), engineID, actionID, itemID, nowStamp(), formatTime(completed),
		); err != nil {
			return fmt.Errorf("inserting completed item event: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("looking up item event: %w", err)
	}

	if _, err := s.tx.Exec(
		`UPDATE item_events SET completed_at = ?
		 WHERE engine_id = ? AND item_id = ? AND action_id = ?`,
		formatTime(completed), engineID, itemID, actionID,
	); err != nil {
		return fmt.Errorf("completing item event: %w", err)
	}
	return nil
}

// PendingItems is the work-queue query.
//
// With findOthers false it returns items holding a pending event for this
// exact (engine, action) pair. With findOthers true it returns items that
// have an event for the action under any engine but no completed event
// under this engine — work other engines raised that this one has not
// finished. monthsBack (negative) bounds the event add time to a trailing
// window relative to now.
func (s *Store) PendingItems(engineID, actionName string, findOthers bool, monthsBack int) ([]types.WorkItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready(); err != nil {
		return nil, err
	}

	actionID, err := s.addActionLocked(actionName)
	if err != nil {
		return nil, err
	}

	cutoff := time.Now().UTC().AddDate(0, monthsBack, 0).Format(timeFormat)

	var query string
	var args []any
	if findOthers {
		query = `SELECT i.item_id, i.uri
			FROM items i
			INNER JOIN item_events e ON i.item_id = e.item_id AND e.action_id = ?
			WHERE i.item_id NOT IN (
				SELECT ie.item_id FROM item_events ie
				WHERE ie.completed_at IS NOT NULL
				  AND ie.action_id = ?
				  AND ie.engine_id = ?
			)
			AND e.added_at >= ?
			GROUP BY i.item_id, i.uri
			ORDER BY MIN(e.added_at), i.item_id`
		args = []any{actionID, actionID, engineID, cutoff}
	} else {
		query = `SELECT i.item_id, i.uri
			FROM items i
			INNER JOIN item_events e ON i.item_id = e.item_id
				AND e.action_id = ? AND e.engine_id = ?
			WHERE e.added_at >= ?
			  AND e.completed_at IS NULL
			ORDER BY e.added_at, e.item_event_id`
		args = []any{actionID, engineID, cutoff}
	}

	rows, err := s.tx.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying pending items for %s: %w", actionName, err)
	}
	defer rows.Close()

	var items []types.WorkItem
	for rows.Next() {
		var w types.WorkItem
		if err := rows.Scan(&w.ItemID, &w.URI); err != nil {
			return nil, fmt.Errorf("scanning work item: %w", err)
		}
		items = append(items, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating work items: %w", err)
	}
	if items == nil {
		items = []types.WorkItem{}
	}
	return items, nil
}
