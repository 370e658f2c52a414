// Item get-or-create and the tag-group event linking that distinguishes
// AddItem from AddNewItem.
package sqlite

import (
	"errors"
	"fmt"
	"time"

	"github.com/stackingturtles/peregrin/pkg/types"
)

// AddItem gets or creates the item by URI, then creates a pending event
// for every tag in every tag group. Tag linking is re-applied even when
// the item already existed.
func (s *Store) AddItem(engineID, uri string, itemDate time.Time, tagGroups ...[]string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	itemID, _, err := s.addItemLocked(engineID, uri, itemDate)
	if err != nil {
		return "", err
	}
	if err := s.applyTagGroupsLocked(engineID, itemID, tagGroups); err != nil {
		return "", err
	}
	return itemID, nil
}

// AddNewItem is AddItem except that tag linking is skipped entirely when
// the item pre-exists.
func (s *Store) AddNewItem(engineID, uri string, itemDate time.Time, tagGroups ...[]string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	itemID, created, err := s.addItemLocked(engineID, uri, itemDate)
	if err != nil {
		return "", err
	}
	if !created {
		return itemID, nil
	}
	if err := s.applyTagGroupsLocked(engineID, itemID, tagGroups); err != nil {
		return "", err
	}
	return itemID, nil
}

// addItemLocked gets or creates the item row, reporting whether it was
// newly created.
func (s *Store) addItemLocked(engineID, uri string, itemDate time.Time) (string, bool, error) {
	if err := s.ready(); err != nil {
		return "", false, err
	}
	if uri == "" {
		return "", false, types.ErrInvalidURI
	}

	id, err := s.scanID("SELECT item_id FROM items WHERE uri = ?", uri)
	if err == nil {
		return id, false, nil
	}
	if !errors.Is(err, types.ErrNotFound) {
		return "", false, fmt.Errorf("looking up item %q: %w", uri, err)
	}

	id = newID()
	if _, err := s.tx.Exec(
		`INSERT INTO items (item_id, uri, engine_id, item_dts, created_at)
		 VALUES (?, ?, ?, ?, ?) ON CONFLICT(uri) DO NOTHING`,
		id, uri, engineID, formatTime(itemDate), nowStamp(),
	); err != nil {
		return "", false, fmt.Errorf("inserting item %q: %w", uri, err)
	}

	canonical, err := s.scanID("SELECT item_id FROM items WHERE uri = ?", uri)
	if err != nil {
		return "", false, fmt.Errorf("re-reading item %q: %w", uri, err)
	}
	return canonical, canonical == id, nil
}

// applyTagGroupsLocked resolves every tag to an action and schedules a
// pending event for it on the item.
func (s *Store) applyTagGroupsLocked(engineID, itemID string, tagGroups [][]string) error {
	for _, group := range tagGroups {
		for _, tag := range group {
			actionID, err := s.addActionLocked(tag)
			if err != nil {
				return err
			}
			if _, err := s.addItemEventLocked(engineID, actionID, itemID); err != nil {
				return err
			}
		}
	}
	return nil
}

// ItemURI returns the URI of an item, or ErrNotFound.
func (s *Store) ItemURI(itemID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready(); err != nil {
		return "", err
	}
	if itemID == "" {
		return "", types.ErrInvalidID
	}

	uri, err := s.scanID("SELECT uri FROM items WHERE item_id = ?", itemID)
	if errors.Is(err, types.ErrNotFound) {
		return "", types.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("reading URI of item %s: %w", itemID, err)
	}
	return uri, nil
}
