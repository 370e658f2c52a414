// Link types, item links, and the unlinked-children anti-join.
package sqlite

import (
	"errors"
	"fmt"

	"github.com/stackingturtles/peregrin/pkg/types"
)

// AddLinkType resolves or creates a link type by name.
func (s *Store) AddLinkType(name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready(); err != nil {
		return "", err
	}
	return s.addLinkTypeLocked(name)
}

func (s *Store) addLinkTypeLocked(name string) (string, error) {
	if name == "" {
		return "", types.ErrInvalidName
	}

	id, err := s.scanID("SELECT link_type_id FROM link_types WHERE name = ?", name)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, types.ErrNotFound) {
		return "", fmt.Errorf("looking up link type %q: %w", name, err)
	}

	id = newID()
	if _, err := s.tx.Exec(
		"INSERT INTO link_types (link_type_id, name) VALUES (?, ?) ON CONFLICT(name) DO NOTHING",
		id, name,
	); err != nil {
		return "", fmt.Errorf("inserting link type %q: %w", name, err)
	}

	id, err = s.scanID("SELECT link_type_id FROM link_types WHERE name = ?", name)
	if err != nil {
		return "", fmt.Errorf("re-reading link type %q: %w", name, err)
	}
	return id, nil
}

// AddItemLink gets or creates the directed (left, right, linkType) edge,
// resolving the link type by name.
func (s *Store) AddItemLink(engineID, leftID, rightID, linkType string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready(); err != nil {
		return "", err
	}
	if leftID == "" || rightID == "" {
		return "", types.ErrInvalidID
	}

	linkTypeID, err := s.addLinkTypeLocked(linkType)
	if err != nil {
		return "", err
	}

	id, err := s.scanID(
		"SELECT item_link_id FROM item_links WHERE left_id = ? AND right_id = ? AND link_type_id = ?",
		leftID, rightID, linkTypeID,
	)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, types.ErrNotFound) {
		return "", fmt.Errorf("looking up item link: %w", err)
	}

	id = newID()
	if _, err := s.tx.Exec(
		`INSERT INTO item_links (item_link_id, engine_id, left_id, right_id, link_type_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?) ON CONFLICT(left_id, right_id, link_type_id) DO NOTHING`,
		id, engineID, leftID, rightID, linkTypeID, nowStamp(),
	); err != nil {
		return "", fmt.Errorf("inserting item link: %w", err)
	}

	id, err = s.scanID(
		"SELECT item_link_id FROM item_links WHERE left_id = ? AND right_id = ? AND link_type_id = ?",
		leftID, rightID, linkTypeID,
	)
	if err != nil {
		return "", fmt.Errorf("re-reading item link: %w", err)
	}
	return id, nil
}

// ItemChildren returns values of dataKey held by items that are not yet
// linked as a child of rootID under linkType. Engines use this to find
// resources flagged in item data that still need resolving into the graph.
func (s *Store) ItemChildren(rootID, dataKey, linkType string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready(); err != nil {
		return nil, err
	}

	linkTypeID, err := s.addLinkTypeLocked(linkType)
	if err != nil {
		return nil, err
	}

	values, err := s.scanValues(
		`SELECT d.value
		 FROM item_data d
		 WHERE d.data_key = ?
		   AND d.value NOT IN (
			SELECT d2.value
			FROM item_links l
			INNER JOIN items i ON l.right_id = i.item_id
			INNER JOIN item_data d2 ON i.item_id = d2.item_id AND d2.data_key = ?
			WHERE l.left_id = ? AND l.link_type_id = ?
			GROUP BY d2.value
		   )
		 GROUP BY d.value
		 ORDER BY d.value`,
		dataKey, dataKey, rootID, linkTypeID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying unlinked children of %s: %w", rootID, err)
	}
	return values, nil
}
