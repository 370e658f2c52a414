// ItemData attribute bag: keyed, sequenced values attached to items.
package sqlite

import (
	"errors"
	"fmt"

	"github.com/stackingturtles/peregrin/pkg/types"
)

// AddItemData gets or creates the (itemID, key, seq) attribute. An
// existing row keeps its value; overwriting is not part of normal flow.
func (s *Store) AddItemData(itemID, key, value string, seq int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready(); err != nil {
		return "", err
	}
	if itemID == "" {
		return "", types.ErrInvalidID
	}
	if key == "" {
		return "", types.ErrInvalidName
	}

	id, err := s.scanID(
		"SELECT item_data_id FROM item_data WHERE item_id = ? AND data_key = ? AND seq = ?",
		itemID, key, seq,
	)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, types.ErrNotFound) {
		return "", fmt.Errorf("looking up item data %s[%s#%d]: %w", itemID, key, seq, err)
	}

	id = newID()
	if _, err := s.tx.Exec(
		`INSERT INTO item_data (item_data_id, item_id, data_key, value, seq, added_at)
		 VALUES (?, ?, ?, ?, ?, ?) ON CONFLICT(item_id, data_key, seq) DO NOTHING`,
		id, itemID, key, value, seq, nowStamp(),
	); err != nil {
		return "", fmt.Errorf("inserting item data %s[%s#%d]: %w", itemID, key, seq, err)
	}

	id, err = s.scanID(
		"SELECT item_data_id FROM item_data WHERE item_id = ? AND data_key = ? AND seq = ?",
		itemID, key, seq,
	)
	if err != nil {
		return "", fmt.Errorf("re-reading item data %s[%s#%d]: %w", itemID, key, seq, err)
	}
	return id, nil
}

// ItemByData returns the ID of the item holding the given key at the
// given sequence, or ErrNotFound. With multiple holders the first by
// insertion order wins.
func (s *Store) ItemByData(key string, seq int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready(); err != nil {
		return "", err
	}

	id, err := s.scanID(
		"SELECT item_id FROM item_data WHERE data_key = ? AND seq = ? ORDER BY added_at, item_data_id LIMIT 1",
		key, seq,
	)
	if errors.Is(err, types.ErrNotFound) {
		return "", types.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("looking up item by data %s#%d: %w", key, seq, err)
	}
	return id, nil
}

// ItemDataList returns all values of key on one item, ordered by value.
func (s *Store) ItemDataList(itemID, key string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready(); err != nil {
		return nil, err
	}

	values, err := s.scanValues(
		"SELECT value FROM item_data WHERE item_id = ? AND data_key = ? ORDER BY value",
		itemID, key,
	)
	if err != nil {
		return nil, fmt.Errorf("listing item data %s[%s]: %w", itemID, key, err)
	}
	return values, nil
}

// ItemDataValues returns the distinct values of key across all items.
func (s *Store) ItemDataValues(key string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready(); err != nil {
		return nil, err
	}

	values, err := s.scanValues(
		"SELECT value FROM item_data WHERE data_key = ? GROUP BY value ORDER BY value",
		key,
	)
	if err != nil {
		return nil, fmt.Errorf("listing values of data key %s: %w", key, err)
	}
	return values, nil
}

// ItemDataAll returns every (key, value) attribute of an item in
// insertion order.
func (s *Store) ItemDataAll(itemID string) ([]types.ItemDatum, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready(); err != nil {
		return nil, err
	}

	rows, err := s.tx.Query(
		`SELECT item_data_id, item_id, data_key, value, seq, added_at
		 FROM item_data WHERE item_id = ? ORDER BY added_at, item_data_id`,
		itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing item data for %s: %w", itemID, err)
	}
	defer rows.Close()

	var data []types.ItemDatum
	for rows.Next() {
		var d types.ItemDatum
		var addedAt string
		if err := rows.Scan(&d.ItemDataID, &d.ItemID, &d.Key, &d.Value, &d.Seq, &addedAt); err != nil {
			return nil, fmt.Errorf("scanning item data: %w", err)
		}
		d.AddedAt = parseTime(addedAt)
		data = append(data, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating item data: %w", err)
	}
	if data == nil {
		data = []types.ItemDatum{}
	}
	return data, nil
}
