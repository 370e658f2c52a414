// Item tree closure: the recursive descendant query engines diff against
// a live enumeration to find additions and removals without re-walking
// known subtrees.
package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/stackingturtles/peregrin/pkg/types"
)

// ItemTree returns the transitive closure of items reachable from rootID
// via links, keyed by URI. The root itself is excluded. Descriptive
// fields come from the item row and its FileName/FileSize data; absent
// values are nil.
//
// The closure follows links of every type and tolerates cycles.
func (s *Store) ItemTree(engineID, rootID string) (map[string]types.TreeNode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready(); err != nil {
		return nil, err
	}
	if rootID == "" {
		return nil, types.ErrInvalidID
	}

	rows, err := s.tx.Query(
		`WITH RECURSIVE descendants(item_id) AS (
			SELECT l.right_id FROM item_links l WHERE l.left_id = ?
			UNION
			SELECT l.right_id
			FROM item_links l
			INNER JOIN descendants d ON l.left_id = d.item_id
		)
		SELECT i.item_id, i.uri, i.item_dts, fn.value, fs.value
		FROM descendants d
		INNER JOIN items i ON i.item_id = d.item_id
		LEFT JOIN item_data fn ON fn.item_id = i.item_id AND fn.data_key = 'FileName' AND fn.seq = 0
		LEFT JOIN item_data fs ON fs.item_id = i.item_id AND fs.data_key = 'FileSize' AND fs.seq = 0`,
		rootID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying item tree of %s: %w", rootID, err)
	}
	defer rows.Close()

	tree := make(map[string]types.TreeNode)
	for rows.Next() {
		var node types.TreeNode
		var uri, dts string
		var name, size sql.NullString
		if err := rows.Scan(&node.ItemID, &uri, &dts, &name, &size); err != nil {
			return nil, fmt.Errorf("scanning tree node: %w", err)
		}
		node.Modified = parseTime(dts)
		if name.Valid {
			node.Name = &name.String
		}
		if size.Valid {
			node.Size = &size.String
		}
		tree[uri] = node
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tree nodes: %w", err)
	}
	return tree, nil
}
