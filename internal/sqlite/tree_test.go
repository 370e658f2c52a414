package sqlite

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackingturtles/peregrin/pkg/types"
)

func TestItemTreeExcludesRoot(t *testing.T) {
	s := setupStore(t)

	engineID, err := s.AddEngine("Scanner", "1.0", "")
	require.NoError(t, err)

	a, err := s.AddItem(engineID, "folder:///data", time.Now())
	require.NoError(t, err)
	b, err := s.AddItem(engineID, "folder:///data/sub", time.Now())
	require.NoError(t, err)
	c, err := s.AddItem(engineID, "file:///data/sub/x.txt", time.Now())
	require.NoError(t, err)

	_, err = s.AddItemLink(engineID, a, b, types.LinkTypeContains)
	require.NoError(t, err)
	_, err = s.AddItemLink(engineID, b, c, types.LinkTypeContains)
	require.NoError(t, err)

	tree, err := s.ItemTree(engineID, a)
	require.NoError(t, err)

	assert.Len(t, tree, 2)
	assert.Contains(t, tree, "folder:///data/sub")
	assert.Contains(t, tree, "file:///data/sub/x.txt")
	assert.NotContains(t, tree, "folder:///data")
}

func TestItemTreeDescriptiveFields(t *testing.T) {
	s := setupStore(t)

	engineID, err := s.AddEngine("Scanner", "1.0", "")
	require.NoError(t, err)

	modified := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	root, err := s.AddItem(engineID, "folder:///data", time.Now())
	require.NoError(t, err)
	file, err := s.AddItem(engineID, "file:///data/x.txt", modified)
	require.NoError(t, err)
	folder, err := s.AddItem(engineID, "folder:///data/sub", time.Now())
	require.NoError(t, err)

	_, err = s.AddItemLink(engineID, root, file, types.LinkTypeContains)
	require.NoError(t, err)
	_, err = s.AddItemLink(engineID, root, folder, types.LinkTypeContains)
	require.NoError(t, err)

	_, err = s.AddItemData(file, "FileName", "x.txt", 0)
	require.NoError(t, err)
	_, err = s.AddItemData(file, "FileSize", "2048", 0)
	require.NoError(t, err)

	tree, err := s.ItemTree(engineID, root)
	require.NoError(t, err)

	fileNode := tree["file:///data/x.txt"]
	require.NotNil(t, fileNode.Name)
	assert.Equal(t, "x.txt", *fileNode.Name)
	require.NotNil(t, fileNode.Size)
	assert.Equal(t, "2048", *fileNode.Size)
	assert.True(t, fileNode.Modified.Equal(modified))

	// Folders carry no FileName/FileSize data: nil, not "NULL".
	folderNode := tree["folder:///data/sub"]
	assert.Nil(t, folderNode.Name)
	assert.Nil(t, folderNode.Size)
}

func TestItemTreeToleratesCycles(t *testing.T) {
	s := setupStore(t)

	engineID, err := s.AddEngine("Scraper", "1.0", "")
	require.NoError(t, err)

	a, err := s.AddItem(engineID, "https://example.com/a", time.Now())
	require.NoError(t, err)
	b, err := s.AddItem(engineID, "https://example.com/b", time.Now())
	require.NoError(t, err)

	_, err = s.AddItemLink(engineID, a, b, types.LinkTypeSearch)
	require.NoError(t, err)
	_, err = s.AddItemLink(engineID, b, a, types.LinkTypeSearch)
	require.NoError(t, err)

	tree, err := s.ItemTree(engineID, a)
	require.NoError(t, err)

	// Both nodes reachable; the cycle brings the root back in.
	assert.Len(t, tree, 2)
}

func TestItemTreeDiff(t *testing.T) {
	s := setupStore(t)

	engineID, err := s.AddEngine("Scanner", "1.0", "")
	require.NoError(t, err)

	a, err := s.AddItem(engineID, "folder:///data", time.Now())
	require.NoError(t, err)
	for _, uri := range []string{"file:///data/b", "file:///data/c"} {
		id, err := s.AddItem(engineID, uri, time.Now())
		require.NoError(t, err)
		_, err = s.AddItemLink(engineID, a, id, types.LinkTypeContains)
		require.NoError(t, err)
	}

	stored, err := s.ItemTree(engineID, a)
	require.NoError(t, err)

	// Live scan: c disappeared, d is new.
	live := map[string]struct{}{
		"file:///data/b": {},
		"file:///data/d": {},
	}

	var added, removed []string
	for uri := range live {
		if _, ok := stored[uri]; !ok {
			added = append(added, uri)
		}
	}
	for uri := range stored {
		if _, ok := live[uri]; !ok {
			removed = append(removed, uri)
		}
	}

	assert.Equal(t, []string{"file:///data/d"}, added)
	assert.Equal(t, []string{"file:///data/c"}, removed)
}

func TestItemChildrenAntiJoin(t *testing.T) {
	s := setupStore(t)

	engineID, err := s.AddEngine("Scraper", "1.0", "")
	require.NoError(t, err)

	root, err := s.AddItem(engineID, "keyword://companies", time.Now())
	require.NoError(t, err)

	// Two flagged companies; only one is linked under the root.
	linked, err := s.AddItem(engineID, "https://example.com/acme", time.Now())
	require.NoError(t, err)
	_, err = s.AddItemData(linked, "companyName", "Acme", 0)
	require.NoError(t, err)
	_, err = s.AddItemLink(engineID, root, linked, types.LinkTypeContains)
	require.NoError(t, err)

	unlinked, err := s.AddItem(engineID, "https://example.com/globex", time.Now())
	require.NoError(t, err)
	_, err = s.AddItemData(unlinked, "companyName", "Globex", 0)
	require.NoError(t, err)

	values, err := s.ItemChildren(root, "companyName", types.LinkTypeContains)
	require.NoError(t, err)
	assert.Equal(t, []string{"Globex"}, values)
}
