package filescan_test

import (
	"crypto/md5"
	"encoding/hex"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackingturtles/peregrin/internal/driver"
	"github.com/stackingturtles/peregrin/internal/filescan"
	"github.com/stackingturtles/peregrin/internal/sqlite"
	"github.com/stackingturtles/peregrin/pkg/types"
)

func setupStore(t *testing.T) types.Store {
	t.Helper()

	store, err := sqlite.Open(types.Config{DataDir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})

	return store
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func md5Of(content string) string {
	sum := md5.Sum([]byte(content))
	return hex.EncodeToString(sum[:])
}

// rootTree reads the stored closure under the scan root of the given
// filesystem path.
func rootTree(t *testing.T, store types.Store, engineID, root string) map[string]types.TreeNode {
	t.Helper()
	rootID, err := store.AddItem(engineID, filescan.FolderScheme+root, time.Now())
	require.NoError(t, err)
	tree, err := store.ItemTree(engineID, rootID)
	require.NoError(t, err)
	return tree
}

func dataValue(t *testing.T, store types.Store, tree map[string]types.TreeNode, uri, key string) string {
	t.Helper()
	node, ok := tree[uri]
	require.True(t, ok, "item %s missing from stored tree", uri)
	values, err := store.ItemDataList(node.ItemID, key)
	require.NoError(t, err)
	require.Len(t, values, 1)
	return values[0]
}

func TestScanRecordsTreeAndChecksums(t *testing.T) {
	store := setupStore(t)
	root := t.TempDir()

	writeFile(t, filepath.Join(root, "alpha.txt"), "alpha body")
	writeFile(t, filepath.Join(root, "sub", "beta.txt"), "beta body")
	writeFile(t, filepath.Join(root, ".hidden", "gamma.txt"), "never seen")
	writeFile(t, filepath.Join(root, ".dotfile"), "never seen")

	scanner := filescan.New(store, discard(), root, []string{root})
	runner := driver.New(store, scanner, discard())
	require.NoError(t, runner.Run())

	tree := rootTree(t, store, runner.EngineID(), root)

	assert.Contains(t, tree, filescan.FileScheme+filepath.Join(root, "alpha.txt"))
	assert.Contains(t, tree, filescan.FolderScheme+filepath.Join(root, "sub"))
	assert.Contains(t, tree, filescan.FileScheme+filepath.Join(root, "sub", "beta.txt"))
	assert.NotContains(t, tree, filescan.FolderScheme+filepath.Join(root, ".hidden"))
	assert.NotContains(t, tree, filescan.FileScheme+filepath.Join(root, ".dotfile"))

	alpha := filescan.FileScheme + filepath.Join(root, "alpha.txt")
	assert.Equal(t, "alpha.txt", dataValue(t, store, tree, alpha, filescan.KeyFileName))
	assert.Equal(t, "10", dataValue(t, store, tree, alpha, filescan.KeyFileSize))
	assert.Equal(t, md5Of("alpha body"), dataValue(t, store, tree, alpha, filescan.KeyMD5))

	beta := filescan.FileScheme + filepath.Join(root, "sub", "beta.txt")
	assert.Equal(t, md5Of("beta body"), dataValue(t, store, tree, beta, filescan.KeyMD5))

	// The checksum queue drains in the same run.
	pending, err := store.PendingItems(runner.EngineID(), "checksum", false, driver.DefaultMonthsBack)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestRescanOnlyProcessesNewFiles(t *testing.T) {
	store := setupStore(t)
	root := t.TempDir()

	writeFile(t, filepath.Join(root, "first.txt"), "first")

	scanner := filescan.New(store, discard(), root, []string{root})
	runner := driver.New(store, scanner, discard())
	require.NoError(t, runner.Run())

	removed := filepath.Join(root, "first.txt")
	require.NoError(t, os.Remove(removed))
	writeFile(t, filepath.Join(root, "second.txt"), "second")

	require.NoError(t, runner.Run())

	tree := rootTree(t, store, runner.EngineID(), root)

	// Vanished files keep their stored record; new files get checksummed.
	assert.Contains(t, tree, filescan.FileScheme+removed)
	assert.Equal(t, md5Of("second"),
		dataValue(t, store, tree, filescan.FileScheme+filepath.Join(root, "second.txt"), filescan.KeyMD5))
	assert.Equal(t, md5Of("first"),
		dataValue(t, store, tree, filescan.FileScheme+removed, filescan.KeyMD5))
}

func TestScanSkipsMissingRoot(t *testing.T) {
	store := setupStore(t)
	present := t.TempDir()
	writeFile(t, filepath.Join(present, "only.txt"), "only")

	missing := filepath.Join(present, "no-such-dir")
	scanner := filescan.New(store, discard(), present, []string{missing, present})
	runner := driver.New(store, scanner, discard())
	require.NoError(t, runner.Run())

	tree := rootTree(t, store, runner.EngineID(), present)
	assert.Contains(t, tree, filescan.FileScheme+filepath.Join(present, "only.txt"))
}

func TestChecksumMarksUnreadableFiles(t *testing.T) {
	store := setupStore(t)
	root := t.TempDir()

	writeFile(t, filepath.Join(root, "doomed.txt"), "doomed")

	scanner := filescan.New(store, discard(), root, []string{root})
	runner := driver.New(store, scanner, discard())

	// Register and scan, then delete the file before the checksum pass.
	require.NoError(t, runner.Register())
	specs := scanner.Actions()
	require.NoError(t, specs[0].Run(""))
	require.NoError(t, os.Remove(filepath.Join(root, "doomed.txt")))
	require.NoError(t, runner.RunAction(specs[1]))

	tree := rootTree(t, store, runner.EngineID(), root)
	assert.Equal(t, filescan.ChecksumMissing,
		dataValue(t, store, tree, filescan.FileScheme+filepath.Join(root, "doomed.txt"), filescan.KeyMD5))
}

func TestAnchorSeedsOnlyOnce(t *testing.T) {
	store := setupStore(t)
	rootA := t.TempDir()
	rootB := t.TempDir()

	scanner := filescan.New(store, discard(), rootA, []string{rootA})
	runner := driver.New(store, scanner, discard())
	require.NoError(t, runner.Register())

	// A later configuration with different roots does not reseed the
	// persisted folderPaths.
	again := filescan.New(store, discard(), rootA, []string{rootB})
	require.NoError(t, driver.New(store, again, discard()).Register())

	anchorID, err := store.ItemByData("FileScanner", 0)
	require.NoError(t, err)
	roots, err := store.ItemDataList(anchorID, filescan.KeyFolderPaths)
	require.NoError(t, err)
	assert.Equal(t, []string{rootA}, roots)
}
