// Package filescan implements the FileScanner engine: it walks configured
// folder roots, records the file tree as contains-linked items, and
// computes MD5 checksums for newly discovered files through the work
// queue.
package filescan

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/stackingturtles/peregrin/internal/driver"
	"github.com/stackingturtles/peregrin/pkg/types"
)

// URI schemes distinguishing folder items from file items.
const (
	FolderScheme = "folder://"
	FileScheme   = "file://"
)

// Item-data keys the scanner writes.
const (
	KeyFolderPaths = "folderPaths"
	KeyFileName    = "FileName"
	KeyFileDate    = "FileDate"
	KeyFileSize    = "FileSize"
	KeyMD5         = "MD5"
)

// Checksum markers stored for files that could not be hashed, so the work
// queue never revisits them.
const (
	ChecksumMissing = "==missing=="
	ChecksumError   = "==error=="
)

const (
	engineName    = "FileScanner"
	engineVersion = "2.0"
	engineDescr   = "Walks folder roots, records file trees, and checksums new files."

	actionScan     = engineName
	actionChecksum = "checksum"

	commitEvery = 1000
)

// Scanner is the file-scanning engine. Its anchor item holds the folder
// roots as item data, so roots persist in the store once seeded.
type Scanner struct {
	store  types.Store
	logger *slog.Logger

	// anchorURI names the anchor item; seedRoots are written as
	// folderPaths data the first time the anchor is created.
	anchorURI string
	seedRoots []string

	engineID string
	anchorID string
}

// New creates a Scanner. seedRoots only matter on the first run against a
// store; afterwards the persisted folderPaths data wins.
func New(store types.Store, logger *slog.Logger, anchorURI string, seedRoots []string) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{
		store:     store,
		logger:    logger,
		anchorURI: anchorURI,
		seedRoots: seedRoots,
	}
}

// Info returns the engine's registration identity.
func (s *Scanner) Info() (string, string, string) {
	return engineName, engineVersion, engineDescr
}

// Actions returns the engine's action table: the self-starting folder
// walk, then the queue-backed checksum pass.
func (s *Scanner) Actions() []driver.ActionSpec {
	return []driver.ActionSpec{
		{Name: actionScan, Handler: "scanFolders", Run: s.scanFolders},
		{Name: actionChecksum, Handler: "checksumFile", Tags: []string{"uri"}, Run: s.checksumFile},
	}
}

// Init locates the anchor item, creating and seeding it on first contact
// with the store.
func (s *Scanner) Init(engineID string) error {
	s.engineID = engineID

	anchorID, err := s.store.ItemByData(engineName, 0)
	if err == nil {
		s.anchorID = anchorID
		return nil
	}
	if !errors.Is(err, types.ErrNotFound) {
		return fmt.Errorf("locating anchor item: %w", err)
	}

	anchorID, err = s.store.AddItem(engineID, s.anchorURI, time.Now())
	if err != nil {
		return fmt.Errorf("creating anchor item: %w", err)
	}
	if _, err := s.store.AddItemData(anchorID, engineName, s.anchorURI, 0); err != nil {
		return fmt.Errorf("marking anchor item: %w", err)
	}
	for i, root := range s.seedRoots {
		if _, err := s.store.AddItemData(anchorID, KeyFolderPaths, root, i); err != nil {
			return fmt.Errorf("seeding folder root %s: %w", root, err)
		}
	}
	if err := s.store.Commit(); err != nil {
		return err
	}

	s.anchorID = anchorID
	s.logger.Info("anchor item created", "uri", s.anchorURI, "roots", len(s.seedRoots))
	return nil
}

// scanFolders walks every configured root. A missing or unreadable root is
// logged and skipped; the remaining roots still scan.
func (s *Scanner) scanFolders(string) error {
	roots, err := s.store.ItemDataList(s.anchorID, KeyFolderPaths)
	if err != nil {
		return fmt.Errorf("reading folder roots: %w", err)
	}

	for _, root := range roots {
		if err := s.scanFolder(root); err != nil {
			s.logger.Error("folder scan failed", "root", root, "error", err)
		}
	}
	return nil
}

// liveEntry is one filesystem entry found during a walk. size is nil for
// folders.
type liveEntry struct {
	name     string
	modified time.Time
	size     *string
	folder   string
}

// scanFolder diffs the live filesystem under root against the stored item
// tree and inserts what is new. Stored items whose files have vanished are
// counted but kept; nothing is ever deleted from the store.
func (s *Scanner) scanFolder(root string) error {
	rootInfo, err := os.Stat(root)
	if err != nil {
		s.logger.Warn("folder root missing, skipping", "root", root)
		return nil
	}

	checksumID, err := s.store.AddAction(actionChecksum)
	if err != nil {
		return fmt.Errorf("resolving checksum action: %w", err)
	}

	rootURI := FolderScheme + root
	live, err := s.walk(root, rootURI)
	if err != nil {
		return err
	}

	rootID, err := s.store.AddItem(s.engineID, rootURI, rootInfo.ModTime())
	if err != nil {
		return fmt.Errorf("adding root folder %s: %w", rootURI, err)
	}
	if _, err := s.store.AddItemLink(s.engineID, s.anchorID, rootID, types.LinkTypeContains); err != nil {
		return fmt.Errorf("linking root folder %s: %w", rootURI, err)
	}
	if err := s.store.Commit(); err != nil {
		return err
	}

	stored, err := s.store.ItemTree(s.engineID, rootID)
	if err != nil {
		return fmt.Errorf("reading stored tree for %s: %w", rootURI, err)
	}

	fresh := 0
	for uri := range live {
		if _, ok := stored[uri]; !ok {
			fresh++
		}
	}
	vanished := 0
	for uri := range stored {
		if _, ok := live[uri]; !ok {
			vanished++
		}
	}
	s.logger.Info("scanning folder",
		"root", root, "live", len(live), "stored", len(stored),
		"new", fresh, "vanished", vanished)

	folders := map[string]string{rootURI: rootID}
	count := 0
	for uri, entry := range live {
		if _, ok := stored[uri]; ok {
			continue
		}

		if entry.size == nil {
			if _, err := s.folderItem(folders, uri, entry.modified); err != nil {
				return err
			}
			continue
		}

		folderID, err := s.folderItem(folders, entry.folder, entry.modified)
		if err != nil {
			return err
		}

		itemID, err := s.store.AddItem(s.engineID, uri, entry.modified)
		if err != nil {
			return fmt.Errorf("adding file %s: %w", uri, err)
		}
		if _, err := s.store.AddItemLink(s.engineID, folderID, itemID, types.LinkTypeContains); err != nil {
			return fmt.Errorf("linking file %s: %w", uri, err)
		}
		if _, err := s.store.AddItemData(itemID, KeyFileName, entry.name, 0); err != nil {
			return err
		}
		if _, err := s.store.AddItemData(itemID, KeyFileDate, entry.modified.UTC().Format(time.RFC3339), 0); err != nil {
			return err
		}
		if _, err := s.store.AddItemData(itemID, KeyFileSize, *entry.size, 0); err != nil {
			return err
		}
		if _, err := s.store.AddItemEvent(s.engineID, checksumID, itemID); err != nil {
			return fmt.Errorf("scheduling checksum for %s: %w", uri, err)
		}

		count++
		if count%commitEvery == 0 {
			if err := s.store.Commit(); err != nil {
				return err
			}
			s.logger.Info("inserting new items", "root", root, "done", count, "total", fresh)
		}
	}

	return s.store.Commit()
}

// walk builds the live map of folder and file entries under root. Hidden
// entries are skipped; unreadable entries are logged and skipped. The root
// folder itself is excluded to mirror the stored tree closure, which also
// excludes its root.
func (s *Scanner) walk(root, rootURI string) (map[string]liveEntry, error) {
	live := map[string]liveEntry{}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			s.logger.Warn("walk error, skipping entry", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if strings.HasPrefix(d.Name(), ".") && path != root {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		info, err := d.Info()
		if err != nil {
			s.logger.Warn("stat failed, skipping entry", "path", path, "error", err)
			return nil
		}

		folder := FolderScheme + filepath.Dir(path)
		switch {
		case d.IsDir():
			uri := FolderScheme + path
			if uri != rootURI {
				live[uri] = liveEntry{name: d.Name(), modified: info.ModTime(), folder: folder}
			}
		case d.Type().IsRegular():
			size := strconv.FormatInt(info.Size(), 10)
			live[FileScheme+path] = liveEntry{
				name:     d.Name(),
				modified: info.ModTime(),
				size:     &size,
				folder:   folder,
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	return live, nil
}

// folderItem gets or creates the folder item at uri and links it under
// its parent chain, stopping at the scan root already present in folders.
func (s *Scanner) folderItem(folders map[string]string, uri string, modified time.Time) (string, error) {
	if id, ok := folders[uri]; ok {
		return id, nil
	}

	id, err := s.store.AddItem(s.engineID, uri, modified)
	if err != nil {
		return "", fmt.Errorf("adding folder %s: %w", uri, err)
	}
	folders[uri] = id

	path := strings.TrimPrefix(uri, FolderScheme)
	parent := filepath.Dir(path)
	if parent != path {
		parentID, err := s.folderItem(folders, FolderScheme+parent, modified)
		if err != nil {
			return "", err
		}
		if parentID != id {
			if _, err := s.store.AddItemLink(s.engineID, parentID, id, types.LinkTypeContains); err != nil {
				return "", fmt.Errorf("linking folder %s: %w", uri, err)
			}
		}
	}
	return id, nil
}

// checksumFile hashes one file and stores the digest as MD5 item data.
// Missing and unreadable files get marker values instead, so their queue
// entries complete like any other.
func (s *Scanner) checksumFile(uri string) error {
	path := strings.TrimPrefix(uri, FileScheme)

	value, err := fileMD5(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		value = ChecksumMissing
	case err != nil:
		s.logger.Error("checksum failed", "uri", uri, "error", err)
		value = ChecksumError
	}

	itemID, err := s.store.AddItem(s.engineID, uri, time.Now())
	if err != nil {
		return fmt.Errorf("resolving item for %s: %w", uri, err)
	}
	if _, err := s.store.AddItemData(itemID, KeyMD5, value, 0); err != nil {
		return fmt.Errorf("storing checksum for %s: %w", uri, err)
	}
	return nil
}

func fileMD5(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
