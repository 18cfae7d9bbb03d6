// Package datadir lays out the on-disk archive tree.
//
// Everything playback persists lives under one root:
//
//	<root>/
//	├── meta.sqlite3        metadata catalog (plus -wal/-shm sidecars)
//	├── temp/YYYYMM/DD/     raw capture frames, extensionless PNGs
//	├── chunks/YYYYMM/DD/   encoded video segments, <id>.mp4
//	├── exports/            snapshot archives
//	└── logs/               service log files
//
// The temp tree is written by the capture source and deleted by the
// retention engine; the chunks tree is written by the builder and deleted
// by the retention engine. Nothing else mutates either tree.
package datadir

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	tempDirName    = "temp"
	chunksDirName  = "chunks"
	exportsDirName = "exports"
	logsDirName    = "logs"
	catalogName    = "meta.sqlite3"
)

// Tree resolves paths inside a playback data directory.
type Tree struct {
	root string
}

// New returns a Tree rooted at the given directory. The directory is not
// created until Ensure is called.
func New(root string) *Tree {
	return &Tree{root: root}
}

func (t *Tree) Root() string        { return t.root }
func (t *Tree) TempDir() string     { return filepath.Join(t.root, tempDirName) }
func (t *Tree) ChunksDir() string   { return filepath.Join(t.root, chunksDirName) }
func (t *Tree) ExportsDir() string  { return filepath.Join(t.root, exportsDirName) }
func (t *Tree) LogsDir() string     { return filepath.Join(t.root, logsDirName) }
func (t *Tree) CatalogPath() string { return filepath.Join(t.root, catalogName) }

// TempDayDir returns the temp directory for a YYYYMMDD day.
func (t *Tree) TempDayDir(day string) (string, error) {
	ym, d, err := splitDay(day)
	if err != nil {
		return "", err
	}
	return filepath.Join(t.TempDir(), ym, d), nil
}

// ChunksDayDir returns the chunks directory for a YYYYMMDD day.
func (t *Tree) ChunksDayDir(day string) (string, error) {
	ym, d, err := splitDay(day)
	if err != nil {
		return "", err
	}
	return filepath.Join(t.ChunksDir(), ym, d), nil
}

// Ensure creates the archive tree. The root is restricted to the owning
// user; the capture record is private data.
func (t *Tree) Ensure() error {
	if err := os.MkdirAll(t.root, 0o700); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	// Re-tighten in case the directory pre-existed with looser permissions.
	if err := os.Chmod(t.root, 0o700); err != nil {
		return fmt.Errorf("restricting data directory: %w", err)
	}

	for _, dir := range []string{t.TempDir(), t.ChunksDir(), t.ExportsDir(), t.LogsDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}

	return nil
}

func splitDay(day string) (yearMonth, dayOnly string, err error) {
	if len(day) != 8 {
		return "", "", fmt.Errorf("invalid day %q: want YYYYMMDD", day)
	}
	for _, r := range day {
		if r < '0' || r > '9' {
			return "", "", fmt.Errorf("invalid day %q: want YYYYMMDD", day)
		}
	}
	return day[:6], day[6:], nil
}
