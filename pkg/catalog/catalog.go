// Package catalog is the metadata store for the capture archive: video
// segments, app attribution intervals, and the OCR text index, all in a
// single SQLite file alongside the media tree.
//
// The store runs in WAL mode so the builder, the retention engine, and
// ad-hoc readers can operate concurrently with one writer at a time.
// Secure delete is enabled so purged rows are overwritten on disk, and
// the database plus its WAL sidecars are kept owner-only.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"

	_ "github.com/mattn/go-sqlite3"

	"github.com/papercomputeco/playback/pkg/datadir"
)

// SchemaVersion is the current catalog schema generation.
const SchemaVersion = "1.0"

// ErrNotFound is returned by lookups that match no row.
var ErrNotFound = errors.New("catalog: not found")

// Catalog wraps the SQLite metadata store.
type Catalog struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// Exists reports whether a catalog file is present at path. Opening a
// catalog creates the file, so callers that must not initialize a fresh
// store check this first.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Open opens (creating and migrating if needed) the catalog at path.
// Safe to call repeatedly; schema creation is idempotent.
func Open(path string, logger *slog.Logger) (*Catalog, error) {
	db, err := sql.Open("sqlite3", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("opening catalog %s: %w", path, err)
	}

	// One connection: SQLite allows a single writer anyway, and this
	// keeps in-memory databases coherent across calls.
	db.SetMaxOpenConns(1)

	c := &Catalog{db: db, path: path, logger: logger}
	if err := c.initSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	if path != ":memory:" {
		if err := datadir.RestrictCatalogFiles(path); err != nil {
			db.Close()
			return nil, err
		}
	}

	return c, nil
}

func dsn(path string) string {
	v := url.Values{}
	v.Set("_journal_mode", "WAL")
	v.Set("_busy_timeout", "5000")
	v.Set("_foreign_keys", "on")
	v.Set("_secure_delete", "on")
	return "file:" + path + "?" + v.Encode()
}

func (c *Catalog) Close() error {
	return c.db.Close()
}

// Path returns the catalog file location.
func (c *Catalog) Path() string { return c.path }

func (c *Catalog) initSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS schema_version (
			version TEXT PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`INSERT OR IGNORE INTO schema_version (version) VALUES ('` + SchemaVersion + `')`,
		`CREATE TABLE IF NOT EXISTS segments (
			id TEXT PRIMARY KEY,
			date TEXT NOT NULL,
			start_ts REAL NOT NULL,
			end_ts REAL NOT NULL,
			frame_count INTEGER NOT NULL,
			fps REAL,
			width INTEGER,
			height INTEGER,
			file_size_bytes INTEGER NOT NULL,
			video_path TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_segments_date ON segments(date)`,
		`CREATE INDEX IF NOT EXISTS idx_segments_start_ts ON segments(start_ts)`,
		`CREATE INDEX IF NOT EXISTS idx_segments_end_ts ON segments(end_ts)`,
		`CREATE TABLE IF NOT EXISTS appsegments (
			id TEXT PRIMARY KEY,
			app_id TEXT,
			date TEXT NOT NULL,
			start_ts REAL NOT NULL,
			end_ts REAL NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_appsegments_date ON appsegments(date)`,
		`CREATE INDEX IF NOT EXISTS idx_appsegments_app_id ON appsegments(app_id)`,
		`CREATE INDEX IF NOT EXISTS idx_appsegments_start_ts ON appsegments(start_ts)`,
		`CREATE INDEX IF NOT EXISTS idx_appsegments_end_ts ON appsegments(end_ts)`,
		`CREATE TABLE IF NOT EXISTS ocr_text (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			frame_path TEXT NOT NULL,
			segment_id TEXT REFERENCES segments(id) ON DELETE CASCADE,
			timestamp REAL NOT NULL,
			text_content TEXT NOT NULL,
			confidence REAL NOT NULL,
			language TEXT NOT NULL DEFAULT 'eng',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ocr_timestamp ON ocr_text(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_ocr_segment ON ocr_text(segment_id)`,
		`CREATE VIRTUAL TABLE IF NOT EXISTS ocr_search USING fts5(text_content)`,
	}

	for _, stmt := range stmts {
		if _, err := c.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("initializing catalog schema: %w", err)
		}
	}

	c.logger.Debug("catalog schema ready", "path", c.path)
	return nil
}

// GetSchemaVersion reports the newest applied schema version.
func (c *Catalog) GetSchemaVersion(ctx context.Context) (string, error) {
	var version string
	err := c.db.QueryRowContext(ctx,
		`SELECT version FROM schema_version ORDER BY applied_at DESC LIMIT 1`,
	).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return "0.0", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading schema version: %w", err)
	}
	return version, nil
}
