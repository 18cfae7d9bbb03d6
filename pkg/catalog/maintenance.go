package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/papercomputeco/playback/pkg/datadir"
)

// Stats gathers catalog statistics for the status surface.
func (c *Catalog) Stats(ctx context.Context) (*Stats, error) {
	var s Stats

	err := c.db.QueryRowContext(ctx, `
		SELECT COUNT(*), MIN(start_ts), MAX(end_ts),
		       COALESCE(SUM(file_size_bytes), 0), COALESCE(SUM(frame_count), 0)
		FROM segments`,
	).Scan(&s.SegmentCount, &s.EarliestTS, &s.LatestTS, &s.TotalVideoBytes, &s.TotalFrames)
	if err != nil {
		return nil, fmt.Errorf("reading segment stats: %w", err)
	}

	err = c.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT app_id) FROM appsegments`,
	).Scan(&s.AppSegmentCount, &s.UniqueAppCount)
	if err != nil {
		return nil, fmt.Errorf("reading appsegment stats: %w", err)
	}

	if s.OCRCount, err = c.OCRCount(ctx); err != nil {
		return nil, err
	}

	if info, err := os.Stat(c.path); err == nil {
		s.DatabaseSizeBytes = info.Size()
	}

	if s.SchemaVersion, err = c.GetSchemaVersion(ctx); err != nil {
		return nil, err
	}

	return &s, nil
}

// Vacuum rebuilds the database file, reclaiming space from deleted rows.
// Takes an exclusive lock; run it when no ingestion is expected.
func (c *Catalog) Vacuum(ctx context.Context) error {
	c.logger.Info("starting catalog vacuum")
	if _, err := c.db.ExecContext(ctx, `VACUUM`); err != nil {
		return fmt.Errorf("vacuuming catalog: %w", err)
	}
	c.logger.Info("catalog vacuum completed")
	return nil
}

// CheckIntegrity runs SQLite's integrity check.
func (c *Catalog) CheckIntegrity(ctx context.Context) (bool, error) {
	var result string
	if err := c.db.QueryRowContext(ctx, `PRAGMA integrity_check`).Scan(&result); err != nil {
		return false, fmt.Errorf("checking catalog integrity: %w", err)
	}
	if result != "ok" {
		c.logger.Error("catalog integrity check failed", "result", result)
		return false, nil
	}
	return true, nil
}

// Backup writes a timestamped snapshot of the catalog into dir (the
// catalog's own directory when dir is empty). VACUUM INTO produces a
// consistent copy even while the WAL is live.
func (c *Catalog) Backup(ctx context.Context, dir string) (string, error) {
	if dir == "" {
		dir = filepath.Dir(c.path)
	}
	name := fmt.Sprintf("%s.backup.%d", filepath.Base(c.path), time.Now().Unix())
	dst := filepath.Join(dir, name)

	if _, err := c.db.ExecContext(ctx, `VACUUM INTO ?`, dst); err != nil {
		return "", fmt.Errorf("backing up catalog to %s: %w", dst, err)
	}
	if err := datadir.RestrictFile(dst); err != nil {
		return "", err
	}

	c.logger.Info("catalog backup created", "path", dst)
	return dst, nil
}
