package retention

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/papercomputeco/playback/pkg/catalog"
	"github.com/papercomputeco/playback/pkg/datadir"
	"github.com/papercomputeco/playback/pkg/eventstream"
	"github.com/papercomputeco/playback/pkg/frame"
)

// ErrNoCatalog indicates an operation that needs the metadata store was
// run before the archive was initialized.
var ErrNoCatalog = errors.New("catalog does not exist")

// Sweeper applies retention policies to the archive. It is the only
// component that deletes catalog rows or their backing files.
type Sweeper struct {
	tree      *datadir.Tree
	cat       *catalog.Catalog
	publisher eventstream.Publisher
	logger    *slog.Logger
}

func NewSweeper(tree *datadir.Tree, cat *catalog.Catalog, publisher eventstream.Publisher, logger *slog.Logger) *Sweeper {
	return &Sweeper{tree: tree, cat: cat, publisher: publisher, logger: logger}
}

// TempResult summarizes a temp-tree sweep.
type TempResult struct {
	FilesDeleted int
	BytesFreed   int64
	DryRun       bool
}

func (r *TempResult) Summary() string {
	verb := "deleted"
	if r.DryRun {
		verb = "would delete"
	}
	return fmt.Sprintf("%s %d temp files (%d bytes)", verb, r.FilesDeleted, r.BytesFreed)
}

// SweepTemp deletes temp frames older than the policy window, judged by
// file birthtime (mtime fallback), then prunes emptied day directories.
// Per-file failures are logged and skipped, never fatal.
func (s *Sweeper) SweepTemp(ctx context.Context, policy Policy, dryRun bool) (*TempResult, error) {
	result := &TempResult{DryRun: dryRun}
	if policy == PolicyNever {
		return result, nil
	}

	tempDir := s.tree.TempDir()
	if _, err := os.Stat(tempDir); errors.Is(err, os.ErrNotExist) {
		return result, nil
	}

	cutoff := policy.Cutoff(time.Now())

	err := filepath.WalkDir(tempDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			s.logger.Warn("sweep walk error", "path", path, "error", err)
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			s.logger.Warn("sweep stat error", "path", path, "error", err)
			return nil
		}
		if frame.FileTimestamp(info) >= cutoff {
			return nil
		}

		if !dryRun {
			if err := os.Remove(path); err != nil {
				s.logger.Warn("sweep delete failed", "path", path, "error", err)
				return nil
			}
		}
		s.logger.Debug("swept temp file", "path", path, "dry_run", dryRun)
		result.FilesDeleted++
		result.BytesFreed += info.Size()
		return nil
	})
	if err != nil {
		return result, err
	}

	if !dryRun {
		s.pruneEmptyDirs(tempDir)
	}
	return result, nil
}

// RecordingsResult summarizes a recordings sweep.
type RecordingsResult struct {
	SegmentsDeleted    int
	AppSegmentsDeleted int
	BytesFreed         int64
	DryRun             bool
}

func (r *RecordingsResult) Summary() string {
	verb := "deleted"
	if r.DryRun {
		verb = "would delete"
	}
	return fmt.Sprintf("%s %d recordings and %d app intervals (%d bytes)",
		verb, r.SegmentsDeleted, r.AppSegmentsDeleted, r.BytesFreed)
}

// SweepRecordings deletes segments older than the policy window: video
// file first, catalog row second, so a crash leaves an orphan row that
// ReconcileOrphans repairs later, never a dangling file reference.
// Attribution intervals past the cutoff are swept too.
func (s *Sweeper) SweepRecordings(ctx context.Context, policy Policy, dryRun bool) (*RecordingsResult, error) {
	result := &RecordingsResult{DryRun: dryRun}
	if policy == PolicyNever {
		return result, nil
	}

	cutoff := policy.Cutoff(time.Now())

	old, err := s.cat.OldSegments(ctx, cutoff)
	if err != nil {
		return nil, err
	}

	for _, seg := range old {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, ctxErr
		}

		fullPath := filepath.Join(s.tree.Root(), seg.VideoPath)
		if info, err := os.Stat(fullPath); err == nil {
			if !dryRun {
				if err := os.Remove(fullPath); err != nil {
					s.logger.Warn("recording delete failed", "path", fullPath, "error", err)
					continue
				}
			}
			result.BytesFreed += info.Size()
		}

		if !dryRun {
			if err := s.cat.DeleteSegment(ctx, seg.ID); err != nil {
				s.logger.Warn("segment row delete failed", "id", seg.ID, "error", err)
				continue
			}
		}
		result.SegmentsDeleted++
	}

	oldSpans, err := s.cat.OldAppSegments(ctx, cutoff)
	if err != nil {
		return nil, err
	}
	for _, id := range oldSpans {
		if !dryRun {
			if err := s.cat.DeleteAppSegment(ctx, id); err != nil {
				s.logger.Warn("appsegment delete failed", "id", id, "error", err)
				continue
			}
		}
		result.AppSegmentsDeleted++
	}

	if !dryRun {
		s.pruneEmptyDirs(s.tree.ChunksDir())
	}

	s.publishSweep(ctx, policy, result)
	return result, nil
}

func (s *Sweeper) publishSweep(ctx context.Context, policy Policy, result *RecordingsResult) {
	if s.publisher == nil {
		return
	}
	event := eventstream.NewSweepCompletedEvent(eventstream.SweepMeta{
		Policy:          string(policy),
		SegmentsDeleted: result.SegmentsDeleted,
		FilesDeleted:    result.SegmentsDeleted,
		BytesReclaimed:  result.BytesFreed,
		DryRun:          result.DryRun,
	})
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("sweep event publish failed", "error", err)
	}
}

// ReconcileOrphans removes catalog rows whose video files are gone.
// Returns the number of rows removed (or that would be removed).
func (s *Sweeper) ReconcileOrphans(ctx context.Context, dryRun bool) (int, error) {
	segments, err := s.cat.Segments(ctx)
	if err != nil {
		return 0, err
	}

	orphaned := 0
	for _, seg := range segments {
		fullPath := filepath.Join(s.tree.Root(), seg.VideoPath)
		if _, err := os.Stat(fullPath); err == nil {
			continue
		}

		if !dryRun {
			if err := s.cat.DeleteSegment(ctx, seg.ID); err != nil {
				s.logger.Warn("orphan delete failed", "id", seg.ID, "error", err)
				continue
			}
		}
		s.logger.Debug("reconciled orphaned segment", "id", seg.ID, "path", seg.VideoPath, "dry_run", dryRun)
		orphaned++
	}
	return orphaned, nil
}

// VacuumStore rebuilds the catalog file and reports the bytes reclaimed.
func (s *Sweeper) VacuumStore(ctx context.Context) (int64, error) {
	path := s.cat.Path()

	var before int64
	if info, err := os.Stat(path); err == nil {
		before = info.Size()
	}

	if err := s.cat.Vacuum(ctx); err != nil {
		return 0, err
	}

	var after int64
	if info, err := os.Stat(path); err == nil {
		after = info.Size()
	}

	freed := before - after
	if freed < 0 {
		freed = 0
	}
	return freed, nil
}

// pruneEmptyDirs removes directories under root left empty by a sweep,
// deepest first. Hidden files don't keep a directory alive.
func (s *Sweeper) pruneEmptyDirs(root string) {
	var dirs []string
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err == nil && d.IsDir() && path != root {
			dirs = append(dirs, path)
		}
		return nil
	})

	sort.Slice(dirs, func(i, j int) bool { return len(dirs[i]) > len(dirs[j]) })

	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		empty := true
		for _, e := range entries {
			if !strings.HasPrefix(e.Name(), ".") {
				empty = false
				break
			}
		}
		if !empty {
			continue
		}
		for _, e := range entries {
			_ = os.Remove(filepath.Join(dir, e.Name()))
		}
		if err := os.Remove(dir); err == nil {
			s.logger.Debug("pruned empty directory", "dir", dir)
		}
	}
}
