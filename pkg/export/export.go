// Package export packages the archive into a portable ZIP snapshot:
// every video chunk, a consistent copy of the catalog, and a manifest
// describing what the snapshot holds.
package export

import (
	"archive/zip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/playback/pkg/catalog"
	"github.com/papercomputeco/playback/pkg/datadir"
	"github.com/papercomputeco/playback/pkg/utils"
)

// ErrNothingToExport indicates the catalog holds no segments.
var ErrNothingToExport = errors.New("nothing to export")

const manifestName = "manifest.json"

// Manifest describes a snapshot for whoever unpacks it later.
type Manifest struct {
	ExportID        string    `json:"export_id"`
	CreatedAt       time.Time `json:"created_at"`
	SchemaVersion   string    `json:"schema_version"`
	SegmentCount    int64     `json:"segment_count"`
	AppSegmentCount int64     `json:"appsegment_count"`
	OCRCount        int64     `json:"ocr_count"`
	TotalVideoBytes int64     `json:"total_video_bytes"`
	Platform        string    `json:"platform"`
	ToolVersion     string    `json:"tool_version"`
}

// Exporter builds archive snapshots.
type Exporter struct {
	tree   *datadir.Tree
	cat    *catalog.Catalog
	logger *slog.Logger
}

func New(tree *datadir.Tree, cat *catalog.Catalog, logger *slog.Logger) *Exporter {
	return &Exporter{tree: tree, cat: cat, logger: logger}
}

// Result summarizes one export.
type Result struct {
	Path         string
	ExportID     string
	SegmentCount int64
	BytesWritten int64
	DryRun       bool
}

func (r *Result) Summary() string {
	if r.DryRun {
		return fmt.Sprintf("would export %d segments to %s", r.SegmentCount, r.Path)
	}
	return fmt.Sprintf("exported %d segments to %s (%s)",
		r.SegmentCount, r.Path, utils.FormatSize(r.BytesWritten))
}

// Export writes a snapshot ZIP to outPath (a generated name under the
// exports directory when empty). Dry-run reports what would be written.
func (e *Exporter) Export(ctx context.Context, outPath string, dryRun bool) (*Result, error) {
	stats, err := e.cat.Stats(ctx)
	if err != nil {
		return nil, err
	}
	if stats.SegmentCount == 0 {
		return nil, ErrNothingToExport
	}

	if outPath == "" {
		name := fmt.Sprintf("playback-export-%s.zip", time.Now().Format("20060102-150405"))
		outPath = filepath.Join(e.tree.ExportsDir(), name)
	}

	manifest := Manifest{
		ExportID:        uuid.NewString(),
		CreatedAt:       time.Now().UTC(),
		SchemaVersion:   stats.SchemaVersion,
		SegmentCount:    stats.SegmentCount,
		AppSegmentCount: stats.AppSegmentCount,
		OCRCount:        stats.OCRCount,
		TotalVideoBytes: stats.TotalVideoBytes,
		Platform:        runtime.GOOS + "/" + runtime.GOARCH,
		ToolVersion:     utils.Version,
	}

	result := &Result{Path: outPath, ExportID: manifest.ExportID, SegmentCount: stats.SegmentCount, DryRun: dryRun}
	if dryRun {
		return result, nil
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating export directory: %w", err)
	}

	if err := e.writeSnapshot(ctx, outPath, manifest); err != nil {
		os.Remove(outPath)
		return nil, err
	}

	info, err := os.Stat(outPath)
	if err != nil {
		return nil, fmt.Errorf("stating export %s: %w", outPath, err)
	}
	result.BytesWritten = info.Size()

	e.logger.Info("export complete", "path", outPath, "id", manifest.ExportID, "bytes", result.BytesWritten)
	return result, nil
}

func (e *Exporter) writeSnapshot(ctx context.Context, outPath string, manifest Manifest) error {
	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating export %s: %w", outPath, err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)

	if err := e.addChunks(ctx, zw); err != nil {
		return err
	}
	if err := e.addCatalogSnapshot(ctx, zw); err != nil {
		return err
	}
	if err := addManifest(zw, manifest); err != nil {
		return err
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalizing export: %w", err)
	}
	return out.Close()
}

func (e *Exporter) addChunks(ctx context.Context, zw *zip.Writer) error {
	chunksDir := e.tree.ChunksDir()
	return filepath.WalkDir(chunksDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(e.tree.Root(), path)
		if err != nil {
			return err
		}

		w, err := zw.Create(filepath.ToSlash(rel))
		if err != nil {
			return fmt.Errorf("adding %s to export: %w", rel, err)
		}
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		_, err = io.Copy(w, f)
		f.Close()
		if err != nil {
			return fmt.Errorf("adding %s to export: %w", rel, err)
		}
		return nil
	})
}

// addCatalogSnapshot embeds a consistent copy of the catalog, taken via
// backup so a live WAL cannot tear it.
func (e *Exporter) addCatalogSnapshot(ctx context.Context, zw *zip.Writer) error {
	stageDir, err := os.MkdirTemp("", "playback-export-")
	if err != nil {
		return fmt.Errorf("staging catalog snapshot: %w", err)
	}
	defer os.RemoveAll(stageDir)

	snapshot, err := e.cat.Backup(ctx, stageDir)
	if err != nil {
		return err
	}

	w, err := zw.Create("meta.sqlite3")
	if err != nil {
		return fmt.Errorf("adding catalog to export: %w", err)
	}
	f, err := os.Open(snapshot)
	if err != nil {
		return fmt.Errorf("reading catalog snapshot: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("adding catalog to export: %w", err)
	}
	return nil
}

func addManifest(zw *zip.Writer, manifest Manifest) error {
	w, err := zw.Create(manifestName)
	if err != nil {
		return fmt.Errorf("adding manifest: %w", err)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(manifest); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}
