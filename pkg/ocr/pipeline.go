package ocr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/papercomputeco/playback/pkg/catalog"
	"github.com/papercomputeco/playback/pkg/frame"
)

// Store is the slice of the catalog the pipeline writes through.
type Store interface {
	SegmentAt(ctx context.Context, ts float64) (*catalog.Segment, error)
	InsertOCRBatch(ctx context.Context, records []catalog.OCRRecord) (int, error)
}

// Pipeline recognizes a day of frames and indexes the text. Workers only
// run tesseract; the pipeline is the single catalog writer.
type Pipeline struct {
	store    Store
	engine   Engine
	loader   *frame.Loader
	logger   *slog.Logger
	language string
	opts     BatchOptions
}

func NewPipeline(store Store, engine Engine, loader *frame.Loader, logger *slog.Logger, language string, opts BatchOptions) *Pipeline {
	if language == "" {
		language = "eng"
	}
	return &Pipeline{
		store:    store,
		engine:   engine,
		loader:   loader,
		logger:   logger,
		language: language,
		opts:     opts,
	}
}

// RunResult summarizes one pipeline run.
type RunResult struct {
	FramesProcessed int
	RowsInserted    int
	Failures        int
}

// Summary renders the result for CLI output.
func (r *RunResult) Summary() string {
	return fmt.Sprintf("processed %d frames, indexed %d, %d failed",
		r.FramesProcessed, r.RowsInserted, r.Failures)
}

// RunDay recognizes every frame in a temp day directory and writes the
// text rows, each linked to the segment containing its timestamp.
func (p *Pipeline) RunDay(ctx context.Context, dayDir string) (*RunResult, error) {
	if !p.engine.Available() {
		return nil, fmt.Errorf("ocr engine unavailable")
	}

	events, err := p.loader.LoadDay(dayDir)
	if err != nil {
		return nil, err
	}

	tasks := make([]FrameTask, len(events))
	for i, ev := range events {
		tasks[i] = FrameTask{Path: ev.Path, Timestamp: ev.Timestamp}
	}

	results := RunBatch(ctx, p.engine, tasks, p.opts)

	out := &RunResult{FramesProcessed: len(results)}
	records := make([]catalog.OCRRecord, 0, len(results))
	for _, res := range results {
		if res.Err != nil {
			p.logger.Warn("ocr failed", "path", res.Task.Path, "error", res.Err)
			out.Failures++
			continue
		}

		var segmentID *string
		seg, err := p.store.SegmentAt(ctx, res.Task.Timestamp)
		switch {
		case err == nil:
			segmentID = &seg.ID
		case errors.Is(err, catalog.ErrNotFound):
			// Frame not yet covered by a segment; index it unlinked.
		default:
			return nil, err
		}

		records = append(records, catalog.OCRRecord{
			FramePath:   res.Task.Path,
			SegmentID:   segmentID,
			Timestamp:   res.Task.Timestamp,
			TextContent: res.Text,
			Confidence:  res.Confidence,
			Language:    p.language,
		})
	}

	inserted, err := p.store.InsertOCRBatch(ctx, records)
	if err != nil {
		return nil, err
	}
	out.RowsInserted = inserted

	p.logger.Info("ocr run complete",
		"frames", out.FramesProcessed, "indexed", out.RowsInserted, "failed", out.Failures)
	return out, nil
}
