// Package builder turns a day's worth of raw capture frames into encoded
// video segments with catalog rows and app attribution intervals.
package builder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/papercomputeco/playback/pkg/catalog"
	"github.com/papercomputeco/playback/pkg/datadir"
	"github.com/papercomputeco/playback/pkg/encoder"
	"github.com/papercomputeco/playback/pkg/eventstream"
	"github.com/papercomputeco/playback/pkg/frame"
	"github.com/papercomputeco/playback/pkg/segment"
)

// Store is the slice of the catalog the builder writes through. The
// builder only ever proposes new rows.
type Store interface {
	InsertSegment(ctx context.Context, seg catalog.Segment) error
	InsertAppSegment(ctx context.Context, seg catalog.AppSegment) error
}

// Options tune the encode step.
type Options struct {
	FPS            float64
	SegmentSeconds float64
	CRF            int
	Preset         string
}

// MaxFramesPerSegment derives the per-segment frame budget.
func (o Options) MaxFramesPerSegment() int {
	return int(o.FPS * o.SegmentSeconds)
}

// Builder drives the frame -> segment -> catalog pipeline.
type Builder struct {
	tree      *datadir.Tree
	loader    *frame.Loader
	encoder   encoder.Encoder
	store     Store
	publisher eventstream.Publisher
	logger    *slog.Logger
	opts      Options
}

func New(tree *datadir.Tree, loader *frame.Loader, enc encoder.Encoder, store Store, publisher eventstream.Publisher, logger *slog.Logger, opts Options) *Builder {
	return &Builder{
		tree:      tree,
		loader:    loader,
		encoder:   enc,
		store:     store,
		publisher: publisher,
		logger:    logger,
		opts:      opts,
	}
}

// Result summarizes one build run.
type Result struct {
	SegmentsBuilt int
	FramesEncoded int
	BytesWritten  int64
	Failed        int
}

// Summary renders the result for CLI output.
func (r *Result) Summary() string {
	return fmt.Sprintf("built %d segments (%d frames, %d bytes), %d failed",
		r.SegmentsBuilt, r.FramesEncoded, r.BytesWritten, r.Failed)
}

// BuildDay encodes every frame group for a YYYYMMDD day. Each segment is
// an independent unit of work: an encode failure is logged and counted,
// and a cancellation between segments leaves already-persisted segments
// valid. The next run re-derives pending work from what is still on disk.
func (b *Builder) BuildDay(ctx context.Context, day string) (*Result, error) {
	if !b.encoder.Available() {
		return nil, fmt.Errorf("encoder unavailable")
	}

	dayDir, err := b.tree.TempDayDir(day)
	if err != nil {
		return nil, err
	}
	date := formatDate(day)

	events, err := b.loader.LoadDay(dayDir)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		b.logger.Info("no frames to build", "day", day)
		return &Result{}, nil
	}

	if err := b.insertAppSpans(ctx, events, date); err != nil {
		return nil, err
	}

	chunksDir, err := b.tree.ChunksDayDir(day)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(chunksDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating chunks directory: %w", err)
	}

	result := &Result{}
	for _, group := range segment.Group(events, b.opts.MaxFramesPerSegment()) {
		if err := ctx.Err(); err != nil {
			b.logger.Warn("build interrupted", "day", day, "built", result.SegmentsBuilt)
			return result, err
		}

		if err := b.buildSegment(ctx, group, date, chunksDir, result); err != nil {
			b.logger.Error("segment build failed", "day", day, "frames", len(group), "error", err)
			result.Failed++
		}
	}

	b.logger.Info("build complete", "day", day,
		"segments", result.SegmentsBuilt, "frames", result.FramesEncoded, "failed", result.Failed)
	return result, nil
}

func (b *Builder) insertAppSpans(ctx context.Context, events []frame.Event, date string) error {
	for _, span := range segment.AppSpans(events) {
		err := b.store.InsertAppSegment(ctx, catalog.AppSegment{
			ID:      segment.NewID(),
			AppID:   span.AppID,
			Date:    date,
			StartTS: span.StartTS,
			EndTS:   span.EndTS,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) buildSegment(ctx context.Context, group []frame.Event, date, chunksDir string, result *Result) error {
	id := segment.NewID()
	dst := filepath.Join(chunksDir, id+".mp4")

	paths := make([]string, len(group))
	for i, ev := range group {
		paths[i] = ev.Path
	}

	encoded, err := b.encoder.Encode(ctx, paths, dst, encoder.Options{
		FPS:    b.opts.FPS,
		CRF:    b.opts.CRF,
		Preset: b.opts.Preset,
	})
	if err != nil {
		return err
	}

	videoPath, err := filepath.Rel(b.tree.Root(), dst)
	if err != nil {
		videoPath = dst
	}

	seg := catalog.Segment{
		ID:            id,
		Date:          date,
		StartTS:       group[0].Timestamp,
		EndTS:         group[len(group)-1].Timestamp,
		FrameCount:    len(group),
		FPS:           b.opts.FPS,
		Width:         encoded.Width,
		Height:        encoded.Height,
		FileSizeBytes: encoded.SizeBytes,
		VideoPath:     videoPath,
	}
	if err := b.store.InsertSegment(ctx, seg); err != nil {
		return err
	}

	result.SegmentsBuilt++
	result.FramesEncoded += len(group)
	result.BytesWritten += encoded.SizeBytes

	// Event delivery is best effort; the archive is already durable.
	event := eventstream.NewSegmentPersistedEvent(eventstream.SegmentMeta{
		ID:            seg.ID,
		Date:          seg.Date,
		StartTS:       seg.StartTS,
		EndTS:         seg.EndTS,
		FrameCount:    seg.FrameCount,
		FileSizeBytes: seg.FileSizeBytes,
		VideoPath:     seg.VideoPath,
	})
	if err := b.publisher.Publish(ctx, event); err != nil {
		b.logger.Warn("segment event publish failed", "segment", seg.ID, "error", err)
	}

	return nil
}

// formatDate converts YYYYMMDD to YYYY-MM-DD.
func formatDate(day string) string {
	if len(day) != 8 {
		return day
	}
	return day[:4] + "-" + day[4:6] + "-" + day[6:]
}

// Today returns the current day in the YYYYMMDD form the temp tree uses.
func Today() string {
	return time.Now().Format("20060102")
}
