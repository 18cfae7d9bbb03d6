package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const segmentColumns = `id, date, start_ts, end_ts, frame_count, fps, width, height, file_size_bytes, video_path`

// InsertSegment upserts a segment row by id.
func (c *Catalog) InsertSegment(ctx context.Context, seg Segment) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO segments
		(`+segmentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		seg.ID, seg.Date, seg.StartTS, seg.EndTS, seg.FrameCount,
		seg.FPS, seg.Width, seg.Height, seg.FileSizeBytes, seg.VideoPath,
	)
	if err != nil {
		return fmt.Errorf("inserting segment %s: %w", seg.ID, err)
	}
	c.logger.Debug("inserted segment", "id", seg.ID, "start", seg.StartTS, "end", seg.EndTS)
	return nil
}

// InsertAppSegment upserts an app attribution interval by id.
func (c *Catalog) InsertAppSegment(ctx context.Context, seg AppSegment) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO appsegments
		(id, app_id, date, start_ts, end_ts)
		VALUES (?, ?, ?, ?, ?)`,
		seg.ID, seg.AppID, seg.Date, seg.StartTS, seg.EndTS,
	)
	if err != nil {
		return fmt.Errorf("inserting appsegment %s: %w", seg.ID, err)
	}
	return nil
}

// SegmentExists reports whether a segment row is present.
func (c *Catalog) SegmentExists(ctx context.Context, id string) (bool, error) {
	var found string
	err := c.db.QueryRowContext(ctx, `SELECT id FROM segments WHERE id = ?`, id).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking segment %s: %w", id, err)
	}
	return true, nil
}

// Segments returns every segment in chronological order.
func (c *Catalog) Segments(ctx context.Context) ([]Segment, error) {
	return c.querySegments(ctx, `
		SELECT `+segmentColumns+` FROM segments ORDER BY start_ts ASC`)
}

// SegmentsByDate returns segments recorded on a YYYY-MM-DD date.
func (c *Catalog) SegmentsByDate(ctx context.Context, date string) ([]Segment, error) {
	return c.querySegments(ctx, `
		SELECT `+segmentColumns+` FROM segments
		WHERE date = ? ORDER BY start_ts ASC`, date)
}

// SegmentsByDateRange returns segments between two dates, inclusive.
func (c *Catalog) SegmentsByDateRange(ctx context.Context, startDate, endDate string) ([]Segment, error) {
	return c.querySegments(ctx, `
		SELECT `+segmentColumns+` FROM segments
		WHERE date >= ? AND date <= ? ORDER BY start_ts ASC`, startDate, endDate)
}

// SegmentAt finds the segment whose time range contains ts, or
// ErrNotFound.
func (c *Catalog) SegmentAt(ctx context.Context, ts float64) (*Segment, error) {
	return c.querySegment(ctx, `
		SELECT `+segmentColumns+` FROM segments
		WHERE start_ts <= ? AND end_ts >= ?
		ORDER BY start_ts ASC LIMIT 1`, ts, ts)
}

// NearestSegmentForward finds the first segment starting at or after ts,
// or ErrNotFound.
func (c *Catalog) NearestSegmentForward(ctx context.Context, ts float64) (*Segment, error) {
	return c.querySegment(ctx, `
		SELECT `+segmentColumns+` FROM segments
		WHERE start_ts >= ?
		ORDER BY start_ts ASC LIMIT 1`, ts)
}

// NearestSegmentBackward finds the last segment ending at or before ts,
// or ErrNotFound. Note the asymmetry with the forward probe: backward
// matches on end_ts, so a segment straddling ts satisfies neither probe.
func (c *Catalog) NearestSegmentBackward(ctx context.Context, ts float64) (*Segment, error) {
	return c.querySegment(ctx, `
		SELECT `+segmentColumns+` FROM segments
		WHERE end_ts <= ?
		ORDER BY start_ts DESC LIMIT 1`, ts)
}

// LatestTimestamp returns the end of the newest segment, or ErrNotFound
// for an empty catalog.
func (c *Catalog) LatestTimestamp(ctx context.Context) (float64, error) {
	var latest sql.NullFloat64
	err := c.db.QueryRowContext(ctx, `SELECT MAX(end_ts) FROM segments`).Scan(&latest)
	if err != nil {
		return 0, fmt.Errorf("reading latest timestamp: %w", err)
	}
	if !latest.Valid {
		return 0, ErrNotFound
	}
	return latest.Float64, nil
}

// OldSegment pairs a segment id with its video path for sweeping.
type OldSegment struct {
	ID        string
	VideoPath string
}

// OldSegments lists segments starting before the cutoff, oldest first.
func (c *Catalog) OldSegments(ctx context.Context, cutoffTS float64) ([]OldSegment, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, video_path FROM segments
		WHERE start_ts < ? ORDER BY start_ts ASC`, cutoffTS)
	if err != nil {
		return nil, fmt.Errorf("listing old segments: %w", err)
	}
	defer rows.Close()

	var out []OldSegment
	for rows.Next() {
		var s OldSegment
		if err := rows.Scan(&s.ID, &s.VideoPath); err != nil {
			return nil, fmt.Errorf("scanning old segment: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// DeleteSegment removes a segment row and its OCR rows, including the
// search index entries. The video file is the caller's problem and must
// already be gone.
func (c *Catalog) DeleteSegment(ctx context.Context, id string) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("deleting segment %s: %w", id, err)
	}
	defer tx.Rollback()

	// The FTS table is not covered by the FK cascade; purge it first
	// while the ocr_text rows still exist.
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM ocr_search
		WHERE rowid IN (SELECT id FROM ocr_text WHERE segment_id = ?)`, id); err != nil {
		return fmt.Errorf("purging search index for segment %s: %w", id, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM segments WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting segment %s: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("deleting segment %s: %w", id, err)
	}
	c.logger.Debug("deleted segment", "id", id)
	return nil
}

// DeleteAppSegment removes one app attribution row.
func (c *Catalog) DeleteAppSegment(ctx context.Context, id string) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM appsegments WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting appsegment %s: %w", id, err)
	}
	return nil
}

// OldAppSegments lists attribution rows starting before the cutoff.
func (c *Catalog) OldAppSegments(ctx context.Context, cutoffTS float64) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id FROM appsegments WHERE start_ts < ? ORDER BY start_ts ASC`, cutoffTS)
	if err != nil {
		return nil, fmt.Errorf("listing old appsegments: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning old appsegment: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// AppSegments returns every attribution interval in chronological order.
func (c *Catalog) AppSegments(ctx context.Context) ([]AppSegment, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, app_id, date, start_ts, end_ts
		FROM appsegments ORDER BY start_ts ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing appsegments: %w", err)
	}
	defer rows.Close()

	var out []AppSegment
	for rows.Next() {
		var s AppSegment
		if err := rows.Scan(&s.ID, &s.AppID, &s.Date, &s.StartTS, &s.EndTS); err != nil {
			return nil, fmt.Errorf("scanning appsegment: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (c *Catalog) querySegment(ctx context.Context, query string, args ...any) (*Segment, error) {
	var s Segment
	err := c.db.QueryRowContext(ctx, query, args...).Scan(
		&s.ID, &s.Date, &s.StartTS, &s.EndTS, &s.FrameCount,
		&s.FPS, &s.Width, &s.Height, &s.FileSizeBytes, &s.VideoPath,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying segment: %w", err)
	}
	return &s, nil
}

func (c *Catalog) querySegments(ctx context.Context, query string, args ...any) ([]Segment, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying segments: %w", err)
	}
	defer rows.Close()

	var out []Segment
	for rows.Next() {
		var s Segment
		if err := rows.Scan(
			&s.ID, &s.Date, &s.StartTS, &s.EndTS, &s.FrameCount,
			&s.FPS, &s.Width, &s.Height, &s.FileSizeBytes, &s.VideoPath,
		); err != nil {
			return nil, fmt.Errorf("scanning segment: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
