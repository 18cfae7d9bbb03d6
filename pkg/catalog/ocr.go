package catalog

import (
	"context"
	"fmt"
	"strings"
)

const ocrColumns = `id, frame_path, segment_id, timestamp, text_content, confidence, language`

// InsertOCRBatch inserts recognized text rows and their search index
// entries in one transaction. Rows whose text is blank are kept in
// ocr_text (the frame was processed) but never enter the search index.
// Returns the number of rows inserted; an empty batch is a no-op.
func (c *Catalog) InsertOCRBatch(ctx context.Context, records []OCRRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("inserting ocr batch: %w", err)
	}
	defer tx.Rollback()

	textStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO ocr_text (frame_path, segment_id, timestamp, text_content, confidence, language)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("inserting ocr batch: %w", err)
	}
	defer textStmt.Close()

	searchStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO ocr_search (rowid, text_content) VALUES (?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("inserting ocr batch: %w", err)
	}
	defer searchStmt.Close()

	for _, rec := range records {
		res, err := textStmt.ExecContext(ctx,
			rec.FramePath, rec.SegmentID, rec.Timestamp,
			rec.TextContent, rec.Confidence, rec.Language,
		)
		if err != nil {
			return 0, fmt.Errorf("inserting ocr row for %s: %w", rec.FramePath, err)
		}

		if strings.TrimSpace(rec.TextContent) == "" {
			continue
		}

		rowID, err := res.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("inserting ocr row for %s: %w", rec.FramePath, err)
		}
		if _, err := searchStmt.ExecContext(ctx, rowID, rec.TextContent); err != nil {
			return 0, fmt.Errorf("indexing ocr row for %s: %w", rec.FramePath, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("inserting ocr batch: %w", err)
	}

	c.logger.Debug("inserted ocr batch", "count", len(records))
	return len(records), nil
}

// OCRBySegment returns a segment's OCR rows ordered by frame timestamp.
func (c *Catalog) OCRBySegment(ctx context.Context, segmentID string) ([]OCRRecord, error) {
	return c.queryOCR(ctx, `
		SELECT `+ocrColumns+` FROM ocr_text
		WHERE segment_id = ? ORDER BY timestamp ASC`, segmentID)
}

// OCRByRange returns OCR rows whose frame timestamp falls in [startTS, endTS].
func (c *Catalog) OCRByRange(ctx context.Context, startTS, endTS float64) ([]OCRRecord, error) {
	return c.queryOCR(ctx, `
		SELECT `+ocrColumns+` FROM ocr_text
		WHERE timestamp >= ? AND timestamp <= ? ORDER BY timestamp ASC`, startTS, endTS)
}

// DeleteOCRBySegment purges a segment's OCR rows and their search index
// entries. Used when re-running OCR over an already indexed segment.
func (c *Catalog) DeleteOCRBySegment(ctx context.Context, segmentID string) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("deleting ocr for segment %s: %w", segmentID, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM ocr_search
		WHERE rowid IN (SELECT id FROM ocr_text WHERE segment_id = ?)`, segmentID); err != nil {
		return fmt.Errorf("deleting ocr index for segment %s: %w", segmentID, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM ocr_text WHERE segment_id = ?`, segmentID); err != nil {
		return fmt.Errorf("deleting ocr rows for segment %s: %w", segmentID, err)
	}

	return tx.Commit()
}

// SearchText runs a ranked full-text query over recognized text. The
// query uses FTS5 syntax (phrases, prefixes, AND/OR/NOT); rows below
// minConfidence are filtered out.
func (c *Catalog) SearchText(ctx context.Context, query string, minConfidence float64, limit int) ([]OCRRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	return c.queryOCR(ctx, `
		SELECT o.id, o.frame_path, o.segment_id, o.timestamp, o.text_content, o.confidence, o.language
		FROM ocr_search s
		JOIN ocr_text o ON o.id = s.rowid
		WHERE ocr_search MATCH ? AND o.confidence >= ?
		ORDER BY bm25(ocr_search)
		LIMIT ?`, query, minConfidence, limit)
}

// OCRCount reports the number of indexed text rows.
func (c *Catalog) OCRCount(ctx context.Context) (int64, error) {
	var n int64
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ocr_text`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting ocr rows: %w", err)
	}
	return n, nil
}

func (c *Catalog) queryOCR(ctx context.Context, query string, args ...any) ([]OCRRecord, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying ocr rows: %w", err)
	}
	defer rows.Close()

	var out []OCRRecord
	for rows.Next() {
		var r OCRRecord
		if err := rows.Scan(
			&r.ID, &r.FramePath, &r.SegmentID, &r.Timestamp,
			&r.TextContent, &r.Confidence, &r.Language,
		); err != nil {
			return nil, fmt.Errorf("scanning ocr row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
