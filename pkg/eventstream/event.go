package eventstream

import (
	"os"
	"time"

	"github.com/google/uuid"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeSegmentPersisted is emitted after a video segment and its
	// catalog rows are durably written.
	EventTypeSegmentPersisted = "playback.segment.persisted"

	// EventTypeSweepCompleted is emitted after a retention sweep finishes.
	EventTypeSweepCompleted = "playback.sweep.completed"
)

// ArchiveEvent is a transport-neutral event about the capture archive.
// Exactly one of Segment or Sweep is set, matching EventType.
type ArchiveEvent struct {
	SchemaVersion int          `json:"schema_version"`
	EventType     string       `json:"event_type"`
	EventID       string       `json:"event_id"`
	EmittedAt     time.Time    `json:"emitted_at"`
	Source        SourceMeta   `json:"source"`
	Segment       *SegmentMeta `json:"segment,omitempty"`
	Sweep         *SweepMeta   `json:"sweep,omitempty"`
}

// SourceMeta identifies the machine the event came from. Consumers fan
// events from many capture hosts into one topic and key partitions by it.
type SourceMeta struct {
	Host string `json:"host"`
}

func newSource() SourceMeta {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	return SourceMeta{Host: host}
}

// SegmentMeta describes a persisted segment.
type SegmentMeta struct {
	ID            string  `json:"id"`
	Date          string  `json:"date"`
	StartTS       float64 `json:"start_ts"`
	EndTS         float64 `json:"end_ts"`
	FrameCount    int     `json:"frame_count"`
	FileSizeBytes int64   `json:"file_size_bytes"`
	VideoPath     string  `json:"video_path"`
}

// SweepMeta describes a completed retention sweep.
type SweepMeta struct {
	Policy          string `json:"policy"`
	SegmentsDeleted int    `json:"segments_deleted"`
	FilesDeleted    int    `json:"files_deleted"`
	BytesReclaimed  int64  `json:"bytes_reclaimed"`
	DryRun          bool   `json:"dry_run"`
}

// NewSegmentPersistedEvent builds a v1 segment-persisted event.
func NewSegmentPersistedEvent(segment SegmentMeta) *ArchiveEvent {
	return &ArchiveEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeSegmentPersisted,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		Source:        newSource(),
		Segment:       &segment,
	}
}

// NewSweepCompletedEvent builds a v1 sweep-completed event.
func NewSweepCompletedEvent(sweep SweepMeta) *ArchiveEvent {
	return &ArchiveEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeSweepCompleted,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		Source:        newSource(),
		Sweep:         &sweep,
	}
}
