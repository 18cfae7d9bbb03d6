package catalog

// Segment is one encoded video chunk's catalog row. VideoPath is
// relative to the data directory so the archive can be relocated.
type Segment struct {
	ID            string
	Date          string // YYYY-MM-DD
	StartTS       float64
	EndTS         float64
	FrameCount    int
	FPS           float64
	Width         *int
	Height        *int
	FileSizeBytes int64
	VideoPath     string
}

// AppSegment is a half-open slice of the timeline attributed to one app.
// AppID is nil when the capture source could not identify the app.
type AppSegment struct {
	ID      string
	AppID   *string
	Date    string
	StartTS float64
	EndTS   float64
}

// OCRRecord is recognized text for one frame. SegmentID links the frame
// to the segment that contains its timestamp; the row cascades away with
// the segment.
type OCRRecord struct {
	ID          int64
	FramePath   string
	SegmentID   *string
	Timestamp   float64
	TextContent string
	Confidence  float64
	Language    string
}

// Stats summarizes the catalog for diagnostics.
type Stats struct {
	SegmentCount      int64
	AppSegmentCount   int64
	UniqueAppCount    int64
	OCRCount          int64
	EarliestTS        *float64
	LatestTS          *float64
	TotalVideoBytes   int64
	TotalFrames       int64
	DatabaseSizeBytes int64
	SchemaVersion     string
}
