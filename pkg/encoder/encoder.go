// Package encoder compresses a group of capture frames into a single
// video chunk.
package encoder

import "context"

// Options shape one encode invocation.
type Options struct {
	FPS    float64
	CRF    int
	Preset string
}

// Result describes the produced chunk. Width and Height are nil when the
// output could not be probed; the chunk is still valid.
type Result struct {
	SizeBytes int64
	Width     *int
	Height    *int
}

// Encoder turns an ordered list of frame paths into a video at dst.
type Encoder interface {
	Encode(ctx context.Context, framePaths []string, dst string, opts Options) (*Result, error)
	Available() bool
}
