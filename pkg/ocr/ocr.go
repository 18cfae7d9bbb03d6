// Package ocr extracts on-screen text from capture frames so the archive
// is searchable.
//
// Recognition shells out to Tesseract rather than binding it via CGO.
// Install on macOS: brew install tesseract
package ocr

import "context"

// Result is recognized text for one image. Confidence is normalized to
// [0, 1]; empty Text with a nil error means the frame genuinely contains
// no recognizable text.
type Result struct {
	Text       string
	Confidence float64
}

// Engine recognizes text in a single image file.
type Engine interface {
	Recognize(ctx context.Context, imagePath string) (*Result, error)
	Available() bool
}
