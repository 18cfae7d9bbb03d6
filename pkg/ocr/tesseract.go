package ocr

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

const tesseractBin = "tesseract"

// Tesseract runs the system tesseract binary in TSV mode, which reports
// a per-word confidence alongside the text.
type Tesseract struct {
	language  string
	available bool
}

var _ Engine = (*Tesseract)(nil)

// NewTesseract creates an engine for the given language code ("eng",
// "deu", "eng+fra", ...).
func NewTesseract(language string) *Tesseract {
	if language == "" {
		language = "eng"
	}
	t := &Tesseract{language: language}
	_, err := exec.LookPath(tesseractBin)
	t.available = err == nil
	return t
}

// Available reports whether tesseract is installed.
func (t *Tesseract) Available() bool {
	return t.available
}

// Recognize extracts text from an image file with per-word confidence
// averaged into one score.
func (t *Tesseract) Recognize(ctx context.Context, imagePath string) (*Result, error) {
	if !t.available {
		return nil, fmt.Errorf("tesseract not installed")
	}

	cmd := exec.CommandContext(ctx, tesseractBin,
		imagePath, "stdout",
		"-l", t.language,
		"--psm", "3",
		"tsv",
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("tesseract %s: %w (stderr: %s)", imagePath, err, strings.TrimSpace(stderr.String()))
	}

	text, confidence := parseTSV(stdout.String())
	return &Result{Text: text, Confidence: confidence}, nil
}

// parseTSV collects word-level rows from tesseract's TSV output. Rows
// with a negative confidence are structural (page/block/line markers)
// and carry no text.
func parseTSV(out string) (string, float64) {
	var (
		words     []string
		confSum   float64
		confCount int
	)

	lines := strings.Split(out, "\n")
	for i, line := range lines {
		if i == 0 { // header
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 12 {
			continue
		}

		conf, err := strconv.ParseFloat(fields[10], 64)
		if err != nil || conf < 0 {
			continue
		}
		word := strings.TrimSpace(fields[11])
		if word == "" {
			continue
		}

		words = append(words, word)
		confSum += conf
		confCount++
	}

	if confCount == 0 {
		return "", 0
	}
	return strings.Join(words, " "), confSum / float64(confCount) / 100
}
