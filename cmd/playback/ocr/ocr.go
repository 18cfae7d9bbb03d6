// Package ocrcmder provides the `playback ocr` CLI command.
package ocrcmder

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/playback/cmd/playback/appenv"
	"github.com/papercomputeco/playback/pkg/builder"
	"github.com/papercomputeco/playback/pkg/catalog"
	"github.com/papercomputeco/playback/pkg/encoder"
	"github.com/papercomputeco/playback/pkg/frame"
	"github.com/papercomputeco/playback/pkg/ocr"
)

const ocrLongDesc string = `Recognize text in a day's captured frames and index it for search.

Runs tesseract over every frame in the day's temp directory, links each
result to the segment covering its timestamp, and writes the text into
the catalog's full-text index.

Examples:
  playback ocr
  playback ocr --day 20260815
  playback ocr --workers 2 --timeout 60s`

const ocrShortDesc string = "Index captured frames for full-text search"

type ocrCommander struct {
	day      string
	workers  int
	timeout  time.Duration
	language string
}

// NewOCRCmd creates the ocr cobra command.
func NewOCRCmd() *cobra.Command {
	cmder := &ocrCommander{}

	cmd := &cobra.Command{
		Use:   "ocr",
		Short: ocrShortDesc,
		Long:  ocrLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd.Context(), cmd)
		},
	}

	cmd.Flags().StringVar(&cmder.day, "day", "", "Day to index as YYYYMMDD (defaults to today)")
	cmd.Flags().IntVar(&cmder.workers, "workers", 0, "Recognition workers (defaults to the configured count)")
	cmd.Flags().DurationVar(&cmder.timeout, "timeout", 0, "Per-frame recognition timeout (defaults to the configured value)")
	cmd.Flags().StringVar(&cmder.language, "language", "", "Tesseract language code (defaults to the configured value)")

	return cmd
}

func (c *ocrCommander) run(ctx context.Context, cmd *cobra.Command) error {
	env, err := appenv.Load(cmd)
	if err != nil {
		return err
	}

	cat, err := catalog.Open(env.Tree.CatalogPath(), env.Logger)
	if err != nil {
		return err
	}
	defer func() { _ = cat.Close() }()

	workers := c.workers
	if workers <= 0 {
		workers = env.Config.OCR.Workers
	}
	timeout := c.timeout
	if timeout <= 0 {
		timeout = time.Duration(env.Config.OCR.TimeoutSeconds * float64(time.Second))
	}
	language := c.language
	if language == "" {
		language = env.Config.OCR.Languages
	}

	loader := frame.NewLoader(encoder.NewFFmpeg(), env.Logger, env.Config.Capture.ExcludedApps)
	engine := ocr.NewTesseract(language)

	pipeline := ocr.NewPipeline(cat, engine, loader, env.Logger, language, ocr.BatchOptions{
		Workers: workers,
		Timeout: timeout,
	})

	day := c.day
	if day == "" {
		day = builder.Today()
	}

	dayDir, err := env.Tree.TempDayDir(day)
	if err != nil {
		return err
	}

	result, err := pipeline.RunDay(ctx, dayDir)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), result.Summary())
	return nil
}
