// Package statuscmder provides the `playback status` CLI command.
package statuscmder

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/playback/cmd/playback/appenv"
	"github.com/papercomputeco/playback/pkg/catalog"
	"github.com/papercomputeco/playback/pkg/eventstream/nop"
	"github.com/papercomputeco/playback/pkg/retention"
	"github.com/papercomputeco/playback/pkg/utils"
)

const statusLongDesc string = `Report what the archive holds and what it costs on disk.

Prints catalog counts (segments, app intervals, indexed text rows), the
archive's time span, and per-area disk usage.

Examples:
  playback status`

const statusShortDesc string = "Report archive contents and disk usage"

// NewStatusCmd creates the status cobra command.
func NewStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: statusShortDesc,
		Long:  statusLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd.Context(), cmd)
		},
	}

	return cmd
}

func runStatus(ctx context.Context, cmd *cobra.Command) error {
	env, err := appenv.Load(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	catalogPath := env.Tree.CatalogPath()
	if !catalog.Exists(catalogPath) {
		fmt.Fprintf(out, "No catalog at %s (archive is empty)\n", catalogPath)
		return nil
	}

	cat, err := catalog.Open(catalogPath, env.Logger)
	if err != nil {
		return err
	}
	defer func() { _ = cat.Close() }()

	stats, err := cat.Stats(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Data dir:      %s\n", env.Tree.Root())
	fmt.Fprintf(out, "Schema:        %s\n", stats.SchemaVersion)
	fmt.Fprintf(out, "Segments:      %d (%d frames, %s of video)\n",
		stats.SegmentCount, stats.TotalFrames, utils.FormatSize(stats.TotalVideoBytes))
	fmt.Fprintf(out, "App intervals: %d across %d apps\n", stats.AppSegmentCount, stats.UniqueAppCount)
	fmt.Fprintf(out, "Text rows:     %d\n", stats.OCRCount)

	if stats.EarliestTS != nil && stats.LatestTS != nil {
		from := time.Unix(int64(*stats.EarliestTS), 0).Format("2006-01-02 15:04")
		to := time.Unix(int64(*stats.LatestTS), 0).Format("2006-01-02 15:04")
		fmt.Fprintf(out, "Span:          %s to %s\n", from, to)
	}

	sweeper := retention.NewSweeper(env.Tree, cat, nop.NewPublisher(), env.Logger)
	usage, err := sweeper.Usage()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Disk:          %s\n", usage.Summary())

	return nil
}
