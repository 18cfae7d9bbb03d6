// Package searchcmder provides the `playback search` CLI command.
package searchcmder

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/playback/cmd/playback/appenv"
	"github.com/papercomputeco/playback/pkg/catalog"
	"github.com/papercomputeco/playback/pkg/utils"
)

const searchLongDesc string = `Search the indexed screen text.

Matches are ranked by relevance and reported with their capture time,
confidence, and the segment holding the video. Multi-word queries use
FTS5 syntax, so quoted phrases and boolean operators work.

Examples:
  playback search invoice
  playback search "stripe dashboard"
  playback search error --limit 5 --min-confidence 0.8`

const searchShortDesc string = "Search indexed screen text"

type searchCommander struct {
	limit         int
	minConfidence float64
}

// NewSearchCmd creates the search cobra command.
func NewSearchCmd() *cobra.Command {
	cmder := &searchCommander{}

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: searchShortDesc,
		Long:  searchLongDesc,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd, strings.Join(args, " "))
		},
	}

	cmd.Flags().IntVarP(&cmder.limit, "limit", "n", 20, "Maximum results to return")
	cmd.Flags().Float64Var(&cmder.minConfidence, "min-confidence", -1, "Minimum recognition confidence, 0 to 1 (defaults to the configured value)")

	return cmd
}

func (c *searchCommander) run(ctx context.Context, cmd *cobra.Command, query string) error {
	env, err := appenv.Load(cmd)
	if err != nil {
		return err
	}

	catalogPath := env.Tree.CatalogPath()
	if !catalog.Exists(catalogPath) {
		return fmt.Errorf("no catalog at %s (run `playback build` first)", catalogPath)
	}

	cat, err := catalog.Open(catalogPath, env.Logger)
	if err != nil {
		return err
	}
	defer func() { _ = cat.Close() }()

	minConfidence := c.minConfidence
	if minConfidence < 0 {
		minConfidence = env.Config.OCR.MinConfidence
	}

	records, err := cat.SearchText(ctx, query, minConfidence, c.limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(records) == 0 {
		fmt.Fprintln(out, "No matches")
		return nil
	}

	for _, rec := range records {
		at := time.Unix(int64(rec.Timestamp), 0).Format("2006-01-02 15:04:05")
		segment := "unlinked"
		if rec.SegmentID != nil {
			segment = *rec.SegmentID
		}
		fmt.Fprintf(out, "%s  [%.2f]  %s  %s\n", at, rec.Confidence, segment, utils.Truncate(rec.TextContent, 120))
	}
	fmt.Fprintf(out, "%d matches\n", len(records))

	return nil
}
