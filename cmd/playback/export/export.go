// Package exportcmder provides the `playback export` CLI command.
package exportcmder

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/playback/cmd/playback/appenv"
	"github.com/papercomputeco/playback/pkg/catalog"
	"github.com/papercomputeco/playback/pkg/export"
)

const exportLongDesc string = `Export the archive as a portable ZIP snapshot.

The snapshot holds every video segment, a consistent copy of the catalog,
and a manifest describing what was exported. It can be unpacked on another
machine and pointed at directly as a data directory.

Examples:
  playback export
  playback export --output /tmp/archive.zip
  playback export --dry-run`

const exportShortDesc string = "Export the archive as a portable ZIP snapshot"

type exportCommander struct {
	output string
	dryRun bool
}

// NewExportCmd creates the export cobra command.
func NewExportCmd() *cobra.Command {
	cmder := &exportCommander{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: exportShortDesc,
		Long:  exportLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd.Context(), cmd)
		},
	}

	cmd.Flags().StringVarP(&cmder.output, "output", "o", "", "Snapshot path (defaults to the exports directory)")
	cmd.Flags().BoolVar(&cmder.dryRun, "dry-run", false, "Report what would be exported without writing")

	return cmd
}

func (c *exportCommander) run(ctx context.Context, cmd *cobra.Command) error {
	env, err := appenv.Load(cmd)
	if err != nil {
		return err
	}

	catalogPath := env.Tree.CatalogPath()
	if !catalog.Exists(catalogPath) {
		return fmt.Errorf("no catalog at %s, nothing to export", catalogPath)
	}

	cat, err := catalog.Open(catalogPath, env.Logger)
	if err != nil {
		return err
	}
	defer func() { _ = cat.Close() }()

	exporter := export.New(env.Tree, cat, env.Logger)

	result, err := exporter.Export(ctx, c.output, c.dryRun)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), result.Summary())
	return nil
}
