// Package playbackcmder
package playbackcmder

import (
	"github.com/spf13/cobra"

	buildcmder "github.com/papercomputeco/playback/cmd/playback/build"
	cleanupcmder "github.com/papercomputeco/playback/cmd/playback/cleanup"
	configcmder "github.com/papercomputeco/playback/cmd/playback/config"
	exportcmder "github.com/papercomputeco/playback/cmd/playback/export"
	initcmder "github.com/papercomputeco/playback/cmd/playback/init"
	ocrcmder "github.com/papercomputeco/playback/cmd/playback/ocr"
	searchcmder "github.com/papercomputeco/playback/cmd/playback/search"
	statuscmder "github.com/papercomputeco/playback/cmd/playback/status"
	versioncmder "github.com/papercomputeco/playback/cmd/playback/version"
)

const playbackLongDesc string = `Playback archives what your screen looked like and which app was active, when.

Common workflows:
  playback init          Create the config and data directories
  playback build         Encode captured frames into video segments
  playback ocr           Index segment frames for full-text search
  playback search        Search indexed screen text
  playback cleanup       Apply retention policies and reclaim space`

const playbackShortDesc string = "Playback - Screen Archive"

func NewPlaybackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "playback",
		Short: playbackShortDesc,
		Long:  playbackLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Directory holding config.toml (defaults to ./.playback then ~/.playback)")

	// Add subcommands
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(buildcmder.NewBuildCmd())
	cmd.AddCommand(ocrcmder.NewOCRCmd())
	cmd.AddCommand(cleanupcmder.NewCleanupCmd())
	cmd.AddCommand(searchcmder.NewSearchCmd())
	cmd.AddCommand(statuscmder.NewStatusCmd())
	cmd.AddCommand(exportcmder.NewExportCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
