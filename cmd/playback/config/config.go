// Package configcmder provides the config command for managing persistent
// playback configuration stored in the .playback/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent playback configuration.

Configuration is stored as config.toml in the .playback/ directory and
provides default values for command flags. CLI flags and PLAYBACK_
environment variables always take precedence over config file values.

Keys use dotted notation matching the TOML section structure:
  storage.data_dir,
  video.fps, video.segment_seconds, video.crf, video.preset,
  retention.temp, retention.recording,
  ocr.workers, ocr.timeout_seconds, ocr.languages, ocr.min_confidence,
  capture.excluded_apps, capture.exclusion_mode,
  events.enabled, events.brokers, events.topic

Use subcommands to get, set, or list configuration values:
  playback config set <key> <value>    Set a configuration value
  playback config get <key>            Get a configuration value
  playback config list                 List all configuration values

Examples:
  playback config set retention.recording 1_month
  playback config set video.fps 1.0
  playback config get storage.data_dir
  playback config list`

const configShortDesc string = "Manage persistent playback configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
