// Package appenv assembles the runtime environment shared by playback
// subcommands: effective configuration (defaults, config.toml, then
// PLAYBACK_ environment variables), the data tree, and the logger.
package appenv

import (
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papercomputeco/playback/pkg/config"
	"github.com/papercomputeco/playback/pkg/datadir"
	"github.com/papercomputeco/playback/pkg/eventstream"
	"github.com/papercomputeco/playback/pkg/eventstream/kafka"
	"github.com/papercomputeco/playback/pkg/eventstream/nop"
	"github.com/papercomputeco/playback/pkg/logger"
)

// Env is everything a subcommand needs to get to work.
type Env struct {
	Config *config.Config
	Tree   *datadir.Tree
	Logger *slog.Logger
}

// Load resolves the environment from the command's persistent flags.
func Load(cmd *cobra.Command) (*Env, error) {
	debug, _ := cmd.Flags().GetBool("debug")
	configDir, _ := cmd.Flags().GetString("config-dir")

	v, err := config.InitViper(configDir)
	if err != nil {
		return nil, err
	}

	cfg := fromViper(v)
	log := logger.New(logger.WithDebug(debug), logger.WithPretty(true))

	return &Env{
		Config: cfg,
		Tree:   datadir.New(cfg.Storage.DataDir),
		Logger: log,
	}, nil
}

// Publisher builds the archive event publisher the config asks for.
func (e *Env) Publisher() eventstream.Publisher {
	if e.Config.Events.Enabled && len(e.Config.Events.Brokers) > 0 {
		return kafka.NewPublisher(e.Config.Events.Brokers, e.Config.Events.Topic)
	}
	return nop.NewPublisher()
}

func fromViper(v *viper.Viper) *config.Config {
	return &config.Config{
		Version: v.GetInt("version"),
		Storage: config.StorageConfig{
			DataDir: v.GetString("storage.data_dir"),
		},
		Video: config.VideoConfig{
			FPS:            v.GetFloat64("video.fps"),
			SegmentSeconds: v.GetFloat64("video.segment_seconds"),
			CRF:            v.GetInt("video.crf"),
			Preset:         v.GetString("video.preset"),
		},
		Retention: config.RetentionConfig{
			Temp:      v.GetString("retention.temp"),
			Recording: v.GetString("retention.recording"),
		},
		OCR: config.OCRConfig{
			Workers:        v.GetInt("ocr.workers"),
			TimeoutSeconds: v.GetFloat64("ocr.timeout_seconds"),
			Languages:      v.GetString("ocr.languages"),
			MinConfidence:  v.GetFloat64("ocr.min_confidence"),
		},
		Capture: config.CaptureConfig{
			ExcludedApps:  v.GetStringSlice("capture.excluded_apps"),
			ExclusionMode: v.GetString("capture.exclusion_mode"),
		},
		Events: config.EventsConfig{
			Enabled: v.GetBool("events.enabled"),
			Brokers: v.GetStringSlice("events.brokers"),
			Topic:   v.GetString("events.topic"),
		},
	}
}
