package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/papercomputeco/playback/pkg/dotdir"
)

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the PLAYBACK_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindPFlag in the command's PreRunE)
//  2. Environment variables (PLAYBACK_VIDEO_FPS, PLAYBACK_RETENTION_TEMP, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	// 1. Register all defaults from NewDefaultConfig().
	setViperDefaults(v)

	// 2. Config file discovery via dotdir resolution.
	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// 3. Environment variables: PLAYBACK_STORAGE_DATA_DIR, PLAYBACK_OCR_WORKERS, etc.
	v.SetEnvPrefix("PLAYBACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// Storage
	v.SetDefault("storage.data_dir", d.Storage.DataDir)

	// Video
	v.SetDefault("video.fps", d.Video.FPS)
	v.SetDefault("video.segment_seconds", d.Video.SegmentSeconds)
	v.SetDefault("video.crf", d.Video.CRF)
	v.SetDefault("video.preset", d.Video.Preset)

	// Retention
	v.SetDefault("retention.temp", d.Retention.Temp)
	v.SetDefault("retention.recording", d.Retention.Recording)

	// OCR
	v.SetDefault("ocr.workers", d.OCR.Workers)
	v.SetDefault("ocr.timeout_seconds", d.OCR.TimeoutSeconds)
	v.SetDefault("ocr.languages", d.OCR.Languages)
	v.SetDefault("ocr.min_confidence", d.OCR.MinConfidence)

	// Capture
	v.SetDefault("capture.excluded_apps", d.Capture.ExcludedApps)
	v.SetDefault("capture.exclusion_mode", d.Capture.ExclusionMode)

	// Events
	v.SetDefault("events.enabled", d.Events.Enabled)
	v.SetDefault("events.brokers", d.Events.Brokers)
	v.SetDefault("events.topic", d.Events.Topic)
}
