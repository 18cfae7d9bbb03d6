package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Config represents the persistent playback configuration stored as
// config.toml in the .playback/ directory. The TOML layout uses sections
// for logical grouping.
type Config struct {
	Version   int             `toml:"version"`
	Storage   StorageConfig   `toml:"storage"`
	Video     VideoConfig     `toml:"video"`
	Retention RetentionConfig `toml:"retention"`
	OCR       OCRConfig       `toml:"ocr"`
	Capture   CaptureConfig   `toml:"capture"`
	Events    EventsConfig    `toml:"events"`
}

// StorageConfig holds the location of the on-disk archive: the temp/ frame
// tree, the chunks/ video tree and the metadata catalog all live under
// DataDir.
type StorageConfig struct {
	DataDir string `toml:"data_dir,omitempty"`
}

// VideoConfig holds encoding parameters for segment building.
type VideoConfig struct {
	FPS            float64 `toml:"fps,omitempty"`
	SegmentSeconds float64 `toml:"segment_seconds,omitempty"`
	CRF            int     `toml:"crf,omitempty"`
	Preset         string  `toml:"preset,omitempty"`
}

// RetentionConfig holds the two independent retention policies.
// Valid values: never, 1_day, 1_week, 1_month.
type RetentionConfig struct {
	Temp      string `toml:"temp,omitempty"`
	Recording string `toml:"recording,omitempty"`
}

// OCRConfig holds text extraction settings.
type OCRConfig struct {
	Workers        int     `toml:"workers,omitempty"`
	TimeoutSeconds float64 `toml:"timeout_seconds,omitempty"`
	Languages      string  `toml:"languages,omitempty"`
	MinConfidence  float64 `toml:"min_confidence,omitempty"`
}

// CaptureConfig holds ingestion-side filtering. Frames attributed to an
// excluded app are skipped before segmentation.
type CaptureConfig struct {
	ExcludedApps  []string `toml:"excluded_apps,omitempty"`
	ExclusionMode string   `toml:"exclusion_mode,omitempty"`
}

// EventsConfig holds the optional archive event stream settings.
type EventsConfig struct {
	Enabled bool     `toml:"enabled,omitempty"`
	Brokers []string `toml:"brokers,omitempty"`
	Topic   string   `toml:"topic,omitempty"`
}

// IsAppExcluded reports whether frames attributed to the given app id
// should be skipped during ingestion.
func (c *Config) IsAppExcluded(appID string) bool {
	for _, excluded := range c.Capture.ExcludedApps {
		if excluded == appID {
			return true
		}
	}
	return false
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"storage.data_dir": {
		get: func(c *Config) string { return c.Storage.DataDir },
		set: func(c *Config, v string) error { c.Storage.DataDir = v; return nil },
	},
	"video.fps": {
		get: func(c *Config) string { return formatFloat(c.Video.FPS) },
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("invalid value for video.fps: %w", err)
			}
			c.Video.FPS = f
			return nil
		},
	},
	"video.segment_seconds": {
		get: func(c *Config) string { return formatFloat(c.Video.SegmentSeconds) },
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("invalid value for video.segment_seconds: %w", err)
			}
			c.Video.SegmentSeconds = f
			return nil
		},
	},
	"video.crf": {
		get: func(c *Config) string { return strconv.Itoa(c.Video.CRF) },
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid value for video.crf: %w", err)
			}
			c.Video.CRF = n
			return nil
		},
	},
	"video.preset": {
		get: func(c *Config) string { return c.Video.Preset },
		set: func(c *Config, v string) error { c.Video.Preset = v; return nil },
	},
	"retention.temp": {
		get: func(c *Config) string { return c.Retention.Temp },
		set: func(c *Config, v string) error { c.Retention.Temp = v; return nil },
	},
	"retention.recording": {
		get: func(c *Config) string { return c.Retention.Recording },
		set: func(c *Config, v string) error { c.Retention.Recording = v; return nil },
	},
	"ocr.workers": {
		get: func(c *Config) string { return strconv.Itoa(c.OCR.Workers) },
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid value for ocr.workers: %w", err)
			}
			c.OCR.Workers = n
			return nil
		},
	},
	"ocr.timeout_seconds": {
		get: func(c *Config) string { return formatFloat(c.OCR.TimeoutSeconds) },
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("invalid value for ocr.timeout_seconds: %w", err)
			}
			c.OCR.TimeoutSeconds = f
			return nil
		},
	},
	"ocr.languages": {
		get: func(c *Config) string { return c.OCR.Languages },
		set: func(c *Config, v string) error { c.OCR.Languages = v; return nil },
	},
	"ocr.min_confidence": {
		get: func(c *Config) string { return formatFloat(c.OCR.MinConfidence) },
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("invalid value for ocr.min_confidence: %w", err)
			}
			c.OCR.MinConfidence = f
			return nil
		},
	},
	"capture.excluded_apps": {
		get: func(c *Config) string { return strings.Join(c.Capture.ExcludedApps, ",") },
		set: func(c *Config, v string) error {
			c.Capture.ExcludedApps = splitList(v)
			return nil
		},
	},
	"capture.exclusion_mode": {
		get: func(c *Config) string { return c.Capture.ExclusionMode },
		set: func(c *Config, v string) error { c.Capture.ExclusionMode = v; return nil },
	},
	"events.enabled": {
		get: func(c *Config) string { return strconv.FormatBool(c.Events.Enabled) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for events.enabled: %w", err)
			}
			c.Events.Enabled = b
			return nil
		},
	},
	"events.brokers": {
		get: func(c *Config) string { return strings.Join(c.Events.Brokers, ",") },
		set: func(c *Config, v string) error {
			c.Events.Brokers = splitList(v)
			return nil
		},
	},
	"events.topic": {
		get: func(c *Config) string { return c.Events.Topic },
		set: func(c *Config, v string) error { c.Events.Topic = v; return nil },
	},
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func splitList(v string) []string {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
