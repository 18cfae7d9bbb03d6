package config

import (
	"os"
	"path/filepath"
)

const (
	defaultFPS            = 30.0
	defaultSegmentSeconds = 5.0
	defaultCRF            = 28
	defaultPreset         = "veryfast"

	defaultTempRetention      = "1_week"
	defaultRecordingRetention = "never"

	defaultOCRWorkers        = 4
	defaultOCRTimeoutSeconds = 5.0
	defaultOCRLanguages      = "eng"
	defaultOCRMinConfidence  = 0.5

	defaultExclusionMode = "skip"

	defaultEventsTopic = "playback.archive"
)

// DefaultDataDir returns the default archive root: <home>/.playback/data.
// Falls back to ./playback-data when the home directory cannot be resolved.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "playback-data"
	}
	return filepath.Join(home, ".playback", "data")
}

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Storage: StorageConfig{
			DataDir: DefaultDataDir(),
		},
		Video: VideoConfig{
			FPS:            defaultFPS,
			SegmentSeconds: defaultSegmentSeconds,
			CRF:            defaultCRF,
			Preset:         defaultPreset,
		},
		Retention: RetentionConfig{
			Temp:      defaultTempRetention,
			Recording: defaultRecordingRetention,
		},
		OCR: OCRConfig{
			Workers:        defaultOCRWorkers,
			TimeoutSeconds: defaultOCRTimeoutSeconds,
			Languages:      defaultOCRLanguages,
			MinConfidence:  defaultOCRMinConfidence,
		},
		Capture: CaptureConfig{
			ExclusionMode: defaultExclusionMode,
		},
		Events: EventsConfig{
			Topic: defaultEventsTopic,
		},
	}
}
