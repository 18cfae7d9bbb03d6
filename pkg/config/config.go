package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"

	"github.com/papercomputeco/playback/pkg/dotdir"
)

const (
	configFile = "config.toml"

	// v0 is the alpha version of the config
	v0 = 0

	// CurrentV is the currently supported version, points to v0
	CurrentV = v0
)

type Configer struct {
	ddm        *dotdir.Manager
	targetPath string
}

func NewConfiger(override string) (*Configer, error) {
	cfger := &Configer{}

	cfger.ddm = dotdir.NewManager()
	target, err := cfger.ddm.Target(override)
	if err != nil {
		return nil, err
	}

	// If no .playback/ directory was resolved, targetPath stays empty;
	// LoadConfig will return defaults and SaveConfig will error clearly.
	if target == "" {
		return cfger, nil
	}

	path := filepath.Join(target, configFile)
	_, err = os.Stat(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Always set targetPath when the directory exists so SaveConfig
	// can create or overwrite the file.
	cfger.targetPath = path

	return cfger, nil
}

// ValidConfigKeys returns the sorted list of all supported configuration key names.
func ValidConfigKeys() []string {
	keys := make([]string, 0, len(configKeys))
	for k := range configKeys {
		keys = append(keys, k)
	}

	// Return in a stable, logical order matching the TOML section layout.
	ordered := []string{
		"storage.data_dir",
		"video.fps",
		"video.segment_seconds",
		"video.crf",
		"video.preset",
		"retention.temp",
		"retention.recording",
		"ocr.workers",
		"ocr.timeout_seconds",
		"ocr.languages",
		"ocr.min_confidence",
		"capture.excluded_apps",
		"capture.exclusion_mode",
		"events.enabled",
		"events.brokers",
		"events.topic",
	}

	// Sanity: only return keys that actually exist in the map.
	result := make([]string, 0, len(ordered))
	for _, k := range ordered {
		if _, ok := configKeys[k]; ok {
			result = append(result, k)
		}
	}

	// Append any keys in the map that we missed in the ordered list.
	seen := make(map[string]bool, len(result))
	for _, k := range result {
		seen[k] = true
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !seen[k] {
			result = append(result, k)
		}
	}

	return result
}

// IsValidConfigKey returns true if the given key is a supported configuration key.
func IsValidConfigKey(key string) bool {
	_, ok := configKeys[key]
	return ok
}

func (c *Configer) GetTarget() string {
	return c.targetPath
}

// ParseConfigTOML parses raw TOML bytes into a Config.
func ParseConfigTOML(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// LoadConfig loads the configuration from config.toml in the target
// .playback/ directory. If the file does not exist, returns
// NewDefaultConfig() so callers always receive a fully-populated Config
// with sane defaults. Fields explicitly set in the file override the
// defaults; values outside their valid domain are reset to defaults
// rather than rejected, so a hand-edited config never bricks the services.
func (c *Configer) LoadConfig() (*Config, error) {
	if c.targetPath == "" {
		return NewDefaultConfig(), nil
	}

	data, err := os.ReadFile(c.targetPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewDefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg, err := ParseConfigTOML(data)
	if err != nil {
		return nil, err
	}

	// Merge in defaults: fill in any zero-value fields from the loaded config
	applyDefaults(cfg)
	cfg.normalize()

	return cfg, nil
}

// applyDefaults fills zero-value fields in cfg with values from NewDefaultConfig().
func applyDefaults(cfg *Config) {
	defaults := NewDefaultConfig()

	if cfg.Version == 0 {
		cfg.Version = defaults.Version
	}

	if cfg.Storage.DataDir == "" {
		cfg.Storage.DataDir = defaults.Storage.DataDir
	}

	if cfg.Video.FPS == 0 {
		cfg.Video.FPS = defaults.Video.FPS
	}
	if cfg.Video.SegmentSeconds == 0 {
		cfg.Video.SegmentSeconds = defaults.Video.SegmentSeconds
	}
	if cfg.Video.CRF == 0 {
		cfg.Video.CRF = defaults.Video.CRF
	}
	if cfg.Video.Preset == "" {
		cfg.Video.Preset = defaults.Video.Preset
	}

	if cfg.Retention.Temp == "" {
		cfg.Retention.Temp = defaults.Retention.Temp
	}
	if cfg.Retention.Recording == "" {
		cfg.Retention.Recording = defaults.Retention.Recording
	}

	if cfg.OCR.Workers == 0 {
		cfg.OCR.Workers = defaults.OCR.Workers
	}
	if cfg.OCR.TimeoutSeconds == 0 {
		cfg.OCR.TimeoutSeconds = defaults.OCR.TimeoutSeconds
	}
	if cfg.OCR.Languages == "" {
		cfg.OCR.Languages = defaults.OCR.Languages
	}
	if cfg.OCR.MinConfidence == 0 {
		cfg.OCR.MinConfidence = defaults.OCR.MinConfidence
	}

	if cfg.Capture.ExclusionMode == "" {
		cfg.Capture.ExclusionMode = defaults.Capture.ExclusionMode
	}

	if cfg.Events.Topic == "" {
		cfg.Events.Topic = defaults.Events.Topic
	}
}

// normalize resets out-of-domain values to their defaults.
func (cfg *Config) normalize() {
	if cfg.Video.FPS <= 0 {
		cfg.Video.FPS = defaultFPS
	}
	if cfg.Video.SegmentSeconds <= 0 {
		cfg.Video.SegmentSeconds = defaultSegmentSeconds
	}
	if cfg.Video.CRF < 0 || cfg.Video.CRF > 51 {
		cfg.Video.CRF = defaultCRF
	}

	if !validPolicy(cfg.Retention.Temp) {
		cfg.Retention.Temp = defaultTempRetention
	}
	if !validPolicy(cfg.Retention.Recording) {
		cfg.Retention.Recording = defaultRecordingRetention
	}

	if cfg.OCR.Workers < 1 {
		cfg.OCR.Workers = defaultOCRWorkers
	}
	if cfg.OCR.TimeoutSeconds <= 0 {
		cfg.OCR.TimeoutSeconds = defaultOCRTimeoutSeconds
	}
	if cfg.OCR.MinConfidence < 0 || cfg.OCR.MinConfidence > 1 {
		cfg.OCR.MinConfidence = defaultOCRMinConfidence
	}

	if cfg.Capture.ExclusionMode != "skip" && cfg.Capture.ExclusionMode != "invisible" {
		cfg.Capture.ExclusionMode = defaultExclusionMode
	}
}

func validPolicy(p string) bool {
	switch p {
	case "never", "1_day", "1_week", "1_month":
		return true
	}
	return false
}

// SaveConfig persists the configuration to config.toml in the target
// .playback/ directory.
func (c *Configer) SaveConfig(cfg *Config) error {
	if cfg == nil {
		return errors.New("cannot save nil config")
	}

	if c.targetPath == "" {
		return errors.New("cannot save empty target path")
	}

	var buf bytes.Buffer
	encoder := toml.NewEncoder(&buf)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(c.targetPath, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// SetConfigValue loads the config, sets the given key to the given value, and saves it.
// Returns an error if the key is not a valid config key.
func (c *Configer) SetConfigValue(key string, value string) error {
	info, ok := configKeys[key]
	if !ok {
		return fmt.Errorf("unknown config key: %q", key)
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return err
	}

	if err := info.set(cfg, value); err != nil {
		return err
	}

	return c.SaveConfig(cfg)
}

// GetConfigValue loads the config and returns the string representation of the given key.
// Returns an error if the key is not a valid config key.
func (c *Configer) GetConfigValue(key string) (string, error) {
	info, ok := configKeys[key]
	if !ok {
		return "", fmt.Errorf("unknown config key: %q", key)
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return "", err
	}

	return info.get(cfg), nil
}
