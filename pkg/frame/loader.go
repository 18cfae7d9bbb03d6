package frame

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Prober reports the pixel dimensions of an image file. The encoder
// package provides an ffprobe-backed implementation.
type Prober interface {
	ProbeImageSize(path string) (width, height int, err error)
}

// Loader scans temp day directories into timeline events.
type Loader struct {
	prober   Prober
	logger   *slog.Logger
	excluded map[string]struct{}
}

// NewLoader returns a Loader. Frames attributed to an app id in
// excludedApps are dropped during the scan.
func NewLoader(prober Prober, logger *slog.Logger, excludedApps []string) *Loader {
	excluded := make(map[string]struct{}, len(excludedApps))
	for _, app := range excludedApps {
		if app != "" {
			excluded[app] = struct{}{}
		}
	}
	return &Loader{prober: prober, logger: logger, excluded: excluded}
}

// LoadDay reads every frame in a temp day directory, ordered by timeline
// timestamp. Hidden files and files whose dimensions cannot be probed are
// skipped rather than failing the batch.
func (l *Loader) LoadDay(dayDir string) ([]Event, error) {
	entries, err := os.ReadDir(dayDir)
	if err != nil {
		return nil, fmt.Errorf("reading frame directory %s: %w", dayDir, err)
	}

	events := make([]Event, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}

		path := filepath.Join(dayDir, entry.Name())
		appID := ParseAppFromName(entry.Name())
		if appID != nil {
			if _, ok := l.excluded[*appID]; ok {
				l.logger.Debug("skipping excluded app frame", "path", path, "app", *appID)
				continue
			}
		}

		width, height, err := l.prober.ProbeImageSize(path)
		if err != nil {
			l.logger.Warn("skipping unreadable frame", "path", path, "error", err)
			continue
		}

		info, err := entry.Info()
		if err != nil {
			l.logger.Warn("skipping unstatable frame", "path", path, "error", err)
			continue
		}

		events = append(events, Event{
			Path:      path,
			Timestamp: FileTimestamp(info),
			AppID:     appID,
			Width:     width,
			Height:    height,
		})
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp < events[j].Timestamp
	})

	return events, nil
}
