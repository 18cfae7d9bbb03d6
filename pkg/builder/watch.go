package builder

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch rebuilds the current day whenever new frames land in its temp
// directory, debounced so a burst of captures triggers one build. Returns
// when the context is cancelled.
func (b *Builder) Watch(ctx context.Context, debounce time.Duration) error {
	if debounce <= 0 {
		debounce = 2 * time.Second
	}

	day := Today()
	dayDir, err := b.tree.TempDayDir(day)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dayDir, 0o755); err != nil {
		return fmt.Errorf("creating temp day directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dayDir); err != nil {
		return fmt.Errorf("watching %s: %w", dayDir, err)
	}
	b.logger.Info("watching for frames", "dir", dayDir, "debounce", debounce)

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) {
				if pending && !timer.Stop() {
					<-timer.C
				}
				timer.Reset(debounce)
				pending = true
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			b.logger.Error("watch error", "error", err)

		case <-timer.C:
			pending = false
			result, err := b.BuildDay(ctx, day)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				b.logger.Error("watch build failed", "day", day, "error", err)
				continue
			}
			if result.SegmentsBuilt > 0 {
				b.logger.Info("watch build", "summary", result.Summary())
			}
		}
	}
}
