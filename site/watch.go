package site

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchDebounce is how long Watch waits after the last change before rebuilding.
const WatchDebounce = 500 * time.Millisecond

// Watch rebuilds the site into outDir whenever a file under contentDir changes, until ctx is
// done. It does not perform an initial build.
func (b *Builder) Watch(ctx context.Context, contentDir, outDir string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	err = filepath.WalkDir(contentDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", contentDir, err)
	}

	b.logger.Info("watching for changes", slog.String("dir", contentDir))

	rebuild := make(chan struct{}, 1)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}

			b.logger.Debug("change detected",
				slog.String("file", event.Name),
				slog.String("op", event.Op.String()))

			if event.Has(fsnotify.Create) && isDir(event.Name) {
				if err := watcher.Add(event.Name); err != nil {
					b.logger.Error("failed to watch new directory",
						slog.String("dir", event.Name),
						slog.String("error", err.Error()))
				}
			}

			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(WatchDebounce, func() {
				select {
				case rebuild <- struct{}{}:
				default:
				}
			})

		case <-rebuild:
			if err := b.Build(outDir); err != nil {
				b.logger.Error("rebuild failed", slog.String("error", err.Error()))
				continue
			}
			b.logger.Info("site rebuilt", slog.String("out", outDir))

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			b.logger.Error("watcher error", slog.String("error", err.Error()))
		}
	}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}
