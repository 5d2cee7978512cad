package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/llehouerou/wavesd/internal/catalog"
	"github.com/llehouerou/wavesd/internal/errmsg"
	"github.com/llehouerou/wavesd/internal/logging"
	"github.com/llehouerou/wavesd/internal/player"
)

// DefaultDebounce coalesces bursts of file events into one import.
const DefaultDebounce = 2 * time.Second

// Watch re-imports roots whenever a music file under them is created,
// written, renamed or removed, until ctx is done. Removed files keep their
// catalog rows. onImport, when set, receives every import result.
func Watch(ctx context.Context, store catalog.Store, roots []string, debounce time.Duration, opts Options, onImport func(Stats, error)) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	logger := logging.Component(opts.Logger, "scanner")

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	for _, root := range roots {
		if err := addTree(watcher, root); err != nil {
			return fmt.Errorf("watch %s: %w", root, err)
		}
	}

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Create != 0 {
				if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() {
					if err := addTree(watcher, event.Name); err != nil {
						logger.Warn("watch new directory", "path", event.Name, "err", err)
					}
					timer.Reset(debounce)
					continue
				}
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if !player.IsSupported(event.Name) {
				continue
			}
			timer.Reset(debounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch", "err", err)
		case <-timer.C:
			stats, err := Import(ctx, store, roots, opts)
			if err != nil {
				logger.Error(errmsg.Format(errmsg.OpCatalogPopulate, err))
			} else {
				logger.Info("catalog updated", "imported", stats.Imported, "skipped", stats.Skipped)
			}
			if onImport != nil {
				onImport(stats, err)
			}
		}
	}
}

// addTree watches dir and every directory below it.
func addTree(w *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
