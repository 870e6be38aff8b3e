package catalogue

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ReloadCallback is called after the watcher swapped in a new catalogue.
type ReloadCallback func(c *Catalogue)

const reloadDebounce = 200 * time.Millisecond

// Watch reloads the catalogue at path into store whenever the file changes,
// until ctx is cancelled. It calls cb (if non-nil) after each successful
// reload. A file that fails to parse leaves the previous catalogue in place.
//
// The parent directory is watched rather than the file itself, so editors
// that save by renaming a temp file over the original are picked up. Bursts
// of events are debounced into a single reload.
func Watch(ctx context.Context, store *Store, path string, logger *slog.Logger, cb ReloadCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}
	name := filepath.Base(abs)

	logger.Info("catalogue watcher: started", slog.String("path", abs))

	var reloadTimer *time.Timer
	var reloadCh <-chan time.Time

	scheduleReload := func() {
		if reloadTimer == nil {
			reloadTimer = time.NewTimer(reloadDebounce)
			reloadCh = reloadTimer.C
		} else {
			reloadTimer.Reset(reloadDebounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reloadTimer != nil {
				reloadTimer.Stop()
			}
			logger.Info("catalogue watcher: stopped")
			return nil

		case <-reloadCh:
			c, loadErr := Load(abs)
			if loadErr != nil {
				logger.Warn("catalogue watcher: reload failed", slog.String("path", abs), slog.String("error", loadErr.Error()))
				continue
			}
			store.Replace(c)
			logger.Info("catalogue watcher: reloaded", slog.Int("documents", len(c.Documents)))
			if cb != nil {
				cb(c)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != name {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
				scheduleReload()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("catalogue watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
