package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// dictionaryWatcher reports changes to one dictionary file. The parent
// directory is watched since editors often replace files on save.
type dictionaryWatcher struct {
	watcher *fsnotify.Watcher
	path    string
}

func newDictionaryWatcher(path string) (*dictionaryWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	return &dictionaryWatcher{watcher: w, path: abs}, nil
}

// Run calls regenerate once the dictionary has been quiet for debounce
// after a write or create, until ctx is done. Regeneration failures are
// logged and watching continues. The watcher is closed on return.
func (d *dictionaryWatcher) Run(ctx context.Context, logger *slog.Logger, debounce time.Duration, regenerate func() error) error {
	defer d.watcher.Close()
	logger.Info("Watching dictionary for changes", "file", d.path)

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Stopped watching dictionary", "file", d.path)
			return nil

		case ev, ok := <-d.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != d.path || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			logger.Debug("Dictionary event", "file", ev.Name, "op", ev.Op.String())
			timer.Reset(debounce)

		case err, ok := <-d.watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Dictionary watcher error", "error", err)

		case <-timer.C:
			logger.Info("Dictionary changed, regenerating", "file", d.path)
			if err := regenerate(); err != nil {
				logger.Error("Regeneration failed", "error", err)
			}
		}
	}
}
