package config

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"depctl/pkg/logging"
)

// Watcher reloads the project configuration file on change and swaps
// the validated result into the store. Invalid edits are logged and
// skipped; the previous configuration stays active.
type Watcher struct {
	store *Store
	path  string
}

// NewWatcher builds a watcher for the project configuration file
// feeding the given store.
func NewWatcher(store *Store, path string) *Watcher {
	return &Watcher{store: store, path: path}
}

// Run blocks until ctx is cancelled, applying reloads as the file
// changes. The parent directory is watched rather than the file itself
// so editors that replace the file atomically still trigger events.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return err
	}
	logging.Debug("Config", "Watching %s for changes", w.path)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			w.reload()

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logging.Warn("Config", "Watcher error: %v", err)
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := LoadConfig()
	if err != nil {
		logging.Warn("Config", "Ignoring invalid configuration change: %v", err)
		return
	}
	w.store.Swap(cfg)
	logging.Info("Config", "Configuration reloaded from %s", w.path)
}
