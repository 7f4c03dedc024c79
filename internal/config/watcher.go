package config

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// Watcher monitors the configuration file and reloads it when it changes.
// Only settings that are safe to apply at runtime (currently the logging
// section) should be consumed from reload callbacks.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	logger   *logrus.Logger
	onReload func(*Config)
}

// NewWatcher creates a watcher for the given config file. onReload is called
// with the freshly parsed configuration after every successful reload.
func NewWatcher(path string, logger *logrus.Logger, onReload func(*Config)) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		path:     path,
		watcher:  fsWatcher,
		logger:   logger,
		onReload: onReload,
	}

	// Watch the directory rather than the file itself: editors replace
	// files on save, which would otherwise drop the watch.
	if err := fsWatcher.Add(filepath.Dir(path)); err != nil {
		fsWatcher.Close()
		return nil, err
	}

	go w.watch()

	logger.WithField("config_path", path).Info("Config watcher started")
	return w, nil
}

// watch selects on watcher channels and dispatches reloads.
func (w *Watcher) watch() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				// Give the editor a moment to finish writing the file
				time.Sleep(100 * time.Millisecond)
				w.reload()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.WithError(err).Error("Config watcher error")
		}
	}
}

// reload parses the config file and invokes the reload callback.
func (w *Watcher) reload() {
	cfg, err := LoadConfig(w.path)
	if err != nil {
		w.logger.WithError(err).Warn("Ignoring config change: reload failed")
		return
	}

	w.logger.Info("Configuration reloaded")
	if w.onReload != nil {
		w.onReload(cfg)
	}
}

// Close stops the watcher (idempotent).
func (w *Watcher) Close() {
	if w.watcher != nil {
		w.watcher.Close()
	}
}
