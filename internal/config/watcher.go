package config

import (
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher watches the config file for changes and reloads it.
type Watcher struct {
	config    Config
	watcher   *fsnotify.Watcher
	callbacks []func(Config)
	logger    *zap.Logger
	stop      chan struct{}
	mu        sync.RWMutex
}

// NewWatcher creates a new config file watcher.
func NewWatcher(cfg Config, logger *zap.Logger) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		config:  cfg,
		watcher: watcher,
		logger:  logger.Named("config"),
		stop:    make(chan struct{}),
	}, nil
}

// OnReload registers a callback to be called when the config is reloaded.
func (w *Watcher) OnReload(callback func(Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, callback)
}

// Start begins watching the config file.
func (w *Watcher) Start() error {
	path := w.config.Path()
	if path == "" {
		return nil // No config file to watch
	}

	if err := w.watcher.Add(path); err != nil {
		return err
	}

	go w.watch()
	return nil
}

// Stop stops watching the config file.
func (w *Watcher) Stop() {
	close(w.stop)
	w.watcher.Close()
}

func (w *Watcher) watch() {
	// Editors fire several events per save.
	var debounceTimer *time.Timer
	const debounceDelay = 100 * time.Millisecond

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.AfterFunc(debounceDelay, w.reload)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher error", zap.Error(err))

		case <-w.stop:
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return
		}
	}
}

func (w *Watcher) reload() {
	w.mu.Lock()
	next, err := w.config.Reload()
	if err != nil {
		w.mu.Unlock()
		w.logger.Warn("failed to reload config", zap.Error(err))
		return
	}
	w.config = next
	callbacks := make([]func(Config), len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.Unlock()

	w.logger.Info("config reloaded", zap.String("path", next.Path()))

	for _, cb := range callbacks {
		cb(next)
	}
}

// Config returns the most recently loaded config.
func (w *Watcher) Config() Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.config
}
