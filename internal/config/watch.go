package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 250 * time.Millisecond

// Watcher reloads a config file when it changes on disk and hands the
// complete new Config to OnChange. The overrides are applied before
// validation on every reload. Invalid files are logged and skipped; the
// previous configuration stays in effect.
type Watcher struct {
	path      string
	overrides Overrides
	logger    *slog.Logger
	onChange  func(Config)
	debounce  time.Duration
}

// NewWatcher creates a Watcher for path.
func NewWatcher(path string, overrides Overrides, logger *slog.Logger, onChange func(Config)) *Watcher {
	return &Watcher{
		path:      path,
		overrides: overrides,
		logger:    logger.With("component", "config"),
		onChange:  onChange,
		debounce:  defaultDebounce,
	}
}

// Watch blocks until ctx is cancelled. The parent directory is watched
// rather than the file so editors that replace the file by rename are seen.
func (w *Watcher) Watch(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	dir := filepath.Dir(w.path)
	file := filepath.Base(w.path)
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	w.logger.Info("watching config", "path", w.path)

	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return errors.New("config watcher closed")
			}
			if filepath.Base(ev.Name) != file {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, w.reload)
			mu.Unlock()
		case err, ok := <-fw.Errors:
			if !ok {
				return errors.New("config watcher closed")
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := LoadWithOverrides(w.path, w.overrides)
	if err != nil {
		w.logger.Error("config reload rejected", "path", w.path, "error", err)
		return
	}
	w.logger.Info("config reloaded", "path", w.path)
	w.onChange(cfg)
}
