package config

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reloads the config file on change and hands the validated
// result to a callback. Bad edits are logged and skipped; the last
// good config stays in effect.
type Watcher struct {
	Path     string
	Cooldown time.Duration // minimum gap between reloads
	Log      *zap.Logger
}

// Start watches until ctx is canceled. The callback runs on the
// watcher goroutine; keep it cheap (hand off to a channel).
func (w Watcher) Start(ctx context.Context, onUpdate func(AppConfig)) error {
	if w.Cooldown <= 0 {
		w.Cooldown = 2 * time.Second
	}
	if w.Log == nil {
		w.Log = zap.NewNop()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(w.Path); err != nil {
		fsw.Close()
		return fmt.Errorf("watch config file: %w", err)
	}

	go func() {
		defer fsw.Close()
		var lastReload time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-fsw.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if time.Since(lastReload) < w.Cooldown {
					continue
				}
				cfg, err := LoadWithEnvOverrides(w.Path)
				if err != nil {
					w.Log.Warn("config reload rejected", zap.Error(err))
					continue
				}
				lastReload = time.Now()
				w.Log.Info("config reloaded", zap.String("path", w.Path))
				if onUpdate != nil {
					onUpdate(cfg)
				}
			case err, ok := <-fsw.Errors:
				if !ok {
					return
				}
				w.Log.Warn("config watcher error", zap.Error(err))
			}
		}
	}()
	return nil
}
