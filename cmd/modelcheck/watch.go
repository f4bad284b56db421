package main

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"modelcheck/smoketest"
)

// settle absorbs the burst of events an editor or exporter produces while
// rewriting a bundle.
const settle = 200 * time.Millisecond

// watch runs check once, then again after every change to the bundle file,
// until ctx is done. It returns the exit code of the last check.
func watch(ctx context.Context, path string, check func() int, logger *zap.Logger) int {
	code := check()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Error("watch: cannot create watcher", zap.Error(err))
		return code
	}
	defer watcher.Close()

	// the directory is watched so that atomic replaces (rename over) are seen
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		logger.Error("watch: cannot watch bundle directory", zap.String("dir", dir), zap.Error(err))
		return code
	}
	logger.Info("watching bundle", zap.String("path", path))

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return code
		case event, ok := <-watcher.Events:
			if !ok {
				return code
			}
			if !isBundleEvent(event, path) {
				continue
			}
			logger.Debug("bundle changed", zap.String("op", event.Op.String()))
			if timer == nil {
				timer = time.NewTimer(settle)
			} else {
				timer.Reset(settle)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			code = check()
			if code == smoketest.ExitCanceled {
				return code
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return code
			}
			logger.Warn("watch error", zap.Error(err))
		}
	}
}

func isBundleEvent(event fsnotify.Event, path string) bool {
	if filepath.Clean(event.Name) != filepath.Clean(path) {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove)
}
