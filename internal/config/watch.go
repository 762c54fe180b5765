package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/oshokin/sleep-clock/internal/logger"
)

// Watch reloads the configuration whenever the file at path changes and hands
// every valid result to onChange. Invalid contents are logged and skipped.
// It blocks until ctx is canceled.
func Watch(ctx context.Context, path string, onChange func(*Config)) error {
	if path == "" {
		path = DefaultConfigFilename
	}

	path, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("resolve settings path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create settings watcher: %w", err)
	}

	defer func() {
		_ = watcher.Close()
	}()

	// Editors often replace the file instead of writing it, so watch the directory.
	if err = watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch settings directory: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if filepath.Clean(event.Name) != path || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			cfg, err := Load(path)
			if err != nil {
				logger.WarnKV(ctx, "Ignoring invalid settings change", "path", path, "error", err)
				continue
			}

			onChange(cfg)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			logger.WarnKV(ctx, "Settings watcher error", "path", path, "error", err)
		}
	}
}
