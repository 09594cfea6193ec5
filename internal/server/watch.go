package server

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// WatchConfig reloads filename whenever it is written and passes each valid
// config to onChange. Invalid edits are logged and skipped. It blocks until
// ctx is cancelled.
func WatchConfig(ctx context.Context, filename string, logger *log.Logger, onChange func(*Config)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer w.Close()

	// Editors often replace the file, so watch the directory.
	target := filepath.Clean(filename)
	dir := filepath.Dir(target)
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watch directory %s: %w", dir, err)
	}

	logger = logger.WithPrefix("config")
	logger.Debug("Watching config", "path", target)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			config, err := LoadConfig(target)
			if err != nil {
				logger.Warn("Ignoring invalid config change", "path", target, "error", err)
				continue
			}
			logger.Info("Config reloaded", "path", target, "log_level", config.Server.LogLevel)
			onChange(config)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Config watcher error", "error", err)
		}
	}
}
