package project

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const debounce = 150 * time.Millisecond

// Watch reloads the project whenever its file changes and hands the result to
// onChange. The parent directory is watched because editors often replace the
// file instead of writing it in place. Parse errors are logged and the
// previous project stays in effect. Watch blocks until ctx is done.
func Watch(ctx context.Context, path string, log *zap.Logger, onChange func(*Project)) error {
	if log == nil {
		log = zap.NewNop()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			timer.Reset(debounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("watcher error", zap.Error(err))
		case <-timer.C:
			p, err := Load(abs)
			if err != nil {
				log.Warn("project reload failed", zap.String("path", abs), zap.Error(err))
				continue
			}
			if err := p.Validate(); err != nil {
				log.Warn("project invalid, keeping previous", zap.String("path", abs), zap.Error(err))
				continue
			}
			log.Info("project reloaded", zap.String("path", abs))
			onChange(p)
		}
	}
}
