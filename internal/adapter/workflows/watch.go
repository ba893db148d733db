package workflows

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const reloadDebounce = 200 * time.Millisecond

// Watch reloads overrides whenever a *.yaml file in the override directory
// changes. Bursts of events are coalesced. It blocks until ctx is done.
func (s *Store) Watch(ctx context.Context) error {
	if s.dir == "" {
		return nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("workflow watcher: %w", err)
	}
	defer func() { _ = w.Close() }()

	if err := w.Add(s.dir); err != nil {
		return fmt.Errorf("watch %s: %w", s.dir, err)
	}
	slog.Info("watching workflow overrides", "dir", s.dir)

	timer := time.NewTimer(reloadDebounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Ext(ev.Name) != ".yaml" || !relevant(ev.Op) {
				continue
			}
			timer.Reset(reloadDebounce)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.Warn("workflow watcher error", "error", err)
		case <-timer.C:
			if err := s.Reload(); err != nil {
				slog.Error("workflow reload failed, keeping previous templates", "error", err)
				continue
			}
			slog.Info("workflow templates reloaded", "dir", s.dir)
		}
	}
}

func relevant(op fsnotify.Op) bool {
	return op.Has(fsnotify.Write) || op.Has(fsnotify.Create) || op.Has(fsnotify.Remove) || op.Has(fsnotify.Rename)
}
