package server

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDebounce collapses the burst of events editors emit for one save.
const reloadDebounce = 100 * time.Millisecond

// Watch reloads the graph whenever its file changes, until ctx is done.
// The parent directory is watched so that editors replacing the file by
// rename are noticed too.
func (s *Server) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("graph watcher: %w", err)
	}
	target := filepath.Clean(s.opts.GraphPath)
	if err := w.Add(filepath.Dir(target)); err != nil {
		w.Close()
		return fmt.Errorf("graph watcher add %s: %w", target, err)
	}

	go func() {
		defer w.Close()
		var pending <-chan time.Time
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target {
					continue
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
					pending = time.After(reloadDebounce)
				}
			case <-pending:
				pending = nil
				if err := s.Reload(ctx); err != nil {
					// Keep serving the previous graph.
					s.logger.Error("Graph reload failed", "path", target, "err", err)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				s.logger.Warn("Graph watcher error", "err", err)
			case <-ctx.Done():
				return
			}
		}
	}()

	s.logger.Debug("Watching graph", "path", target)
	return nil
}
