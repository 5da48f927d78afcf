package history

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/standardbeagle/colorgrep/internal/debug"
)

// Watch reloads the history whenever another process rewrites the file and
// passes the new entries to onChange. The watch goroutine exits when ctx is
// canceled; Close waits for it.
func (s *Store) Watch(ctx context.Context, onChange func([]string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create history watcher: %w", err)
	}
	// the file is replaced by rename, so watch the directory
	if err := watcher.Add(s.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", s.dir, err)
	}

	debug.LogHistory("watching %s\n", s.dir)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != FileName {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
					continue
				}

				entries := s.Load()
				debug.LogHistory("reloaded %d entries after %v\n", len(entries), event.Op)
				if onChange != nil {
					onChange(entries)
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				debug.LogHistory("history watcher error: %v\n", err)
			}
		}
	}()

	return nil
}
