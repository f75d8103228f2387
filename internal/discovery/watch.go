package discovery

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period before a rescan is triggered.
const DefaultDebounce = 250 * time.Millisecond

// Watch watches each source root and the projects under it (two levels) and
// calls onChange once events have been quiet for debounce. It blocks until
// ctx is done.
func Watch(ctx context.Context, sources []string, exclude []string, debounce time.Duration, onChange func()) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	roots := make(map[string]struct{})
	for _, source := range sources {
		abs, err := filepath.Abs(source)
		if err != nil {
			return err
		}
		if info, err := os.Stat(abs); err != nil || !info.IsDir() {
			continue
		}
		roots[abs] = struct{}{}
		if err := watcher.Add(abs); err != nil {
			return err
		}
		entries, err := os.ReadDir(abs)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			path := filepath.Join(abs, entry.Name())
			if entry.IsDir() && !Skipped(path, exclude) {
				_ = watcher.Add(path)
			}
		}
	}

	// Debounce events - a copy or clone creates many at once.
	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if event.Op&fsnotify.Create != 0 {
				if _, isRoot := roots[filepath.Dir(event.Name)]; isRoot && !Skipped(event.Name, exclude) {
					if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
						_ = watcher.Add(event.Name)
					}
				}
			}
			timer.Reset(debounce)

		case <-timer.C:
			onChange()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}
