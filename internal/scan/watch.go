package scan

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
)

// StaleFlag is set by the background watcher when the project tree changes,
// and cleared when the context entry is rebuilt. It is the only piece of
// state shared between the watcher goroutine and the session loop.
type StaleFlag struct {
	v atomic.Bool
}

// Set marks the context stale.
func (f *StaleFlag) Set() { f.v.Store(true) }

// Clear marks the context fresh again, typically right after a refresh.
func (f *StaleFlag) Clear() { f.v.Store(false) }

// Stale reports whether the tree changed since the last refresh.
func (f *StaleFlag) Stale() bool { return f.v.Load() }

// Watch starts a recursive fsnotify watcher on root and sets flag on every
// relevant write/create/remove until ctx is cancelled. Events under ignored
// paths (including the agent's own backup directory) are skipped, so the
// agent's bookkeeping never marks its own context stale.
func Watch(ctx context.Context, root string, rules *RuleSet, flag *StaleFlag) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch every visible subdirectory.
	if err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // skip unreadable entries
		}
		if !d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr == nil && rel != "." && rules.Ignored(rel, true) {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	}); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			rel, err := filepath.Rel(root, event.Name)
			if err != nil {
				rel = event.Name
			}
			if rules.Ignored(rel, false) {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) {
				flag.Set()
			}
			// New directories need their own watch.
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = watcher.Add(event.Name)
				}
			}

		case _, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			// Watcher errors are non-fatal; keep watching.
		}
	}
}
