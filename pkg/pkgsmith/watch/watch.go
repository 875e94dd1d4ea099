// Package watch provides filesystem watching for continuous regeneration.
// It watches a package tree recursively and invokes a callback with the
// batch of changed paths after a debounce window, so editor save storms
// trigger a single regeneration.
package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/pkgsmith/pkgsmith/pkg/pkgsmith/buildcfg"
	"github.com/pkgsmith/pkgsmith/pkg/pkgsmith/exports"
	"github.com/pkgsmith/pkgsmith/pkg/pkgsmith/logging"
	"github.com/pkgsmith/pkgsmith/pkg/pkgsmith/manifest"
)

var logger = logging.Get("watch")

// DefaultDebounce is the default settle window for change batches.
const DefaultDebounce = 300 * time.Millisecond

// Options configures a Watcher.
type Options struct {
	// Root is the directory to watch recursively.
	Root string

	// Exclude contains directory names or glob patterns to skip,
	// matched against the directory base name.
	Exclude []string

	// Debounce is the settle window before the callback fires.
	// Zero means DefaultDebounce.
	Debounce time.Duration
}

// Watcher watches a tree for changes to generation inputs.
type Watcher struct {
	opts    Options
	watcher *fsnotify.Watcher

	mu     sync.RWMutex
	paths  map[string]bool
	closed bool
}

// New creates a Watcher and establishes watches on root and every
// non-excluded subdirectory. Symlinks are not followed to avoid loops.
func New(opts Options) (*Watcher, error) {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		opts:    opts,
		watcher: fsw,
		paths:   make(map[string]bool),
	}

	root, err := filepath.Abs(opts.Root)
	if err != nil {
		_ = fsw.Close()
		return nil, err
	}
	w.opts.Root = root

	if err := w.watchTree(root); err != nil {
		_ = fsw.Close()
		return nil, err
	}

	return w, nil
}

// watchTree walks root and adds watches for every directory.
func (w *Watcher) watchTree(root string) error {
	info, err := os.Lstat(root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return nil
	}

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil //nolint:nilerr // Skip entries with errors
		}
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.isExcluded(d.Name()) {
			return filepath.SkipDir
		}
		return w.addWatch(path)
	})
}

// addWatch adds a single directory to the watch list.
func (w *Watcher) addWatch(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed || w.paths[path] {
		return nil
	}

	if err := w.watcher.Add(path); err != nil {
		logger.Warn("failed to add watch", "path", path, "error", err)
		return err
	}

	w.paths[path] = true
	return nil
}

// Run starts the event loop. It blocks until the context is cancelled.
// The onChange callback receives the batch of changed paths collected
// during one debounce window.
func (w *Watcher) Run(ctx context.Context, onChange func(paths []string)) {
	pending := make(map[string]bool)
	var timer *time.Timer
	var fire <-chan time.Time

	flush := func() {
		if len(pending) == 0 {
			return
		}
		batch := make([]string, 0, len(pending))
		for p := range pending {
			batch = append(batch, p)
		}
		pending = make(map[string]bool)
		onChange(batch)
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.handleEvent(event) {
				continue
			}

			pending[event.Name] = true
			if timer == nil {
				timer = time.NewTimer(w.opts.Debounce)
			} else {
				timer.Stop()
				timer.Reset(w.opts.Debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			flush()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Error("watcher error", "error", err)
		}
	}
}

// handleEvent maintains the watch set and reports whether the event is
// relevant to regeneration.
func (w *Watcher) handleEvent(event fsnotify.Event) bool {
	switch {
	case event.Op&fsnotify.Create != 0:
		w.handleCreate(event.Name)
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		w.dropWatches(event.Name)
	case event.Op&fsnotify.Chmod != 0:
		return false
	}

	return w.isRelevant(event.Name)
}

// handleCreate adds watches for newly created directories, including any
// subdirectories created with them.
func (w *Watcher) handleCreate(path string) {
	info, err := os.Lstat(path)
	if err != nil {
		return // Might have been deleted already
	}
	if info.Mode()&fs.ModeSymlink != 0 || !info.IsDir() {
		return
	}
	if w.isExcluded(filepath.Base(path)) {
		return
	}

	_ = w.watchTree(path)
}

// dropWatches removes the watch on path and every child path.
func (w *Watcher) dropWatches(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}

	for watched := range w.paths {
		if watched == path || isSubPath(watched, path) {
			_ = w.watcher.Remove(watched)
			delete(w.paths, watched)
		}
	}
}

// isRelevant reports whether a change at path affects generation inputs.
// Directory events are always relevant since they can move whole trees of
// candidates.
func (w *Watcher) isRelevant(path string) bool {
	name := filepath.Base(path)
	if w.isExcluded(name) {
		return false
	}

	if exports.IsPublic(name) || exports.IsBinary(name) {
		return true
	}
	if name == manifest.FileName || name == buildcfg.FileName {
		return true
	}

	// A path with no extension is likely a directory move.
	if filepath.Ext(name) == "" {
		return true
	}
	return false
}

// isExcluded matches a base name against the exclude list.
func (w *Watcher) isExcluded(name string) bool {
	for _, pattern := range w.opts.Exclude {
		if pattern == name {
			return true
		}
		if matched, err := filepath.Match(pattern, name); err == nil && matched {
			return true
		}
	}
	return false
}

// Close closes the watcher and releases resources.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}

	w.closed = true
	w.paths = make(map[string]bool)
	return w.watcher.Close()
}

// isSubPath checks if path is under parent directory.
func isSubPath(path, parent string) bool {
	return len(path) > len(parent) && path[:len(parent)+1] == parent+string(filepath.Separator)
}
