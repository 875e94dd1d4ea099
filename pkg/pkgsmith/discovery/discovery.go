package discovery

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charlievieth/fastwalk"

	"github.com/pkgsmith/pkgsmith/pkg/pkgsmith/cache"
	"github.com/pkgsmith/pkgsmith/pkg/pkgsmith/exports"
	"github.com/pkgsmith/pkgsmith/pkg/pkgsmith/logging"
	"github.com/pkgsmith/pkgsmith/pkg/pkgsmith/manifest"
)

var logger = logging.Get("discovery")

// WalkError pairs a path with the error encountered there.
type WalkError struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// Result contains the aggregated discovery results. All path slices are
// absolute and sorted.
type Result struct {
	// Root is the resolved absolute root directory.
	Root string `json:"root"`

	// Public contains discovered *.pub.ts / *.pub.tsx files.
	Public []string `json:"public"`

	// Binary contains discovered *.bin.ts / *.bin.tsx files.
	Binary []string `json:"binary"`

	// Manifests contains discovered package.json files.
	Manifests []string `json:"manifests"`

	// DirsScanned is the number of directories traversed.
	DirsScanned int64 `json:"dirs_scanned"`

	// FilesScanned is the number of files examined.
	FilesScanned int64 `json:"files_scanned"`

	// Elapsed is the total discovery time.
	Elapsed time.Duration `json:"elapsed"`

	// FromCache indicates the result was served from the discovery cache.
	FromCache bool `json:"from_cache"`

	// Errors contains non-fatal errors encountered during the walk.
	Errors []WalkError `json:"errors,omitempty"`
}

// Walker performs parallel candidate-file discovery using fastwalk.
type Walker struct {
	opts Options

	dirsScanned  atomic.Int64
	filesScanned atomic.Int64

	// root is the resolved absolute path being walked.
	root string

	mu        sync.Mutex
	public    []string
	binary    []string
	manifests []string
	errors    []WalkError

	// cacheEntries collects per-directory snapshots during the walk,
	// keyed by path relative to root ("" for the root itself).
	cacheEntries   map[string]*cache.Entry
	cacheEntriesMu sync.Mutex
}

// New creates a new Walker with the given options.
func New(opts Options) *Walker {
	_ = opts.Validate()
	return &Walker{
		opts:         opts,
		cacheEntries: make(map[string]*cache.Entry),
	}
}

// Walk performs discovery and returns results. It blocks until complete
// or the context is cancelled.
func (w *Walker) Walk(ctx context.Context) (*Result, error) {
	startTime := time.Now()

	root, err := w.validateRoot()
	if err != nil {
		return nil, err
	}
	w.root = root

	// Serve from cache when every cached directory is still fresh.
	if w.opts.Cache != nil {
		if snap, err := w.opts.Cache.Get(root); err == nil {
			logger.Debug("discovery served from cache", "root", root, "dirs", snap.Dirs)
			return &Result{
				Root:        root,
				Public:      snap.Public,
				Binary:      snap.Binary,
				Manifests:   snap.Manifests,
				DirsScanned: int64(snap.Dirs),
				Elapsed:     time.Since(startTime),
				FromCache:   true,
			}, nil
		} else if !errors.Is(err, cache.ErrNotFound) && !errors.Is(err, cache.ErrStale) {
			w.addError("cache read", err)
		}
	}

	if err := w.executeWalk(ctx); err != nil {
		return nil, err
	}

	w.flushCacheEntries()

	w.mu.Lock()
	defer w.mu.Unlock()
	sort.Strings(w.public)
	sort.Strings(w.binary)
	sort.Strings(w.manifests)

	return &Result{
		Root:         root,
		Public:       w.public,
		Binary:       w.binary,
		Manifests:    w.manifests,
		DirsScanned:  w.dirsScanned.Load(),
		FilesScanned: w.filesScanned.Load(),
		Elapsed:      time.Since(startTime),
		Errors:       w.errors,
	}, nil
}

// executeWalk runs fastwalk rooted at w.root.
func (w *Walker) executeWalk(ctx context.Context) error {
	conf := fastwalk.Config{
		Follow:     false, // Don't follow symlinks.
		NumWorkers: w.opts.Workers,
	}

	walkCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan struct{})
	go func() {
		<-walkCtx.Done()
		close(done)
	}()

	err := fastwalk.Walk(&conf, w.root, w.walkCallback(done))
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, fastwalk.ErrSkipFiles) {
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return nil
}

// walkCallback returns the callback function for fastwalk.Walk.
func (w *Walker) walkCallback(done <-chan struct{}) fs.WalkDirFunc {
	return func(path string, d fs.DirEntry, err error) error {
		select {
		case <-done:
			return fastwalk.ErrSkipFiles
		default:
		}

		// Handle errors gracefully - log and continue.
		if err != nil {
			w.addError(path, err)
			return nil
		}

		if d.IsDir() {
			return w.handleDirectory(path, d)
		}

		if d.Type().IsRegular() {
			w.handleFile(path, d)
		}

		return nil
	}
}

// handleDirectory records a directory visit, applying exclusion and depth
// bounds.
func (w *Walker) handleDirectory(path string, d fs.DirEntry) error {
	rel := w.relPath(path)

	if rel != "" {
		if w.isExcluded(d.Name()) {
			return fastwalk.SkipDir
		}
		if w.opts.MaxDepth > 0 && depthOf(rel) > w.opts.MaxDepth {
			return fastwalk.SkipDir
		}
	}

	w.dirsScanned.Add(1)

	if w.opts.Cache == nil {
		return nil
	}

	var mtime int64
	if info, err := d.Info(); err == nil {
		mtime = info.ModTime().UnixNano()
	}

	w.cacheEntriesMu.Lock()
	entry := w.cacheEntry(rel)
	entry.Mtime = mtime
	if rel != "" {
		parent := w.cacheEntry(parentOf(rel))
		parent.Subdirs = append(parent.Subdirs, d.Name())
	}
	w.cacheEntriesMu.Unlock()

	return nil
}

// handleFile classifies a regular file as a public, binary, or manifest
// candidate.
func (w *Walker) handleFile(path string, d fs.DirEntry) {
	w.filesScanned.Add(1)

	name := d.Name()
	var kind int
	switch {
	case exports.IsPublic(name):
		kind = 1
	case exports.IsBinary(name):
		kind = 2
	case name == manifest.FileName:
		kind = 3
	default:
		return
	}

	w.mu.Lock()
	switch kind {
	case 1:
		w.public = append(w.public, path)
	case 2:
		w.binary = append(w.binary, path)
	case 3:
		w.manifests = append(w.manifests, path)
	}
	w.mu.Unlock()

	if w.opts.Cache == nil {
		return
	}

	rel := parentOf(w.relPath(path))
	w.cacheEntriesMu.Lock()
	entry := w.cacheEntry(rel)
	switch kind {
	case 1:
		entry.Public = append(entry.Public, name)
	case 2:
		entry.Binary = append(entry.Binary, name)
	case 3:
		entry.HasManifest = true
	}
	w.cacheEntriesMu.Unlock()
}

// cacheEntry returns the entry for rel, creating it if needed.
// Caller must hold cacheEntriesMu.
func (w *Walker) cacheEntry(rel string) *cache.Entry {
	entry, ok := w.cacheEntries[rel]
	if !ok {
		entry = &cache.Entry{}
		w.cacheEntries[rel] = entry
	}
	return entry
}

// flushCacheEntries writes collected entries to the cache.
func (w *Walker) flushCacheEntries() {
	if w.opts.Cache == nil || len(w.cacheEntries) == 0 {
		return
	}

	if err := w.opts.Cache.Update(w.root, w.cacheEntries); err != nil {
		w.addError("cache update", err)
	}
}

// validateRoot resolves the root path to absolute and verifies it is a
// directory.
func (w *Walker) validateRoot() (string, error) {
	root, err := filepath.Abs(w.opts.Root)
	if err != nil {
		return "", err
	}

	rootInfo, err := os.Stat(root)
	if err != nil {
		return "", err
	}
	if !rootInfo.IsDir() {
		return "", os.ErrInvalid
	}

	return root, nil
}

// relPath returns path relative to the root, "" for the root itself.
func (w *Walker) relPath(path string) string {
	rel, err := filepath.Rel(w.root, path)
	if err != nil || rel == "." {
		return ""
	}
	return rel
}

// isExcluded matches a directory base name against the exclude list.
// Entries may be literal names or glob patterns.
func (w *Walker) isExcluded(name string) bool {
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

func (w *Walker) addError(path string, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.errors = append(w.errors, WalkError{Path: path, Error: err.Error()})
}

func depthOf(rel string) int {
	return strings.Count(rel, string(filepath.Separator)) + 1
}

func parentOf(rel string) string {
	dir := filepath.Dir(rel)
	if dir == "." {
		return ""
	}
	return dir
}
