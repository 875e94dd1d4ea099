package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// ErrStale is returned when any cached directory no longer matches the
// filesystem. The caller rescans the whole root and updates the cache.
var ErrStale = errors.New("cache is stale")

// Snapshot is a reassembled discovery result from cache. Paths are
// absolute and sorted.
type Snapshot struct {
	Public    []string
	Binary    []string
	Manifests []string
	Dirs      int // Number of cached directories validated.
}

// Cache provides high-level caching of discovery results.
type Cache struct {
	store *Store
}

// Open opens or creates a cache at the given path.
func Open(path string) (*Cache, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	store, err := OpenStore(path)
	if err != nil {
		return nil, err
	}
	return &Cache{store: store}, nil
}

// Close closes the cache.
func (c *Cache) Close() error {
	return c.store.Close()
}

// Get validates the cached tree for root against current directory mtimes
// and reassembles the discovery snapshot. It returns ErrNotFound when the
// root was never cached and ErrStale when any directory changed.
func (c *Cache) Get(root string) (*Snapshot, error) {
	snap := &Snapshot{}
	if err := c.collect(root, "", snap); err != nil {
		return nil, err
	}

	sort.Strings(snap.Public)
	sort.Strings(snap.Binary)
	sort.Strings(snap.Manifests)
	return snap, nil
}

// collect recursively validates one cached directory and gathers its
// candidate files.
func (c *Cache) collect(root, relPath string, snap *Snapshot) error {
	entry, err := c.store.Get(root, relPath)
	if err != nil {
		if errors.Is(err, ErrNotFound) && relPath != "" {
			// A child listed by its parent but never written: the walk
			// was interrupted. Treat as stale.
			return ErrStale
		}
		return err
	}

	dirPath := root
	if relPath != "" {
		dirPath = filepath.Join(root, relPath)
	}

	info, err := os.Stat(dirPath)
	if err != nil || !info.IsDir() || info.ModTime().UnixNano() != entry.Mtime {
		return ErrStale
	}

	snap.Dirs++
	for _, name := range entry.Public {
		snap.Public = append(snap.Public, filepath.Join(dirPath, name))
	}
	for _, name := range entry.Binary {
		snap.Binary = append(snap.Binary, filepath.Join(dirPath, name))
	}
	if entry.HasManifest {
		snap.Manifests = append(snap.Manifests, filepath.Join(dirPath, "package.json"))
	}

	for _, child := range entry.Subdirs {
		childRel := child
		if relPath != "" {
			childRel = filepath.Join(relPath, child)
		}
		if err := c.collect(root, childRel, snap); err != nil {
			return err
		}
	}

	return nil
}

// Update replaces the cached tree for root with the given entries.
func (c *Cache) Update(root string, entries map[string]*Entry) error {
	if err := c.store.DeletePrefix(root); err != nil {
		return err
	}
	return c.store.PutBatch(root, entries)
}

// Clear removes all cached entries for a root.
func (c *Cache) Clear(root string) error {
	return c.store.DeletePrefix(root)
}

// ClearAll removes all cached entries.
func (c *Cache) ClearAll() error {
	return c.store.DeleteAll()
}

// Count returns the number of cached directories for a root
// (all roots when root is empty).
func (c *Cache) Count(root string) (int, error) {
	return c.store.Count(root)
}
