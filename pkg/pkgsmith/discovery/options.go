// Package discovery finds candidate files across a package tree: public
// and binary source files named by convention, and package.json manifests.
// It walks directories in parallel using fastwalk and can reuse results
// from the badger-backed discovery cache.
package discovery

import (
	"github.com/pkgsmith/pkgsmith/pkg/pkgsmith/cache"
	"github.com/pkgsmith/pkgsmith/pkg/pkgsmith/config"
)

// Options configures the walker behavior.
type Options struct {
	// Root is the starting directory for discovery.
	Root string

	// Exclude contains directory names or glob patterns to skip.
	// Patterns are matched against the directory base name.
	Exclude []string

	// MaxDepth bounds traversal depth relative to the root (0 = unbounded).
	MaxDepth int

	// Workers is the fastwalk worker count (0 = automatic).
	Workers int

	// Cache is an optional discovery cache. If nil, caching is disabled.
	Cache *cache.Cache
}

// DefaultOptions returns options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		Root:     ".",
		Exclude:  config.DefaultExclusions,
		MaxDepth: config.DefaultMaxDepth,
		Workers:  config.DefaultWorkers,
	}
}

// Validate applies defaults for unset values.
func (o *Options) Validate() error {
	if o.Root == "" {
		o.Root = "."
	}
	if o.MaxDepth < 0 {
		o.MaxDepth = 0
	}
	if o.Workers < 0 {
		o.Workers = 0
	}
	return nil
}
