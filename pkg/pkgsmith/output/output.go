// Package output provides formatters for displaying pkgsmith run results
// in various output formats (pretty, plain, json, yaml).
//
// The package uses a registry pattern to allow registration of multiple
// formatter implementations that can be selected at runtime.
//
// Basic usage:
//
//	formatter, err := output.Get("pretty")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	var buf bytes.Buffer
//	if err := formatter.Format(&buf, result); err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Print(buf.String())
package output

import (
	"bytes"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/pkgsmith/pkgsmith/pkg/pkgsmith/release"
	"github.com/pkgsmith/pkgsmith/pkg/pkgsmith/workspace"
)

// PackageReport describes the outcome of processing one package.
type PackageReport struct {
	// Name is the package name.
	Name string `json:"name" yaml:"name"`

	// Dir is the package directory.
	Dir string `json:"dir" yaml:"dir"`

	// Exports is the number of computed export entries.
	Exports int `json:"exports" yaml:"exports"`

	// Binaries is the number of computed bin entries.
	Binaries int `json:"binaries" yaml:"binaries"`

	// ExportMap holds the computed export keys and their default paths.
	ExportMap map[string]string `json:"export_map,omitempty" yaml:"export_map,omitempty"`

	// BinMap holds the computed command names and their paths.
	BinMap map[string]string `json:"bin_map,omitempty" yaml:"bin_map,omitempty"`

	// Changed indicates the manifest content differs from disk.
	Changed bool `json:"changed" yaml:"changed"`

	// Error holds a per-package failure message, if any.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// RunStats contains statistics about a run.
type RunStats struct {
	// DirsScanned is the number of directories traversed during discovery.
	DirsScanned int64 `json:"dirs_scanned" yaml:"dirs_scanned"`

	// FilesScanned is the number of files examined during discovery.
	FilesScanned int64 `json:"files_scanned" yaml:"files_scanned"`

	// Duration is the total run time.
	Duration time.Duration `json:"duration" yaml:"duration"`

	// FromCache indicates discovery was served from the cache.
	FromCache bool `json:"from_cache" yaml:"from_cache"`
}

// Result contains the complete output data for formatting.
type Result struct {
	// Root is the directory the run operated on.
	Root string `json:"root" yaml:"root"`

	// Operation names the run ("generate", "resolve", "bump", "packages").
	Operation string `json:"operation" yaml:"operation"`

	// Packages contains per-package outcomes, sorted by name.
	Packages []PackageReport `json:"packages" yaml:"packages"`

	// Changes contains dependency range rewrites from a resolve run.
	Changes []workspace.Change `json:"changes,omitempty" yaml:"changes,omitempty"`

	// Bumps contains version changes from a bump run.
	Bumps []release.Bump `json:"bumps,omitempty" yaml:"bumps,omitempty"`

	// Stats contains run statistics.
	Stats RunStats `json:"stats" yaml:"stats"`

	// DryRun indicates nothing was written to disk.
	DryRun bool `json:"dry_run" yaml:"dry_run"`

	// Warnings contains any warning messages generated during the run.
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// sortedMapKeys returns m's keys in ascending order.
func sortedMapKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ChangedCount returns the number of packages whose manifest changed.
func (r *Result) ChangedCount() int {
	var n int
	for _, p := range r.Packages {
		if p.Changed {
			n++
		}
	}
	return n
}

// ErrorCount returns the number of packages that failed to process.
func (r *Result) ErrorCount() int {
	var n int
	for _, p := range r.Packages {
		if p.Error != "" {
			n++
		}
	}
	return n
}

// Formatter is the interface that all output formatters must implement.
type Formatter interface {
	// Format writes the formatted output to the buffer.
	// It returns an error if formatting fails.
	Format(w *bytes.Buffer, r *Result) error
}

// FormatterFactory is a function that creates a new Formatter instance.
type FormatterFactory func() Formatter

// Registry manages formatter registration and lookup.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]FormatterFactory
}

// NewRegistry creates a new formatter registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]FormatterFactory),
	}
}

// Register adds a formatter factory to the registry.
// It will replace any existing formatter with the same name.
func (r *Registry) Register(name string, factory FormatterFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Get returns a new formatter instance by name.
// It returns an error if the formatter is not found.
func (r *Registry) Get(name string) (Formatter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown formatter: %s", name)
	}
	return factory(), nil
}

// Available returns a sorted list of all registered formatter names.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry is the global formatter registry.
var DefaultRegistry = NewRegistry()

// Register adds a formatter factory to the default registry.
func Register(name string, factory FormatterFactory) {
	DefaultRegistry.Register(name, factory)
}

// Get returns a new formatter instance from the default registry.
func Get(name string) (Formatter, error) {
	return DefaultRegistry.Get(name)
}

// Available returns all formatter names from the default registry.
func Available() []string {
	return DefaultRegistry.Available()
}
