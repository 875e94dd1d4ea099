// Package manifest provides an order-preserving model of package.json
// documents. Field order of untouched keys survives a read/rewrite cycle,
// so rewriting a manifest only ever changes the fields pkgsmith computed.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/keboola/go-utils/pkg/orderedmap"
)

// FileName is the manifest file name within a package directory.
const FileName = "package.json"

// ErrNotFound is returned when the manifest file does not exist.
var ErrNotFound = errors.New("no package.json found")

// ErrMissingName is returned when a manifest has no "name" field.
var ErrMissingName = errors.New(`package.json is missing the "name" field`)

// Dependency blocks that may contain workspace ranges.
var DependencyBlocks = []string{
	"dependencies",
	"devDependencies",
	"peerDependencies",
	"optionalDependencies",
}

// PackageJSON is an in-memory package.json document.
// The zero value is not usable; use New, Parse, or Load.
type PackageJSON struct {
	doc  *orderedmap.OrderedMap
	path string
}

// New creates an empty manifest with the given package name.
func New(name string) *PackageJSON {
	doc := orderedmap.New()
	doc.Set("name", name)
	return &PackageJSON{doc: doc}
}

// Load reads and parses the manifest at path.
// It returns ErrNotFound (wrapped) if the file does not exist.
func Load(path string) (*PackageJSON, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w at %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	pkg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	pkg.path = path
	return pkg, nil
}

// Parse parses manifest content. The document must be a JSON object with a
// non-empty "name" string field.
func Parse(data []byte) (*PackageJSON, error) {
	doc := orderedmap.New()
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	pkg := &PackageJSON{doc: doc}
	if pkg.Name() == "" {
		return nil, ErrMissingName
	}
	return pkg, nil
}

// Path returns the file path the manifest was loaded from, if any.
func (p *PackageJSON) Path() string {
	return p.path
}

// Name returns the package name, or "" if unset.
func (p *PackageJSON) Name() string {
	return p.getString("name")
}

// Version returns the package version, or "" if unset.
func (p *PackageJSON) Version() string {
	return p.getString("version")
}

// SetVersion sets the package version.
func (p *PackageJSON) SetVersion(version string) {
	p.doc.Set("version", version)
}

// Private reports whether the package is marked "private": true.
func (p *PackageJSON) Private() bool {
	v, ok := p.doc.Get("private")
	if !ok {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}

// Get returns a raw top-level field value.
func (p *PackageJSON) Get(key string) (interface{}, bool) {
	return p.doc.Get(key)
}

// Set sets a raw top-level field value.
func (p *PackageJSON) Set(key string, value interface{}) {
	p.doc.Set(key, value)
}

// Delete removes a top-level field.
func (p *PackageJSON) Delete(key string) {
	p.doc.Delete(key)
}

// Dependencies returns the named dependency block, or nil if absent.
// The returned map is live: mutations are reflected in the manifest.
func (p *PackageJSON) Dependencies(block string) *orderedmap.OrderedMap {
	v, ok := p.doc.Get(block)
	if !ok {
		return nil
	}
	deps, ok := v.(*orderedmap.OrderedMap)
	if !ok {
		return nil
	}
	return deps
}

// Clone returns a deep copy of the manifest.
func (p *PackageJSON) Clone() *PackageJSON {
	return &PackageJSON{doc: p.doc.Clone(), path: p.path}
}

// Encode serializes the manifest with 2-space indentation and a trailing
// newline, matching the on-disk convention.
func (p *PackageJSON) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(p.doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal manifest: %w", err)
	}
	return append(data, '\n'), nil
}

// Write serializes the manifest and writes it to path atomically using a
// temp file and rename, so a failed write never leaves a partial manifest.
func (p *PackageJSON) Write(path string) error {
	data, err := p.Encode()
	if err != nil {
		return err
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

func (p *PackageJSON) getString(key string) string {
	v, ok := p.doc.Get(key)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// Update applies computed exports and bin mappings onto a copy of pkg.
// The exports field is always set, even when empty. The bin field is set
// only when non-empty; an empty bin mapping removes the field entirely.
// The original manifest is not mutated.
func Update(pkg *PackageJSON, exports, bin *orderedmap.OrderedMap) *PackageJSON {
	out := pkg.Clone()

	if exports == nil {
		exports = orderedmap.New()
	}
	out.doc.Set("exports", exports)

	if bin != nil && bin.Len() > 0 {
		out.doc.Set("bin", bin)
	} else {
		out.doc.Delete("bin")
	}

	return out
}
