// Package workspace models the set of packages in a monorepo and resolves
// workspace: protocol dependency ranges into concrete semver ranges.
package workspace

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/pkgsmith/pkgsmith/pkg/pkgsmith/logging"
	"github.com/pkgsmith/pkgsmith/pkg/pkgsmith/manifest"
)

var logger = logging.Get("workspace")

// ErrDuplicatePackage is returned when two manifests declare the same name.
var ErrDuplicatePackage = errors.New("duplicate package name")

// Package represents one workspace package.
type Package struct {
	// Name is the package name from its manifest.
	Name string

	// Version is the package version (may be empty for private roots).
	Version string

	// Dir is the absolute package directory.
	Dir string

	// ManifestPath is the absolute path to the package's package.json.
	ManifestPath string

	// Manifest is the loaded manifest document.
	Manifest *manifest.PackageJSON

	// Private reports the manifest's "private" flag.
	Private bool
}

// Workspace is the set of packages discovered under a root.
type Workspace struct {
	// Root is the workspace root directory.
	Root string

	packages map[string]*Package
	order    []string
}

// Load builds a workspace from discovered manifest paths. Every manifest
// must parse and package names must be unique.
func Load(root string, manifestPaths []string) (*Workspace, error) {
	w := &Workspace{
		Root:     root,
		packages: make(map[string]*Package, len(manifestPaths)),
	}

	for _, path := range manifestPaths {
		pkg, err := manifest.Load(path)
		if err != nil {
			return nil, err
		}

		name := pkg.Name()
		if existing, ok := w.packages[name]; ok {
			return nil, fmt.Errorf("%w: %q declared in both %s and %s",
				ErrDuplicatePackage, name, existing.ManifestPath, path)
		}

		w.packages[name] = &Package{
			Name:         name,
			Version:      pkg.Version(),
			Dir:          filepath.Dir(path),
			ManifestPath: path,
			Manifest:     pkg,
			Private:      pkg.Private(),
		}
		w.order = append(w.order, name)
	}

	sort.Strings(w.order)
	logger.Debug("workspace loaded", "root", root, "packages", len(w.order))
	return w, nil
}

// Packages returns all packages sorted by name.
func (w *Workspace) Packages() []*Package {
	out := make([]*Package, 0, len(w.order))
	for _, name := range w.order {
		out = append(out, w.packages[name])
	}
	return out
}

// Get returns a package by name.
func (w *Workspace) Get(name string) (*Package, bool) {
	pkg, ok := w.packages[name]
	return pkg, ok
}

// Len returns the number of packages.
func (w *Workspace) Len() int {
	return len(w.order)
}
