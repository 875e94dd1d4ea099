package workspace

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/semver"

	"github.com/pkgsmith/pkgsmith/pkg/pkgsmith/manifest"
)

// Protocol is the dependency range prefix that marks an in-workspace
// reference.
const Protocol = "workspace:"

// ErrUnknownPackage is returned when a workspace: range names a package
// that does not exist in the workspace.
var ErrUnknownPackage = errors.New("unknown workspace package")

// ErrInvalidVersion is returned when the referenced package's version
// does not parse as semver.
var ErrInvalidVersion = errors.New("invalid package version")

// ErrInvalidRange is returned when the range after the workspace: prefix
// is not a valid semver constraint.
var ErrInvalidRange = errors.New("invalid workspace range")

// Change records one dependency range rewrite.
type Change struct {
	// Package is the name of the package whose manifest changed.
	Package string `json:"package"`

	// Block is the dependency block ("dependencies", "devDependencies", ...).
	Block string `json:"block"`

	// Dependency is the dependency name whose range was rewritten.
	Dependency string `json:"dependency"`

	// From is the original workspace: range.
	From string `json:"from"`

	// To is the resolved semver range.
	To string `json:"to"`
}

// ResolveRanges rewrites every workspace: dependency range across all
// packages in place and returns the changes in package order. Errors are
// accumulated so a single run reports every unresolvable range.
func (w *Workspace) ResolveRanges() ([]Change, error) {
	var changes []Change
	var errs []error

	for _, pkg := range w.Packages() {
		for _, block := range manifest.DependencyBlocks {
			deps := pkg.Manifest.Dependencies(block)
			if deps == nil {
				continue
			}

			for _, dep := range deps.Keys() {
				raw, _ := deps.Get(dep)
				spec, ok := raw.(string)
				if !ok || !strings.HasPrefix(spec, Protocol) {
					continue
				}

				resolved, err := w.resolveRange(dep, spec)
				if err != nil {
					errs = append(errs, fmt.Errorf("%s: %s.%s: %w", pkg.Name, block, dep, err))
					continue
				}

				if resolved != spec {
					deps.Set(dep, resolved)
					changes = append(changes, Change{
						Package:    pkg.Name,
						Block:      block,
						Dependency: dep,
						From:       spec,
						To:         resolved,
					})
				}
			}
		}
	}

	if len(errs) > 0 {
		return changes, errors.Join(errs...)
	}

	logger.Debug("workspace ranges resolved", "changes", len(changes))
	return changes, nil
}

// resolveRange converts a single workspace: range for the named dependency
// into a concrete semver range based on the target's current version.
func (w *Workspace) resolveRange(dep, spec string) (string, error) {
	target, ok := w.packages[dep]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownPackage, dep)
	}

	inner := strings.TrimPrefix(spec, Protocol)

	switch inner {
	case "*", "^", "~":
		if _, err := semver.NewVersion(target.Version); err != nil {
			return "", fmt.Errorf("%w: %q has version %q", ErrInvalidVersion, dep, target.Version)
		}
		if inner == "*" {
			return target.Version, nil
		}
		return inner + target.Version, nil
	default:
		// Any other range is carried over verbatim once it validates.
		// npm writes ANDed comparators space separated, the constraint
		// parser wants commas, so normalize for validation only.
		normalized := strings.Join(strings.Fields(inner), ", ")
		if _, err := semver.NewConstraint(normalized); err != nil {
			return "", fmt.Errorf("%w: %q", ErrInvalidRange, inner)
		}
		return inner, nil
	}
}

// WriteChanged persists manifests for every package named in changes.
// Each manifest is written at most once.
func (w *Workspace) WriteChanged(changes []Change) error {
	written := make(map[string]bool, len(changes))
	for _, change := range changes {
		if written[change.Package] {
			continue
		}
		pkg, ok := w.packages[change.Package]
		if !ok {
			continue
		}
		if err := pkg.Manifest.Write(pkg.ManifestPath); err != nil {
			return fmt.Errorf("write %s: %w", pkg.ManifestPath, err)
		}
		written[change.Package] = true
	}
	return nil
}
