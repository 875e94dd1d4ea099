// Package release computes and applies package version bumps.
package release

import (
	"errors"
	"fmt"

	"github.com/Masterminds/semver"

	"github.com/pkgsmith/pkgsmith/pkg/pkgsmith/logging"
	"github.com/pkgsmith/pkgsmith/pkg/pkgsmith/workspace"
)

var logger = logging.Get("release")

// Bump levels accepted by Next.
const (
	Major = "major"
	Minor = "minor"
	Patch = "patch"
)

// ErrInvalidBump is returned when the bump argument is neither a level
// nor a valid explicit version.
var ErrInvalidBump = errors.New("invalid bump")

// ErrNoVersion is returned when a package has no current version to bump.
var ErrNoVersion = errors.New("package has no version")

// Bump records one applied version change.
type Bump struct {
	// Package is the bumped package name.
	Package string `json:"package"`

	// From is the version before the bump.
	From string `json:"from"`

	// To is the version after the bump.
	To string `json:"to"`
}

// Next computes the version that follows current for the given bump.
// The bump is either a level (major, minor, patch) or an explicit semver
// version, which is used as-is.
func Next(current, bump string) (string, error) {
	switch bump {
	case Major, Minor, Patch:
		v, err := semver.NewVersion(current)
		if err != nil {
			return "", fmt.Errorf("%w: current version %q: %v", ErrInvalidBump, current, err)
		}
		var next semver.Version
		switch bump {
		case Major:
			next = v.IncMajor()
		case Minor:
			next = v.IncMinor()
		case Patch:
			next = v.IncPatch()
		}
		return next.String(), nil
	default:
		v, err := semver.NewVersion(bump)
		if err != nil {
			return "", fmt.Errorf("%w: %q is neither a level nor a version", ErrInvalidBump, bump)
		}
		return v.Original(), nil
	}
}

// Apply bumps the named package inside the workspace and persists its
// manifest. Packages that depend on it keep their ranges untouched; a
// subsequent resolve run rewrites workspace ranges against the new
// version.
func Apply(w *workspace.Workspace, name, bump string, dryRun bool) (*Bump, error) {
	pkg, ok := w.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", workspace.ErrUnknownPackage, name)
	}

	current := pkg.Version
	if current == "" {
		return nil, fmt.Errorf("%w: %q", ErrNoVersion, name)
	}

	next, err := Next(current, bump)
	if err != nil {
		return nil, err
	}

	result := &Bump{Package: name, From: current, To: next}
	if dryRun {
		return result, nil
	}

	pkg.Manifest.SetVersion(next)
	pkg.Version = next
	if err := pkg.Manifest.Write(pkg.ManifestPath); err != nil {
		return nil, err
	}

	logger.Info("version bumped", "package", name, "from", current, "to", next)
	return result, nil
}
