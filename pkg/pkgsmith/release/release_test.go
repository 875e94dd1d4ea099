package release

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkgsmith/pkgsmith/pkg/pkgsmith/workspace"
)

func TestNext(t *testing.T) {
	tests := []struct {
		current string
		bump    string
		want    string
	}{
		{"1.2.3", "major", "2.0.0"},
		{"1.2.3", "minor", "1.3.0"},
		{"1.2.3", "patch", "1.2.4"},
		{"0.0.9", "minor", "0.1.0"},
		{"1.2.3", "5.0.0-rc.1", "5.0.0-rc.1"},
	}

	for _, tt := range tests {
		got, err := Next(tt.current, tt.bump)
		require.NoError(t, err, "Next(%q, %q)", tt.current, tt.bump)
		assert.Equal(t, tt.want, got, "Next(%q, %q)", tt.current, tt.bump)
	}
}

func TestNext_Invalid(t *testing.T) {
	_, err := Next("1.2.3", "gigantic")
	assert.ErrorIs(t, err, ErrInvalidBump)

	_, err = Next("not-semver", "patch")
	assert.ErrorIs(t, err, ErrInvalidBump)
}

func loadSingle(t *testing.T, manifest string) *workspace.Workspace {
	t.Helper()
	root := t.TempDir()
	path := filepath.Join(root, "package.json")
	require.NoError(t, os.WriteFile(path, []byte(manifest), 0o644))

	w, err := workspace.Load(root, []string{path})
	require.NoError(t, err)
	return w
}

func TestApply(t *testing.T) {
	w := loadSingle(t, `{"name":"lib","version":"1.0.0"}`)

	bump, err := Apply(w, "lib", "minor", false)
	require.NoError(t, err)
	assert.Equal(t, &Bump{Package: "lib", From: "1.0.0", To: "1.1.0"}, bump)

	pkg, _ := w.Get("lib")
	assert.Equal(t, "1.1.0", pkg.Version)

	data, err := os.ReadFile(pkg.ManifestPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"version": "1.1.0"`)
}

func TestApply_DryRun(t *testing.T) {
	w := loadSingle(t, `{"name": "lib", "version": "1.0.0"}`)

	bump, err := Apply(w, "lib", "major", true)
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", bump.To)

	pkg, _ := w.Get("lib")
	assert.Equal(t, "1.0.0", pkg.Version)

	data, err := os.ReadFile(pkg.ManifestPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"version": "1.0.0"`)
}

func TestApply_UnknownPackage(t *testing.T) {
	w := loadSingle(t, `{"name":"lib","version":"1.0.0"}`)

	_, err := Apply(w, "ghost", "patch", false)
	assert.ErrorIs(t, err, workspace.ErrUnknownPackage)
}

func TestApply_NoVersion(t *testing.T) {
	w := loadSingle(t, `{"name":"root","private":true}`)

	_, err := Apply(w, "root", "patch", false)
	assert.ErrorIs(t, err, ErrNoVersion)
}
