package output

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/pkgsmith/pkgsmith/pkg/pkgsmith/release"
	"github.com/pkgsmith/pkgsmith/pkg/pkgsmith/workspace"
)

func sampleResult() *Result {
	return &Result{
		Root:      "/work/monorepo",
		Operation: "generate",
		Packages: []PackageReport{
			{Name: "@acme/app", Dir: "/work/monorepo/packages/app", Exports: 2, Binaries: 1, Changed: true},
			{Name: "@acme/lib", Dir: "/work/monorepo/packages/lib", Exports: 3, Binaries: 0},
		},
		Changes: []workspace.Change{
			{Package: "@acme/app", Block: "dependencies", Dependency: "@acme/lib", From: "workspace:^", To: "^1.2.3"},
		},
		Bumps: []release.Bump{
			{Package: "@acme/lib", From: "1.2.3", To: "1.3.0"},
		},
		Stats: RunStats{
			DirsScanned:  10,
			FilesScanned: 42,
			Duration:     120 * time.Millisecond,
		},
		Warnings: []string{"skipped malformed manifest"},
	}
}

func TestRegistry(t *testing.T) {
	names := Available()
	assert.Contains(t, names, "pretty")
	assert.Contains(t, names, "plain")
	assert.Contains(t, names, "json")
	assert.Contains(t, names, "yaml")

	_, err := Get("nope")
	assert.Error(t, err)
}

func TestChangedCount(t *testing.T) {
	r := sampleResult()
	assert.Equal(t, 1, r.ChangedCount())
}

func TestPlainFormatter(t *testing.T) {
	var buf bytes.Buffer
	f, err := Get("plain")
	require.NoError(t, err)
	require.NoError(t, f.Format(&buf, sampleResult()))

	out := buf.String()
	assert.Contains(t, out, "PACKAGE")
	assert.Contains(t, out, "@acme/app")
	assert.Contains(t, out, "updated")
	assert.Contains(t, out, "unchanged")
	assert.Contains(t, out, "workspace:^ -> ^1.2.3")
	assert.Contains(t, out, "1.2.3 -> 1.3.0")
}

func TestPrettyFormatter(t *testing.T) {
	var buf bytes.Buffer
	f, err := Get("pretty")
	require.NoError(t, err)
	require.NoError(t, f.Format(&buf, sampleResult()))

	out := buf.String()
	assert.Contains(t, out, "@acme/app")
	assert.Contains(t, out, "2 exports, 1 bins")
	assert.Contains(t, out, "warning: skipped malformed manifest")
}

func TestPlainFormatter_DryRunMappings(t *testing.T) {
	r := sampleResult()
	r.DryRun = true
	r.Packages[0].ExportMap = map[string]string{".": "dist/index.pub.js", "./util": "dist/util.pub.js"}
	r.Packages[0].BinMap = map[string]string{"app": "dist/cli.bin.js"}

	var buf bytes.Buffer
	f := &PlainFormatter{}
	require.NoError(t, f.Format(&buf, r))

	out := buf.String()
	assert.Contains(t, out, "@acme/app export . -> dist/index.pub.js")
	assert.Contains(t, out, "@acme/app export ./util -> dist/util.pub.js")
	assert.Contains(t, out, "@acme/app bin app -> dist/cli.bin.js")
}

func TestErrorCount(t *testing.T) {
	r := sampleResult()
	assert.Equal(t, 0, r.ErrorCount())
	r.Packages[1].Error = "no package.json found"
	assert.Equal(t, 1, r.ErrorCount())
}

func TestPrettyFormatter_Empty(t *testing.T) {
	var buf bytes.Buffer
	f := &PrettyFormatter{}
	require.NoError(t, f.Format(&buf, &Result{Root: "/r", Operation: "generate"}))
	assert.Contains(t, buf.String(), "No packages found")
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	f, err := Get("json")
	require.NoError(t, err)
	require.NoError(t, f.Format(&buf, sampleResult()))

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))

	meta := decoded["meta"].(map[string]interface{})
	assert.Equal(t, "generate", meta["operation"])
	assert.Equal(t, float64(2), meta["total_packages"])
	assert.Equal(t, float64(1), meta["updated"])

	pkgs := decoded["packages"].([]interface{})
	require.Len(t, pkgs, 2)
}

func TestYAMLFormatter(t *testing.T) {
	var buf bytes.Buffer
	f, err := Get("yaml")
	require.NoError(t, err)
	require.NoError(t, f.Format(&buf, sampleResult()))

	var decoded map[string]interface{}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))

	meta := decoded["meta"].(map[string]interface{})
	assert.Equal(t, "generate", meta["operation"])
	assert.Equal(t, 2, meta["total_packages"])
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "500µs", formatDuration(500*time.Microsecond))
	assert.Equal(t, "120ms", formatDuration(120*time.Millisecond))
	assert.Equal(t, "1.5s", formatDuration(1500*time.Millisecond))
}
