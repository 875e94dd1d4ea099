package generate

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkgsmith/pkgsmith/pkg/pkgsmith/journal"
)

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// monorepo builds a two-package workspace with exports and bin candidates.
func monorepo(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	write(t, filepath.Join(root, "package.json"), `{
  "name": "monorepo-root",
  "private": true
}
`)

	lib := filepath.Join(root, "packages", "lib")
	write(t, filepath.Join(lib, "package.json"), `{
  "name": "@acme/lib",
  "version": "1.0.0"
}
`)
	write(t, filepath.Join(lib, "tsconfig.json"), `{
  "compilerOptions": {
    "outDir": "./build",
    "declarationDir": "./types"
  }
}
`)
	write(t, filepath.Join(lib, "index.pub.ts"), "export {}")
	write(t, filepath.Join(lib, "src", "utils.pub.ts"), "export {}")

	app := filepath.Join(root, "packages", "app")
	write(t, filepath.Join(app, "package.json"), `{
  "name": "@acme/app",
  "version": "1.0.0"
}
`)
	write(t, filepath.Join(app, "src", "main cli.bin.ts"), "#!/usr/bin/env node\nrun()")

	return root
}

func TestRun(t *testing.T) {
	root := monorepo(t)

	result, err := Run(context.Background(), Options{Root: root, Exclude: []string{"node_modules"}})
	require.NoError(t, err)

	assert.Equal(t, "generate", result.Operation)
	require.Len(t, result.Packages, 3)

	byName := map[string]int{}
	for i, pkg := range result.Packages {
		byName[pkg.Name] = i
	}

	lib := result.Packages[byName["@acme/lib"]]
	assert.Equal(t, 2, lib.Exports)
	assert.Equal(t, 0, lib.Binaries)
	assert.True(t, lib.Changed)

	app := result.Packages[byName["@acme/app"]]
	assert.Equal(t, 0, app.Exports)
	assert.Equal(t, 1, app.Binaries)
	assert.True(t, app.Changed)

	// The library manifest gains exports honoring its tsconfig dirs.
	data, err := os.ReadFile(filepath.Join(root, "packages", "lib", "package.json"))
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &doc))

	exports := doc["exports"].(map[string]interface{})
	rootEntry := exports["."].(map[string]interface{})
	assert.Equal(t, "build/index.pub.js", rootEntry["default"])
	assert.Equal(t, "types/index.pub.d.ts", rootEntry["types"])
	srcEntry := exports["./src/utils"].(map[string]interface{})
	assert.Equal(t, "build/src/utils.pub.js", srcEntry["default"])

	// The app manifest gains a sanitized bin command with default outDir.
	data, err = os.ReadFile(filepath.Join(root, "packages", "app", "package.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &doc))

	bin := doc["bin"].(map[string]interface{})
	assert.Equal(t, "dist/src/main cli.bin.js", bin["main-cli"])
}

func TestRun_Idempotent(t *testing.T) {
	root := monorepo(t)

	_, err := Run(context.Background(), Options{Root: root})
	require.NoError(t, err)

	second, err := Run(context.Background(), Options{Root: root})
	require.NoError(t, err)
	assert.Equal(t, 0, second.ChangedCount())
}

func TestRun_DryRun(t *testing.T) {
	root := monorepo(t)
	libManifest := filepath.Join(root, "packages", "lib", "package.json")

	before, err := os.ReadFile(libManifest)
	require.NoError(t, err)

	result, err := Run(context.Background(), Options{Root: root, DryRun: true})
	require.NoError(t, err)
	assert.Positive(t, result.ChangedCount())
	assert.True(t, result.DryRun)

	after, err := os.ReadFile(libManifest)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
}

func TestRun_ReportsComputedMappings(t *testing.T) {
	root := monorepo(t)

	result, err := Run(context.Background(), Options{Root: root, DryRun: true})
	require.NoError(t, err)

	for _, pkg := range result.Packages {
		switch pkg.Name {
		case "@acme/lib":
			assert.Equal(t, "build/index.pub.js", pkg.ExportMap["."])
			assert.Equal(t, "build/src/utils.pub.js", pkg.ExportMap["./src/utils"])
		case "@acme/app":
			assert.Equal(t, "dist/src/main cli.bin.js", pkg.BinMap["main-cli"])
		}
	}
}

func TestRun_ManifestOverride(t *testing.T) {
	root := monorepo(t)

	result, err := Run(context.Background(), Options{
		Root:         root,
		ManifestPath: filepath.Join(root, "packages", "lib", "package.json"),
	})
	require.NoError(t, err)

	require.Len(t, result.Packages, 1)
	assert.Equal(t, "@acme/lib", result.Packages[0].Name)
	assert.Equal(t, 2, result.Packages[0].Exports)
}

func TestRun_BuildConfigOverride(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "package.json"), `{"name":"solo","version":"1.0.0"}`)
	write(t, filepath.Join(root, "index.pub.ts"), "export {}")

	override := filepath.Join(t.TempDir(), "tsconfig.build.json")
	write(t, override, `{"compilerOptions": {"outDir": "./out"}}`)

	result, err := Run(context.Background(), Options{
		Root:            root,
		BuildConfigPath: override,
		DryRun:          true,
	})
	require.NoError(t, err)

	require.Len(t, result.Packages, 1)
	assert.Equal(t, "out/index.pub.js", result.Packages[0].ExportMap["."])
}

func TestRun_EmptyBinFieldRemoved(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "package.json"), `{
  "name": "solo",
  "version": "1.0.0",
  "bin": {
    "stale": "dist/stale.bin.js"
  }
}
`)
	write(t, filepath.Join(root, "index.pub.ts"), "export {}")

	_, err := Run(context.Background(), Options{Root: root})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(root, "package.json"))
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.NotContains(t, doc, "bin")
	assert.Contains(t, doc, "exports")
}

func TestRun_ShebangValidation(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "package.json"), `{"name":"solo","version":"1.0.0"}`)
	write(t, filepath.Join(root, "cli.bin.ts"), "run()")

	result, err := Run(context.Background(), Options{Root: root, ValidateShebang: true})
	require.NoError(t, err)

	require.Len(t, result.Packages, 1)
	assert.NotEmpty(t, result.Packages[0].Error)
	assert.False(t, result.Packages[0].Changed)
}

func TestRun_NestedPackageOwnsItsFiles(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "package.json"), `{"name":"outer","version":"1.0.0"}`)
	write(t, filepath.Join(root, "index.pub.ts"), "export {}")

	inner := filepath.Join(root, "inner")
	write(t, filepath.Join(inner, "package.json"), `{"name":"inner","version":"1.0.0"}`)
	write(t, filepath.Join(inner, "index.pub.ts"), "export {}")

	result, err := Run(context.Background(), Options{Root: root})
	require.NoError(t, err)

	counts := map[string]int{}
	for _, pkg := range result.Packages {
		counts[pkg.Name] = pkg.Exports
	}
	assert.Equal(t, 1, counts["outer"])
	assert.Equal(t, 1, counts["inner"])
}

func TestRun_Journal(t *testing.T) {
	root := monorepo(t)

	j, err := journal.New(filepath.Join(t.TempDir(), "journal"))
	require.NoError(t, err)
	require.NoError(t, j.EnsureDir())

	_, err = Run(context.Background(), Options{Root: root, Journal: j})
	require.NoError(t, err)

	entries, err := j.List(0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, journal.OpGenerate, entries[0].Operation)
	assert.Equal(t, 3, entries[0].Summary.TotalPackages)
}
