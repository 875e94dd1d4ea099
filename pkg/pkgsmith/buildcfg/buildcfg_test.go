package buildcfg

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Basic(t *testing.T) {
	cfg, err := Parse([]byte(`{
  "compilerOptions": {
    "outDir": "build",
    "declarationDir": "types"
  }
}`))
	require.NoError(t, err)
	assert.Equal(t, "build", cfg.OutDir)
	assert.Equal(t, "types", cfg.DeclarationDir)
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, "dist", cfg.OutDir)
	assert.Equal(t, "dist", cfg.DeclarationDir)
}

func TestParse_DeclarationDirFollowsOutDir(t *testing.T) {
	cfg, err := Parse([]byte(`{"compilerOptions": {"outDir": "build"}}`))
	require.NoError(t, err)
	assert.Equal(t, "build", cfg.OutDir)
	assert.Equal(t, "build", cfg.DeclarationDir)
}

func TestParse_NormalizesDirs(t *testing.T) {
	cfg, err := Parse([]byte(`{"compilerOptions": {"outDir": "./dist/"}}`))
	require.NoError(t, err)
	assert.Equal(t, "dist", cfg.OutDir)
}

func TestParse_JSONCComments(t *testing.T) {
	cfg, err := Parse([]byte(`{
  // compiler settings
  "compilerOptions": {
    /* output location */
    "outDir": "build", // not "dist"
  },
}`))
	require.NoError(t, err)
	assert.Equal(t, "build", cfg.OutDir)
}

func TestParse_CommentMarkersInsideStrings(t *testing.T) {
	cfg, err := Parse([]byte(`{"compilerOptions": {"outDir": "we//ird"}}`))
	require.NoError(t, err)
	assert.Equal(t, "we//ird", cfg.OutDir)
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte(`{broken`))
	assert.Error(t, err)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg := Load(filepath.Join(t.TempDir(), "tsconfig.json"))
	assert.Equal(t, Default(), cfg)
}

func TestLoad_BrokenFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tsconfig.json")
	require.NoError(t, os.WriteFile(path, []byte("{{{"), 0o644))

	cfg := Load(path)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_ReadsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tsconfig.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
  "compilerOptions": {
    "outDir": "lib",
    "declarationDir": "lib/types",
  }
}`), 0o644))

	cfg := Load(path)
	assert.Equal(t, "lib", cfg.OutDir)
	assert.Equal(t, "lib/types", cfg.DeclarationDir)
}

func TestStripJSONC_TrailingCommas(t *testing.T) {
	out := stripJSONC([]byte(`{"a": [1, 2,], "b": {"c": 3,},}`))
	assert.JSONEq(t, `{"a": [1, 2], "b": {"c": 3}}`, string(out))
}
