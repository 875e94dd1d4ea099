package journal

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := New(filepath.Join(t.TempDir(), "journal"))
	require.NoError(t, err)
	require.NoError(t, j.EnsureDir())
	return j
}

func TestNew_EmptyDir(t *testing.T) {
	_, err := New("")
	assert.Error(t, err)
}

func TestLogAndGet(t *testing.T) {
	j := newJournal(t)

	entry, err := j.Log(OpGenerate, "/work/monorepo", false, []PackageRecord{
		{Name: "@acme/app", Exports: 2, Binaries: 1, Changed: true},
		{Name: "@acme/lib", Exports: 3},
	})
	require.NoError(t, err)

	assert.Contains(t, entry.ID, "generate-")
	assert.Equal(t, Summary{TotalPackages: 2, Updated: 1}, entry.Summary)

	got, err := j.Get(entry.ID)
	require.NoError(t, err)
	assert.Equal(t, entry.ID, got.ID)
	assert.Equal(t, OpGenerate, got.Operation)
	assert.Len(t, got.Packages, 2)
}

func TestGet_NotFound(t *testing.T) {
	j := newJournal(t)

	_, err := j.Get("ghost")
	assert.Error(t, err)

	_, err = j.Get("")
	assert.Error(t, err)
}

func TestList(t *testing.T) {
	j := newJournal(t)

	first, err := j.Log(OpGenerate, "/r", false, nil)
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)
	second, err := j.Log(OpBump, "/r", true, []PackageRecord{
		{Name: "lib", Changed: true, Detail: "1.0.0 -> 1.1.0"},
	})
	require.NoError(t, err)

	entries, err := j.List(0)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Newest first.
	assert.Equal(t, second.ID, entries[0].ID)
	assert.Equal(t, first.ID, entries[1].ID)

	limited, err := j.List(1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, second.ID, limited[0].ID)
}

func TestList_MissingDir(t *testing.T) {
	j, err := New(filepath.Join(t.TempDir(), "never-created"))
	require.NoError(t, err)

	entries, err := j.List(0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestList_SkipsMalformed(t *testing.T) {
	j := newJournal(t)

	_, err := j.Log(OpResolve, "/r", false, nil)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(j.dir, "junk.json"), []byte("{"), 0o644))

	entries, err := j.List(0)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestCleanup(t *testing.T) {
	j := newJournal(t)

	entry, err := j.Log(OpGenerate, "/r", false, nil)
	require.NoError(t, err)

	// Age the entry file past the retention window.
	path := filepath.Join(j.dir, entry.ID+".json")
	old := time.Now().AddDate(0, 0, -40)
	require.NoError(t, os.Chtimes(path, old, old))

	require.NoError(t, j.Cleanup(30))

	entries, err := j.List(0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
