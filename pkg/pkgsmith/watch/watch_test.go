package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startWatcher(t *testing.T, root string, exclude []string) (*Watcher, chan []string) {
	t.Helper()

	w, err := New(Options{Root: root, Exclude: exclude, Debounce: 50 * time.Millisecond})
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	batches := make(chan []string, 10)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	go w.Run(ctx, func(paths []string) {
		batches <- paths
	})

	// Give the watcher a moment to settle before mutating the tree.
	time.Sleep(50 * time.Millisecond)
	return w, batches
}

func waitForBatch(t *testing.T, batches chan []string) []string {
	t.Helper()
	select {
	case batch := <-batches:
		return batch
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for change batch")
		return nil
	}
}

func TestWatcher_PublicFileChange(t *testing.T) {
	root := t.TempDir()
	_, batches := startWatcher(t, root, nil)

	path := filepath.Join(root, "index.pub.ts")
	require.NoError(t, os.WriteFile(path, []byte("export {}"), 0o644))

	batch := waitForBatch(t, batches)
	assert.Contains(t, batch, path)
}

func TestWatcher_DebounceBatchesChanges(t *testing.T) {
	root := t.TempDir()
	_, batches := startWatcher(t, root, nil)

	a := filepath.Join(root, "a.pub.ts")
	b := filepath.Join(root, "b.bin.ts")
	require.NoError(t, os.WriteFile(a, []byte("export {}"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("#!/usr/bin/env node\n"), 0o644))

	batch := waitForBatch(t, batches)
	assert.Contains(t, batch, a)
	assert.Contains(t, batch, b)
}

func TestWatcher_IgnoresIrrelevantFiles(t *testing.T) {
	root := t.TempDir()
	_, batches := startWatcher(t, root, nil)

	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0o644))

	select {
	case batch := <-batches:
		t.Fatalf("unexpected batch: %v", batch)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher_NewDirectoryIsWatched(t *testing.T) {
	root := t.TempDir()
	w, batches := startWatcher(t, root, nil)

	sub := filepath.Join(root, "src")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	// Directory creation itself produces a batch.
	waitForBatch(t, batches)

	// Wait until the new directory's watch is established.
	require.Eventually(t, func() bool {
		w.mu.RLock()
		defer w.mu.RUnlock()
		return w.paths[sub]
	}, 2*time.Second, 10*time.Millisecond)

	path := filepath.Join(sub, "deep.pub.ts")
	require.NoError(t, os.WriteFile(path, []byte("export {}"), 0o644))

	batch := waitForBatch(t, batches)
	assert.Contains(t, batch, path)
}

func TestWatcher_ExcludedDirNotWatched(t *testing.T) {
	root := t.TempDir()
	nm := filepath.Join(root, "node_modules")
	require.NoError(t, os.MkdirAll(nm, 0o755))

	_, batches := startWatcher(t, root, []string{"node_modules"})

	require.NoError(t, os.WriteFile(filepath.Join(nm, "dep.pub.ts"), []byte("x"), 0o644))

	select {
	case batch := <-batches:
		t.Fatalf("unexpected batch: %v", batch)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher_CloseIdempotent(t *testing.T) {
	w, err := New(Options{Root: t.TempDir()})
	require.NoError(t, err)

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
}
