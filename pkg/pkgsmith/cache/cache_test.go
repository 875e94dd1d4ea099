package cache

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// dirMtime returns the directory's mtime as UnixNano.
func dirMtime(t *testing.T, path string) int64 {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	return info.ModTime().UnixNano()
}

func TestEntryEncodeDecode(t *testing.T) {
	entry := &Entry{
		Mtime:       time.Now().UnixNano(),
		Subdirs:     []string{"src", "tools"},
		Public:      []string{"index.pub.ts"},
		Binary:      []string{"cli.bin.ts"},
		HasManifest: true,
	}

	data, err := entry.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	var decoded Entry
	if err := decoded.Decode(data); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if decoded.Mtime != entry.Mtime {
		t.Errorf("Mtime = %d, want %d", decoded.Mtime, entry.Mtime)
	}
	if len(decoded.Subdirs) != 2 || decoded.Subdirs[0] != "src" {
		t.Errorf("Subdirs = %v", decoded.Subdirs)
	}
	if !decoded.HasManifest {
		t.Error("HasManifest should be true")
	}
}

func TestMakeParseKey(t *testing.T) {
	key := MakeKey("/proj", "src/lib")
	root, rel := ParseKey(key)
	if root != "/proj" || rel != "src/lib" {
		t.Errorf("ParseKey = (%q, %q)", root, rel)
	}

	key = MakeKey("/proj", "")
	root, rel = ParseKey(key)
	if root != "/proj" || rel != "" {
		t.Errorf("ParseKey root-only = (%q, %q)", root, rel)
	}
}

func TestCacheGetNotFound(t *testing.T) {
	c, err := Open(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer c.Close()

	_, err = c.Get("/never/cached")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get = %v, want ErrNotFound", err)
	}
}

func TestCacheRoundTrip(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src")
	if err := os.Mkdir(src, 0o755); err != nil {
		t.Fatal(err)
	}
	mustWrite(t, filepath.Join(root, "package.json"), `{"name":"demo"}`)
	mustWrite(t, filepath.Join(src, "index.pub.ts"), "export {}")

	c, err := Open(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	entries := map[string]*Entry{
		"": {
			Mtime:       dirMtime(t, root),
			Subdirs:     []string{"src"},
			HasManifest: true,
		},
		"src": {
			Mtime:  dirMtime(t, src),
			Public: []string{"index.pub.ts"},
		},
	}
	if err := c.Update(root, entries); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	snap, err := c.Get(root)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if snap.Dirs != 2 {
		t.Errorf("Dirs = %d, want 2", snap.Dirs)
	}
	if len(snap.Public) != 1 || snap.Public[0] != filepath.Join(src, "index.pub.ts") {
		t.Errorf("Public = %v", snap.Public)
	}
	if len(snap.Manifests) != 1 {
		t.Errorf("Manifests = %v", snap.Manifests)
	}
}

func TestCacheStaleOnMtimeChange(t *testing.T) {
	root := t.TempDir()

	c, err := Open(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	entries := map[string]*Entry{
		"": {Mtime: dirMtime(t, root)},
	}
	if err := c.Update(root, entries); err != nil {
		t.Fatal(err)
	}

	// Adding a file bumps the directory mtime. Force a distinct mtime in
	// case the filesystem's resolution is coarse.
	mustWrite(t, filepath.Join(root, "new.pub.ts"), "export {}")
	future := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(root, future, future); err != nil {
		t.Fatal(err)
	}

	_, err = c.Get(root)
	if !errors.Is(err, ErrStale) {
		t.Errorf("Get = %v, want ErrStale", err)
	}
}

func TestCacheStaleOnMissingChild(t *testing.T) {
	root := t.TempDir()

	c, err := Open(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	// Parent lists a child that was never written.
	entries := map[string]*Entry{
		"": {Mtime: dirMtime(t, root), Subdirs: []string{"ghost"}},
	}
	if err := c.Update(root, entries); err != nil {
		t.Fatal(err)
	}

	_, err = c.Get(root)
	if !errors.Is(err, ErrStale) {
		t.Errorf("Get = %v, want ErrStale", err)
	}
}

func TestCacheClear(t *testing.T) {
	root := t.TempDir()

	c, err := Open(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if err := c.Update(root, map[string]*Entry{"": {Mtime: dirMtime(t, root)}}); err != nil {
		t.Fatal(err)
	}

	count, err := c.Count(root)
	if err != nil || count != 1 {
		t.Fatalf("Count = %d, %v", count, err)
	}

	if err := c.Clear(root); err != nil {
		t.Fatal(err)
	}

	_, err = c.Get(root)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after Clear = %v, want ErrNotFound", err)
	}
}

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
