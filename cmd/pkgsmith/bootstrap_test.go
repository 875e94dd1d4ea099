package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCommandsRegistered(t *testing.T) {
	want := []string{
		"generate", "resolve", "bump", "env", "packages",
		"history", "cache", "config", "version",
	}

	registered := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		registered[cmd.Name()] = true
	}

	for _, name := range want {
		if !registered[name] {
			t.Errorf("command %q is not registered", name)
		}
	}
}

func TestResolveRoot(t *testing.T) {
	dir := t.TempDir()

	got, err := resolveRoot([]string{dir})
	if err != nil {
		t.Fatalf("resolveRoot failed: %v", err)
	}
	if got != dir {
		t.Errorf("resolveRoot = %q, want %q", got, dir)
	}
}

func TestResolveRoot_Missing(t *testing.T) {
	if _, err := resolveRoot([]string{filepath.Join(t.TempDir(), "nope")}); err == nil {
		t.Error("expected error for missing path")
	}
}

func TestResolveRoot_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := resolveRoot([]string{path}); err == nil {
		t.Error("expected error for non-directory path")
	}
}

func TestTruncateString(t *testing.T) {
	tests := []struct {
		input  string
		maxLen int
		want   string
	}{
		{"short", 10, "short"},
		{"exactly-ten", 11, "exactly-ten"},
		{"this is a long string", 10, "this is..."},
		{"abc", 2, "ab"},
	}

	for _, tt := range tests {
		if got := truncateString(tt.input, tt.maxLen); got != tt.want {
			t.Errorf("truncateString(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
		}
	}
}
