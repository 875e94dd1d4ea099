// Package cache provides a badger-backed cache of discovery results,
// keyed by directory modification time. A repeat run over an unchanged
// tree skips the filesystem walk entirely.
package cache

import (
	"bytes"
	"encoding/gob"
)

// Version is incremented when the cache format changes.
const Version = 1

// keySeparator separates root from relative path in cache keys.
const keySeparator = '\x00'

// Entry is a cached snapshot of one directory. File fields hold names
// within the directory, not full paths. Directory mtime changes whenever
// entries are added, removed, or renamed, which is exactly the set of
// events that can change a discovery result.
type Entry struct {
	Mtime       int64    // Directory modification time as UnixNano.
	Subdirs     []string // Child directory names (excluded dirs omitted).
	Public      []string // Public candidate file names (*.pub.ts, *.pub.tsx).
	Binary      []string // Binary candidate file names (*.bin.ts, *.bin.tsx).
	HasManifest bool     // Whether the directory contains package.json.
}

// Encode serializes the entry to bytes using gob.
func (e *Entry) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(e); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode deserializes bytes into the entry using gob.
func (e *Entry) Decode(data []byte) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(e)
}

// MakeKey creates a cache key from root and relative path.
// Format: <root>\x00<relative_path>
func MakeKey(root, relPath string) []byte {
	return []byte(root + string(keySeparator) + relPath)
}

// ParseKey extracts root and relative path from a cache key.
func ParseKey(key []byte) (root, relPath string) {
	idx := bytes.IndexByte(key, keySeparator)
	if idx == -1 {
		return string(key), ""
	}
	return string(key[:idx]), string(key[idx+1:])
}

// MakeKeyPrefix returns the prefix for all keys under a root.
func MakeKeyPrefix(root string) []byte {
	return []byte(root + string(keySeparator))
}
