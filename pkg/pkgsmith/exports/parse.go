// Package exports maps source files named by convention to package.json
// exports and bin entries. Files ending in .pub.ts/.pub.tsx form the export
// surface; files ending in .bin.ts/.bin.tsx become executable entry points.
package exports

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// Recognized suffix pairs for public and binary source files.
var (
	PublicSuffixes = []string{".pub.ts", ".pub.tsx"}
	BinarySuffixes = []string{".bin.ts", ".bin.tsx"}
)

// indexName is the file stem that promotes a file to represent its folder.
const indexName = "index"

// ErrUnrecognizedSuffix is returned when a path does not end in a
// recognized public or binary suffix.
var ErrUnrecognizedSuffix = errors.New("unrecognized file suffix")

// ErrEmptyPath is returned when a path strips down to nothing.
var ErrEmptyPath = errors.New("path reduces to empty export path")

// ErrInvalidBinaryName is returned when a binary path yields an empty
// command name.
var ErrInvalidBinaryName = errors.New("invalid binary name")

// Parsed is the result of parsing a candidate file path.
type Parsed struct {
	// Name is the export key (e.g. "." or "./src/utils") or the bin
	// command name (e.g. "my-cli-tool").
	Name string

	// ParsedPath is the suffix-stripped path relative to the base
	// directory, always slash-separated.
	ParsedPath string
}

// nonAlnum matches maximal runs of characters outside [a-z0-9].
var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// IsPublic reports whether the file name carries a public suffix.
func IsPublic(name string) bool {
	return hasAnySuffix(name, PublicSuffixes)
}

// IsBinary reports whether the file name carries a binary suffix.
func IsBinary(name string) bool {
	return hasAnySuffix(name, BinarySuffixes)
}

// ParseExportPath maps a public source file path to its export key.
//
// The path is made relative to baseDir and the public suffix is stripped.
// A trailing "index" segment is promoted: a root index file maps to ".",
// a nested index file maps to its containing directory. Any other file
// maps to "./" followed by the full stripped path.
func ParseExportPath(path, baseDir string) (Parsed, error) {
	rel, err := relativize(path, baseDir)
	if err != nil {
		return Parsed{}, err
	}

	stripped, ok := stripAnySuffix(rel, PublicSuffixes)
	if !ok {
		return Parsed{}, fmt.Errorf("%w: %q", ErrUnrecognizedSuffix, path)
	}
	if stripped == "" {
		return Parsed{}, fmt.Errorf("%w: %q", ErrEmptyPath, path)
	}

	segments := strings.Split(stripped, "/")
	last := segments[len(segments)-1]

	var name string
	switch {
	case last == indexName && len(segments) == 1:
		name = "."
	case last == indexName:
		name = "./" + strings.Join(segments[:len(segments)-1], "/")
	default:
		name = "./" + stripped
	}

	return Parsed{Name: name, ParsedPath: stripped}, nil
}

// ParseBinaryPath maps a binary source file path to its bin command name.
//
// The command name is the last path segment lowercased, with every run of
// characters outside [a-z0-9] collapsed to a single hyphen and leading or
// trailing hyphens removed. An empty result is an error.
func ParseBinaryPath(path, baseDir string) (Parsed, error) {
	if path == "" {
		return Parsed{}, fmt.Errorf("%w: empty path %q", ErrInvalidBinaryName, path)
	}

	rel, err := relativize(path, baseDir)
	if err != nil {
		return Parsed{}, err
	}

	stripped, ok := stripAnySuffix(rel, BinarySuffixes)
	if !ok {
		return Parsed{}, fmt.Errorf("%w: %q", ErrUnrecognizedSuffix, path)
	}

	segments := strings.Split(stripped, "/")
	last := segments[len(segments)-1]

	name := strings.ToLower(last)
	name = nonAlnum.ReplaceAllString(name, "-")
	name = strings.Trim(name, "-")
	if name == "" {
		return Parsed{}, fmt.Errorf("%w: %q yields an empty command name", ErrInvalidBinaryName, path)
	}

	return Parsed{Name: name, ParsedPath: stripped}, nil
}

// relativize returns path relative to baseDir in slash form. A path that
// is already relative is taken as relative to baseDir.
func relativize(path, baseDir string) (string, error) {
	if filepath.IsAbs(path) {
		rel, err := filepath.Rel(baseDir, path)
		if err != nil {
			return "", fmt.Errorf("cannot relativize %q against %q: %w", path, baseDir, err)
		}
		return filepath.ToSlash(rel), nil
	}
	return filepath.ToSlash(filepath.Clean(path)), nil
}

func hasAnySuffix(name string, suffixes []string) bool {
	for _, s := range suffixes {
		if strings.HasSuffix(name, s) {
			return true
		}
	}
	return false
}

// stripAnySuffix removes the first matching suffix and reports whether a
// suffix matched.
func stripAnySuffix(name string, suffixes []string) (string, bool) {
	for _, s := range suffixes {
		if strings.HasSuffix(name, s) {
			return strings.TrimSuffix(name, s), true
		}
	}
	return name, false
}
