// Package envrun loads environment variables from dotenv files and an
// optional remote secrets service, then runs a child command with the
// merged environment.
package envrun

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"

	"github.com/pkgsmith/pkgsmith/pkg/pkgsmith/logging"
)

var logger = logging.Get("envrun")

// LoadFiles reads the given dotenv files relative to dir and merges them
// in order, later files overriding earlier ones. Missing files are
// skipped.
func LoadFiles(dir string, files []string) (map[string]string, error) {
	merged := make(map[string]string)

	for _, file := range files {
		path := file
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, file)
		}

		vars, err := godotenv.Read(path)
		if err != nil {
			if os.IsNotExist(err) {
				logger.Debug("env file not found, skipping", "path", path)
				continue
			}
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}

		for k, v := range vars {
			merged[k] = v
		}
		logger.Debug("env file loaded", "path", path, "vars", len(vars))
	}

	return merged, nil
}

// Merge overlays vars onto the given environ slice. Existing entries win
// unless override is set.
func Merge(environ []string, vars map[string]string, override bool) []string {
	existing := make(map[string]bool, len(environ))
	out := make([]string, 0, len(environ)+len(vars))

	for _, kv := range environ {
		key, _, _ := strings.Cut(kv, "=")
		if override {
			if _, ok := vars[key]; ok {
				continue
			}
		}
		existing[key] = true
		out = append(out, kv)
	}

	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if !override && existing[k] {
			continue
		}
		out = append(out, k+"="+vars[k])
	}

	return out
}
