// Package buildcfg reads the compiler output locations from tsconfig.json.
// tsconfig is JSONC in practice: comments and trailing commas are
// tolerated. A missing or broken config falls back to defaults rather
// than failing, matching how the generator treats build config as
// advisory input.
package buildcfg

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/pkgsmith/pkgsmith/pkg/pkgsmith/logging"
)

// DefaultOutDir is used when the config file is absent or unreadable, or
// when compilerOptions.outDir is unset.
const DefaultOutDir = "dist"

// FileName is the conventional build config file name.
const FileName = "tsconfig.json"

var logger = logging.Get("buildcfg")

// Config holds the output locations relevant to manifest generation.
type Config struct {
	// OutDir is where compiled artifacts land.
	OutDir string

	// DeclarationDir is where .d.ts files land. Defaults to OutDir when
	// unset, since that is where tsc emits declarations by default.
	DeclarationDir string
}

// Default returns the fallback configuration.
func Default() Config {
	return Config{OutDir: DefaultOutDir, DeclarationDir: DefaultOutDir}
}

// Load reads the build config at path. Any error (missing file, invalid
// content) yields the default configuration; errors are logged, never
// fatal.
func Load(path string) Config {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("cannot read build config, using defaults", "path", path, "error", err)
		}
		return Default()
	}

	cfg, err := Parse(data)
	if err != nil {
		logger.Warn("invalid build config, using defaults", "path", path, "error", err)
		return Default()
	}
	return cfg
}

// Parse parses tsconfig content, tolerating JSONC comments and trailing
// commas.
func Parse(data []byte) (Config, error) {
	var raw struct {
		CompilerOptions struct {
			OutDir         string `json:"outDir"`
			DeclarationDir string `json:"declarationDir"`
		} `json:"compilerOptions"`
	}

	if err := json.Unmarshal(stripJSONC(data), &raw); err != nil {
		return Config{}, err
	}

	cfg := Config{
		OutDir:         cleanDir(raw.CompilerOptions.OutDir),
		DeclarationDir: cleanDir(raw.CompilerOptions.DeclarationDir),
	}
	if cfg.OutDir == "" {
		cfg.OutDir = DefaultOutDir
	}
	if cfg.DeclarationDir == "" {
		cfg.DeclarationDir = cfg.OutDir
	}
	return cfg, nil
}

// cleanDir normalizes a configured directory: "./dist/" becomes "dist".
func cleanDir(dir string) string {
	dir = strings.TrimPrefix(dir, "./")
	dir = strings.TrimSuffix(dir, "/")
	return dir
}

// stripJSONC removes // and /* */ comments and trailing commas while
// leaving string contents intact.
func stripJSONC(data []byte) []byte {
	var out []byte

	const (
		stateNormal = iota
		stateString
		stateLineComment
		stateBlockComment
	)
	state := stateNormal

	for i := 0; i < len(data); i++ {
		c := data[i]

		switch state {
		case stateNormal:
			switch {
			case c == '"':
				state = stateString
				out = append(out, c)
			case c == '/' && i+1 < len(data) && data[i+1] == '/':
				state = stateLineComment
				i++
			case c == '/' && i+1 < len(data) && data[i+1] == '*':
				state = stateBlockComment
				i++
			case c == ',' && nextStructural(data, i+1):
				// Trailing comma before } or ] is dropped.
			default:
				out = append(out, c)
			}
		case stateString:
			out = append(out, c)
			if c == '\\' && i+1 < len(data) {
				out = append(out, data[i+1])
				i++
			} else if c == '"' {
				state = stateNormal
			}
		case stateLineComment:
			if c == '\n' {
				state = stateNormal
				out = append(out, c)
			}
		case stateBlockComment:
			if c == '*' && i+1 < len(data) && data[i+1] == '/' {
				state = stateNormal
				i++
			}
		}
	}

	return out
}

// nextStructural reports whether the next non-whitespace, non-comment
// byte closes an object or array.
func nextStructural(data []byte, from int) bool {
	for i := from; i < len(data); i++ {
		c := data[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			continue
		case c == '/' && i+1 < len(data) && data[i+1] == '/':
			for i < len(data) && data[i] != '\n' {
				i++
			}
		case c == '/' && i+1 < len(data) && data[i+1] == '*':
			i += 2
			for i+1 < len(data) && !(data[i] == '*' && data[i+1] == '/') {
				i++
			}
			i++
		default:
			return c == '}' || c == ']'
		}
	}
	return false
}
