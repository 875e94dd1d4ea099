package exports

import (
	"path"
	"sort"

	"github.com/keboola/go-utils/pkg/orderedmap"

	"github.com/pkgsmith/pkgsmith/pkg/pkgsmith/logging"
)

// logger is the package-level logger for generation operations.
var logger = logging.Get("exports")

// Compiled artifact suffixes. The build keeps the naming-convention suffix
// in the artifact name: src/utils.pub.ts compiles to src/utils.pub.js with
// declarations in src/utils.pub.d.ts.
const (
	publicArtifactSuffix = ".pub.js"
	publicTypesSuffix    = ".pub.d.ts"
	binaryArtifactSuffix = ".bin.js"
)

// Target is a fully populated exports record. Partial records are not a
// valid state: both fields are always set.
type Target struct {
	Default string `json:"default"`
	Types   string `json:"types"`
}

// GenerateExports folds public file paths into an exports mapping.
//
// Keys are always sorted ascending lexicographically, independent of input
// order. When two inputs normalize to the same export key, the later one
// silently wins (preserved source behavior; an overwrite is logged at
// debug level for diagnosability).
func GenerateExports(paths []string, baseDir, outDir, declarationDir string) (*orderedmap.OrderedMap, error) {
	entries := make(map[string]Target, len(paths))

	for _, p := range paths {
		parsed, err := ParseExportPath(p, baseDir)
		if err != nil {
			return nil, err
		}

		if _, exists := entries[parsed.Name]; exists {
			logger.Debug("export key overwritten", "key", parsed.Name, "path", p)
		}
		entries[parsed.Name] = Target{
			Default: path.Join(outDir, parsed.ParsedPath+publicArtifactSuffix),
			Types:   path.Join(declarationDir, parsed.ParsedPath+publicTypesSuffix),
		}
	}

	return sortedTargets(entries), nil
}

// GenerateBin folds binary file paths into a bin mapping, sorted ascending
// lexicographically by command name. Collision policy matches
// GenerateExports.
func GenerateBin(paths []string, baseDir, outDir string) (*orderedmap.OrderedMap, error) {
	entries := make(map[string]string, len(paths))

	for _, p := range paths {
		parsed, err := ParseBinaryPath(p, baseDir)
		if err != nil {
			return nil, err
		}

		if _, exists := entries[parsed.Name]; exists {
			logger.Debug("bin command overwritten", "command", parsed.Name, "path", p)
		}
		entries[parsed.Name] = path.Join(outDir, parsed.ParsedPath+binaryArtifactSuffix)
	}

	out := orderedmap.New()
	for _, name := range sortedKeys(entries) {
		out.Set(name, entries[name])
	}
	return out, nil
}

func sortedTargets(entries map[string]Target) *orderedmap.OrderedMap {
	out := orderedmap.New()
	for _, name := range sortedKeys(entries) {
		out.Set(name, entries[name])
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
