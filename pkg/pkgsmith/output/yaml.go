package output

import (
	"bytes"

	"gopkg.in/yaml.v3"

	"github.com/pkgsmith/pkgsmith/pkg/pkgsmith/release"
	"github.com/pkgsmith/pkgsmith/pkg/pkgsmith/workspace"
)

// yamlOutput represents the full YAML output structure.
type yamlOutput struct {
	Packages []PackageReport    `yaml:"packages"`
	Changes  []workspace.Change `yaml:"changes,omitempty"`
	Bumps    []release.Bump     `yaml:"bumps,omitempty"`
	Stats    yamlStats          `yaml:"stats"`
	Meta     yamlMeta           `yaml:"meta"`
}

// yamlStats represents run statistics in YAML output.
type yamlStats struct {
	DirsScanned  int64  `yaml:"dirs_scanned"`
	FilesScanned int64  `yaml:"files_scanned"`
	Duration     string `yaml:"duration"`
	FromCache    bool   `yaml:"from_cache"`
}

// yamlMeta represents metadata in YAML output.
type yamlMeta struct {
	Root          string   `yaml:"root"`
	Operation     string   `yaml:"operation"`
	TotalPackages int      `yaml:"total_packages"`
	Updated       int      `yaml:"updated"`
	DryRun        bool     `yaml:"dry_run"`
	Warnings      []string `yaml:"warnings,omitempty"`
}

// YAMLFormatter formats output as YAML.
// It produces the same structure as JSONFormatter but in YAML format.
type YAMLFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *YAMLFormatter) Format(w *bytes.Buffer, r *Result) error {
	output := f.buildOutput(r)

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(output); err != nil {
		return err
	}
	return encoder.Close()
}

// buildOutput converts Result to the YAML output structure.
func (f *YAMLFormatter) buildOutput(r *Result) yamlOutput {
	return yamlOutput{
		Packages: r.Packages,
		Changes:  r.Changes,
		Bumps:    r.Bumps,
		Stats: yamlStats{
			DirsScanned:  r.Stats.DirsScanned,
			FilesScanned: r.Stats.FilesScanned,
			Duration:     formatDurationString(r.Stats.Duration),
			FromCache:    r.Stats.FromCache,
		},
		Meta: yamlMeta{
			Root:          r.Root,
			Operation:     r.Operation,
			TotalPackages: len(r.Packages),
			Updated:       r.ChangedCount(),
			DryRun:        r.DryRun,
			Warnings:      r.Warnings,
		},
	}
}

func init() {
	Register("yaml", func() Formatter {
		return &YAMLFormatter{}
	})
}

// Ensure YAMLFormatter implements Formatter.
var _ Formatter = (*YAMLFormatter)(nil)
