package output

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/pkgsmith/pkgsmith/pkg/pkgsmith/release"
	"github.com/pkgsmith/pkgsmith/pkg/pkgsmith/workspace"
)

// jsonOutput represents the full JSON output structure.
type jsonOutput struct {
	Packages []PackageReport    `json:"packages"`
	Changes  []workspace.Change `json:"changes,omitempty"`
	Bumps    []release.Bump     `json:"bumps,omitempty"`
	Stats    jsonStats          `json:"stats"`
	Meta     jsonMeta           `json:"meta"`
}

// jsonStats represents run statistics in JSON output.
type jsonStats struct {
	DirsScanned  int64  `json:"dirs_scanned"`
	FilesScanned int64  `json:"files_scanned"`
	Duration     string `json:"duration"`
	FromCache    bool   `json:"from_cache"`
}

// jsonMeta represents metadata in JSON output.
type jsonMeta struct {
	Root          string   `json:"root"`
	Operation     string   `json:"operation"`
	TotalPackages int      `json:"total_packages"`
	Updated       int      `json:"updated"`
	DryRun        bool     `json:"dry_run"`
	Warnings      []string `json:"warnings,omitempty"`
}

// JSONFormatter formats output as a single indented JSON object.
type JSONFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *JSONFormatter) Format(w *bytes.Buffer, r *Result) error {
	output := f.buildOutput(r)

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

// buildOutput converts Result to the JSON output structure.
func (f *JSONFormatter) buildOutput(r *Result) jsonOutput {
	return jsonOutput{
		Packages: r.Packages,
		Changes:  r.Changes,
		Bumps:    r.Bumps,
		Stats: jsonStats{
			DirsScanned:  r.Stats.DirsScanned,
			FilesScanned: r.Stats.FilesScanned,
			Duration:     formatDurationString(r.Stats.Duration),
			FromCache:    r.Stats.FromCache,
		},
		Meta: jsonMeta{
			Root:          r.Root,
			Operation:     r.Operation,
			TotalPackages: len(r.Packages),
			Updated:       r.ChangedCount(),
			DryRun:        r.DryRun,
			Warnings:      r.Warnings,
		},
	}
}

// formatDurationString formats a duration as a string for JSON output.
func formatDurationString(d time.Duration) string {
	if d == 0 {
		return ""
	}
	return d.String()
}

func init() {
	Register("json", func() Formatter {
		return &JSONFormatter{}
	})
}

// Ensure JSONFormatter implements Formatter.
var _ Formatter = (*JSONFormatter)(nil)
