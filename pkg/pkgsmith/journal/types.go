// Package journal provides run history logging for manifest operations.
package journal

import "time"

// OperationType represents the type of operation.
type OperationType string

const (
	// OpGenerate represents an exports/bin generation run.
	OpGenerate OperationType = "generate"
	// OpResolve represents a workspace range resolution run.
	OpResolve OperationType = "resolve"
	// OpBump represents a version bump run.
	OpBump OperationType = "bump"
)

// Entry represents a single journal entry.
type Entry struct {
	ID        string          `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Operation OperationType   `json:"operation"`
	Root      string          `json:"root"`
	DryRun    bool            `json:"dry_run"`
	Packages  []PackageRecord `json:"packages"`
	Summary   Summary         `json:"summary"`
}

// PackageRecord represents one package touched by a run.
type PackageRecord struct {
	Name     string `json:"name"`
	Dir      string `json:"dir"`
	Exports  int    `json:"exports"`
	Binaries int    `json:"binaries"`
	Changed  bool   `json:"changed"`
	Detail   string `json:"detail,omitempty"` // e.g. "1.2.3 -> 1.3.0" for bumps
}

// Summary contains run summary counts.
type Summary struct {
	TotalPackages int `json:"total_packages"`
	Updated       int `json:"updated"`
}
