// Package generate orchestrates a full manifest generation run: discover
// candidate files, compute exports and bin mappings per package, and
// rewrite each package.json whose content changed.
package generate

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pkgsmith/pkgsmith/pkg/pkgsmith/buildcfg"
	"github.com/pkgsmith/pkgsmith/pkg/pkgsmith/cache"
	"github.com/pkgsmith/pkgsmith/pkg/pkgsmith/discovery"
	"github.com/pkgsmith/pkgsmith/pkg/pkgsmith/exports"
	"github.com/pkgsmith/pkgsmith/pkg/pkgsmith/journal"
	"github.com/pkgsmith/pkgsmith/pkg/pkgsmith/logging"
	"github.com/pkgsmith/pkgsmith/pkg/pkgsmith/manifest"
	"github.com/pkgsmith/pkgsmith/pkg/pkgsmith/output"
)

var logger = logging.Get("generate")

// Options configures a generation run.
type Options struct {
	// Root is the directory to process.
	Root string

	// Exclude contains directory names or glob patterns skipped during
	// discovery.
	Exclude []string

	// MaxDepth bounds discovery depth (0 = unbounded).
	MaxDepth int

	// Workers is the discovery worker count (0 = automatic).
	Workers int

	// Cache is an optional discovery cache.
	Cache *cache.Cache

	// ManifestPath, when set, restricts the run to the single package
	// owning that package.json instead of every discovered one.
	ManifestPath string

	// BuildConfigPath, when set, overrides the per-package tsconfig
	// location.
	BuildConfigPath string

	// DryRun computes everything but writes nothing.
	DryRun bool

	// ValidateShebang rejects binary sources without a node shebang.
	ValidateShebang bool

	// Journal records the run when set.
	Journal *journal.Journal
}

// Run executes one generation pass and returns the per-package report.
func Run(ctx context.Context, opts Options) (*output.Result, error) {
	startTime := time.Now()

	disc, err := discovery.New(discovery.Options{
		Root:     opts.Root,
		Exclude:  opts.Exclude,
		MaxDepth: opts.MaxDepth,
		Workers:  opts.Workers,
		Cache:    opts.Cache,
	}).Walk(ctx)
	if err != nil {
		return nil, err
	}

	result := &output.Result{
		Root:      disc.Root,
		Operation: "generate",
		DryRun:    opts.DryRun,
		Stats: output.RunStats{
			DirsScanned:  disc.DirsScanned,
			FilesScanned: disc.FilesScanned,
			FromCache:    disc.FromCache,
		},
	}
	for _, walkErr := range disc.Errors {
		result.Warnings = append(result.Warnings, walkErr.Path+": "+walkErr.Error)
	}

	if opts.ManifestPath != "" {
		disc.Manifests = []string{opts.ManifestPath}
	}

	groups := groupByPackage(disc)

	var records []journal.PackageRecord
	for _, group := range groups {
		report := processPackage(group, opts)
		result.Packages = append(result.Packages, report)
		records = append(records, journal.PackageRecord{
			Name:     report.Name,
			Dir:      report.Dir,
			Exports:  report.Exports,
			Binaries: report.Binaries,
			Changed:  report.Changed,
		})
	}

	result.Stats.Duration = time.Since(startTime)

	if opts.Journal != nil {
		if _, err := opts.Journal.Log(journal.OpGenerate, disc.Root, opts.DryRun, records); err != nil {
			logger.Warn("failed to journal run", "error", err)
			result.Warnings = append(result.Warnings, "journal: "+err.Error())
		}
	}

	logger.Info("generation complete",
		"packages", len(result.Packages),
		"updated", result.ChangedCount(),
		"dry_run", opts.DryRun)

	return result, nil
}

// packageGroup holds one package's manifest path and its candidate files.
type packageGroup struct {
	dir          string
	manifestPath string
	public       []string
	binary       []string
}

// groupByPackage assigns every candidate file to its nearest ancestor
// package directory. Candidates outside any package are dropped.
func groupByPackage(disc *discovery.Result) []*packageGroup {
	byDir := make(map[string]*packageGroup, len(disc.Manifests))
	dirs := make([]string, 0, len(disc.Manifests))
	for _, manifestPath := range disc.Manifests {
		dir := filepath.Dir(manifestPath)
		byDir[dir] = &packageGroup{dir: dir, manifestPath: manifestPath}
		dirs = append(dirs, dir)
	}

	// Longest directory first so nested packages claim their own files.
	sort.Slice(dirs, func(i, j int) bool { return len(dirs[i]) > len(dirs[j]) })

	owner := func(path string) *packageGroup {
		for _, dir := range dirs {
			if strings.HasPrefix(path, dir+string(filepath.Separator)) {
				return byDir[dir]
			}
		}
		return nil
	}

	for _, path := range disc.Public {
		if group := owner(path); group != nil {
			group.public = append(group.public, path)
		} else {
			logger.Debug("candidate outside any package", "path", path)
		}
	}
	for _, path := range disc.Binary {
		if group := owner(path); group != nil {
			group.binary = append(group.binary, path)
		} else {
			logger.Debug("candidate outside any package", "path", path)
		}
	}

	groups := make([]*packageGroup, 0, len(dirs))
	for _, manifestPath := range disc.Manifests {
		groups = append(groups, byDir[filepath.Dir(manifestPath)])
	}
	return groups
}

// processPackage computes and applies one package's manifest update.
func processPackage(group *packageGroup, opts Options) output.PackageReport {
	report := output.PackageReport{Dir: group.dir}

	pkg, err := manifest.Load(group.manifestPath)
	if err != nil {
		report.Name = filepath.Base(group.dir)
		report.Error = err.Error()
		return report
	}
	report.Name = pkg.Name()

	cfgPath := opts.BuildConfigPath
	if cfgPath == "" {
		cfgPath = filepath.Join(group.dir, buildcfg.FileName)
	}
	cfg := buildcfg.Load(cfgPath)

	if opts.ValidateShebang && len(group.binary) > 0 {
		if err := exports.ValidateShebangs(group.binary); err != nil {
			report.Error = err.Error()
			return report
		}
	}

	exportsMap, err := exports.GenerateExports(group.public, group.dir, cfg.OutDir, cfg.DeclarationDir)
	if err != nil {
		report.Error = err.Error()
		return report
	}

	binMap, err := exports.GenerateBin(group.binary, group.dir, cfg.OutDir)
	if err != nil {
		report.Error = err.Error()
		return report
	}

	report.Exports = exportsMap.Len()
	report.Binaries = binMap.Len()
	if exportsMap.Len() > 0 {
		report.ExportMap = make(map[string]string, exportsMap.Len())
		for _, key := range exportsMap.Keys() {
			if v, ok := exportsMap.Get(key); ok {
				if target, ok := v.(exports.Target); ok {
					report.ExportMap[key] = target.Default
				}
			}
		}
	}
	if binMap.Len() > 0 {
		report.BinMap = make(map[string]string, binMap.Len())
		for _, key := range binMap.Keys() {
			if v, ok := binMap.Get(key); ok {
				if path, ok := v.(string); ok {
					report.BinMap[key] = path
				}
			}
		}
	}

	updated := manifest.Update(pkg, exportsMap, binMap)

	newData, err := updated.Encode()
	if err != nil {
		report.Error = err.Error()
		return report
	}

	oldData, err := os.ReadFile(group.manifestPath)
	if err != nil {
		report.Error = err.Error()
		return report
	}

	if bytes.Equal(oldData, newData) {
		return report
	}
	report.Changed = true

	if opts.DryRun {
		return report
	}

	if err := updated.Write(group.manifestPath); err != nil {
		report.Error = err.Error()
		report.Changed = false
	}
	return report
}
