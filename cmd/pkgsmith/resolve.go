package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pkgsmith/pkgsmith/pkg/pkgsmith/config"
	"github.com/pkgsmith/pkgsmith/pkg/pkgsmith/discovery"
	"github.com/pkgsmith/pkgsmith/pkg/pkgsmith/journal"
	"github.com/pkgsmith/pkgsmith/pkg/pkgsmith/output"
	"github.com/pkgsmith/pkgsmith/pkg/pkgsmith/workspace"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve [path]",
	Short: "Pin workspace: dependency ranges to concrete versions",
	Long: `Rewrite workspace: protocol dependency ranges across the monorepo.

For each dependency on another workspace package:
  workspace:*        becomes the exact current version
  workspace:^        becomes ^<current version>
  workspace:~        becomes ~<current version>
  workspace:<range>  keeps <range> after validating it

All unresolvable ranges in a run are reported together.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runResolve,
}

func init() {
	rootCmd.AddCommand(resolveCmd)
}

// loadWorkspace discovers manifests under root and loads them as a
// workspace.
func loadWorkspace(ctx context.Context, cfg *config.Config, root string) (*workspace.Workspace, *discovery.Result, error) {
	c := openCache(cfg)
	if c != nil {
		defer func() { _ = c.Close() }()
	}

	disc, err := discovery.New(discovery.Options{
		Root:     root,
		Exclude:  viper.GetStringSlice("exclude"),
		MaxDepth: viper.GetInt("max_depth"),
		Workers:  viper.GetInt("workers"),
		Cache:    c,
	}).Walk(ctx)
	if err != nil {
		return nil, nil, err
	}

	w, err := workspace.Load(disc.Root, disc.Manifests)
	if err != nil {
		return nil, nil, err
	}
	return w, disc, nil
}

// runResolve rewrites workspace ranges and reports the changes.
func runResolve(_ *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	initLogging(cfg)

	root, err := resolveRoot(args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	startTime := time.Now()
	w, disc, err := loadWorkspace(ctx, cfg, root)
	if err != nil {
		return err
	}

	changes, resolveErr := w.ResolveRanges()

	dryRun := viper.GetBool("dry_run")
	if !dryRun && len(changes) > 0 {
		if err := w.WriteChanged(changes); err != nil {
			return err
		}
	}

	result := &output.Result{
		Root:      disc.Root,
		Operation: "resolve",
		Changes:   changes,
		DryRun:    dryRun,
		Stats: output.RunStats{
			DirsScanned:  disc.DirsScanned,
			FilesScanned: disc.FilesScanned,
			Duration:     time.Since(startTime),
			FromCache:    disc.FromCache,
		},
	}

	changed := make(map[string]bool, len(changes))
	for _, change := range changes {
		changed[change.Package] = true
	}
	var records []journal.PackageRecord
	for _, pkg := range w.Packages() {
		result.Packages = append(result.Packages, output.PackageReport{
			Name:    pkg.Name,
			Dir:     pkg.Dir,
			Changed: changed[pkg.Name],
		})
		records = append(records, journal.PackageRecord{
			Name:    pkg.Name,
			Dir:     pkg.Dir,
			Changed: changed[pkg.Name],
		})
	}

	if j := openJournal(cfg); j != nil {
		if _, err := j.Log(journal.OpResolve, disc.Root, dryRun, records); err != nil {
			printVerbose("failed to journal run: %v", err)
		}
	}

	if err := renderResult(result); err != nil {
		return err
	}
	return resolveErr
}
