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
	"github.com/pkgsmith/pkgsmith/pkg/pkgsmith/journal"
	"github.com/pkgsmith/pkgsmith/pkg/pkgsmith/output"
	"github.com/pkgsmith/pkgsmith/pkg/pkgsmith/release"
)

var bumpCmd = &cobra.Command{
	Use:   "bump <package> <major|minor|patch|version>",
	Short: "Bump a workspace package version",
	Long: `Bump the version of a workspace package.

The second argument is either a bump level (major, minor, patch) or an
explicit semver version. Dependents referencing the package through
workspace: ranges pick up the new version on the next resolve run.

Examples:
  pkgsmith bump @acme/lib minor
  pkgsmith bump @acme/lib 2.0.0-rc.1 --dry-run`,
	Args: cobra.ExactArgs(2),
	RunE: runBump,
}

func init() {
	bumpCmd.Flags().String("path", ".", "workspace root to operate on")
	rootCmd.AddCommand(bumpCmd)
}

// runBump applies a version bump to one package.
func runBump(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	initLogging(cfg)

	pathFlag, _ := cmd.Flags().GetString("path")
	root, err := resolveRoot([]string{pathFlag})
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

	dryRun := viper.GetBool("dry_run")
	bump, err := release.Apply(w, args[0], args[1], dryRun)
	if err != nil {
		return err
	}

	result := &output.Result{
		Root:      disc.Root,
		Operation: "bump",
		Bumps:     []release.Bump{*bump},
		DryRun:    dryRun,
		Packages: []output.PackageReport{
			{Name: bump.Package, Changed: !dryRun},
		},
		Stats: output.RunStats{
			DirsScanned:  disc.DirsScanned,
			FilesScanned: disc.FilesScanned,
			Duration:     time.Since(startTime),
			FromCache:    disc.FromCache,
		},
	}

	if j := openJournal(cfg); j != nil {
		record := journal.PackageRecord{
			Name:    bump.Package,
			Changed: !dryRun,
			Detail:  bump.From + " -> " + bump.To,
		}
		if _, err := j.Log(journal.OpBump, disc.Root, dryRun, []journal.PackageRecord{record}); err != nil {
			printVerbose("failed to journal run: %v", err)
		}
	}

	return renderResult(result)
}
