package main

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pkgsmith/pkgsmith/pkg/pkgsmith/config"
	"github.com/pkgsmith/pkgsmith/pkg/pkgsmith/generate"
	"github.com/pkgsmith/pkgsmith/pkg/pkgsmith/watch"
)

var generateCmd = &cobra.Command{
	Use:   "generate [path]",
	Short: "Generate exports and bin fields in package.json files",
	Long: `Discover .pub.ts/.pub.tsx and .bin.ts/.bin.tsx files under each
package and rewrite the exports and bin fields of its package.json.

Manifests are only written when their content actually changes, and
writes are atomic. Use --dry-run to preview changes and --watch to keep
regenerating as files change.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGenerate,
}

var (
	generateManifest string
	generateTSConfig string
)

func init() {
	generateCmd.Flags().Bool("watch", false, "keep running and regenerate on file changes")
	generateCmd.Flags().Bool("validate-shebang", true, "require a #!/usr/bin/env shebang in binary files")
	generateCmd.Flags().StringVar(&generateManifest, "manifest", "", "target a single package.json instead of discovering all")
	generateCmd.Flags().StringVar(&generateTSConfig, "tsconfig", "", "override the build config path for every package")
	_ = viper.BindPFlag("watch", generateCmd.Flags().Lookup("watch"))
	_ = viper.BindPFlag("generate.validate_shebang", generateCmd.Flags().Lookup("validate-shebang"))

	rootCmd.AddCommand(generateCmd)
}

// runGenerate executes a generation run, optionally in watch mode.
func runGenerate(_ *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	initLogging(cfg)

	root, err := resolveRoot(args)
	if err != nil {
		return err
	}

	c := openCache(cfg)
	if c != nil {
		defer func() { _ = c.Close() }()
	}

	opts := generate.Options{
		Root:            root,
		Exclude:         viper.GetStringSlice("exclude"),
		MaxDepth:        viper.GetInt("max_depth"),
		Workers:         viper.GetInt("workers"),
		Cache:           c,
		DryRun:          viper.GetBool("dry_run"),
		ValidateShebang: viper.GetBool("generate.validate_shebang"),
		Journal:         openJournal(cfg),
	}
	if generateManifest != "" {
		if opts.ManifestPath, err = filepath.Abs(generateManifest); err != nil {
			return err
		}
	}
	if generateTSConfig != "" {
		if opts.BuildConfigPath, err = filepath.Abs(generateTSConfig); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, err := generate.Run(ctx, opts)
	if err != nil {
		return err
	}
	if err := renderResult(result); err != nil {
		return err
	}

	// Package failures are fatal outside dry-run; dry runs only report.
	if n := result.ErrorCount(); n > 0 && !opts.DryRun {
		return fmt.Errorf("%d of %d packages failed", n, len(result.Packages))
	}

	if !viper.GetBool("watch") {
		return nil
	}

	return watchLoop(ctx, opts)
}

// watchLoop regenerates whenever generation inputs change, until
// interrupted.
func watchLoop(ctx context.Context, opts generate.Options) error {
	w, err := watch.New(watch.Options{
		Root:    opts.Root,
		Exclude: opts.Exclude,
	})
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer func() { _ = w.Close() }()

	printInfo("Watching %s for changes (Ctrl-C to stop)...", opts.Root)

	w.Run(ctx, func(paths []string) {
		printVerbose("%d paths changed, regenerating", len(paths))

		result, err := generate.Run(ctx, opts)
		if err != nil {
			printError("regeneration failed: %v", err)
			return
		}
		if result.ChangedCount() > 0 {
			if err := renderResult(result); err != nil {
				printError("%v", err)
			}
		}
	})

	return nil
}
