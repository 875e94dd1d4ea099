package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/pkgsmith/pkgsmith/pkg/pkgsmith/cache"
	"github.com/pkgsmith/pkgsmith/pkg/pkgsmith/config"
	"github.com/pkgsmith/pkgsmith/pkg/pkgsmith/journal"
	"github.com/pkgsmith/pkgsmith/pkg/pkgsmith/logging"
	"github.com/pkgsmith/pkgsmith/pkg/pkgsmith/output"
)

// resolveRoot turns the optional positional path argument into an
// absolute, verified directory path.
func resolveRoot(args []string) (string, error) {
	root := "."
	if len(args) > 0 {
		root = args[0]
	}

	expanded, err := config.ExpandPath(root)
	if err != nil {
		return "", fmt.Errorf("failed to expand path: %w", err)
	}

	absPath, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("path does not exist: %s", absPath)
		}
		return "", fmt.Errorf("cannot access path: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("path is not a directory: %s", absPath)
	}

	return absPath, nil
}

// initLogging configures the component loggers from the loaded config and
// the verbose flag.
func initLogging(cfg *config.Config) {
	level := cfg.Logging.Level
	if getVerbose() {
		level = "debug"
	}

	logCfg := logging.Config{
		Level:      level,
		Path:       cfg.Logging.Path,
		Components: cfg.Logging.Components,
	}
	if getVerbose() {
		logCfg.ConsoleLevel = "debug"
	}
	if err := logging.Init(logCfg); err != nil {
		printVerbose("logging init failed: %v", err)
	}
}

// openCache opens the discovery cache unless disabled by config or the
// --no-cache flag. A nil return disables caching.
func openCache(cfg *config.Config) *cache.Cache {
	if viper.GetBool("no_cache") || !cfg.Cache.Enabled {
		return nil
	}

	path := cfg.Cache.Path
	if path == "" {
		path = config.CacheDir()
	}

	c, err := cache.Open(path)
	if err != nil {
		printVerbose("cache unavailable, walking without it: %v", err)
		return nil
	}
	return c
}

// openJournal opens the run journal unless disabled by config.
func openJournal(cfg *config.Config) *journal.Journal {
	if !cfg.Journal.Enabled {
		return nil
	}

	path := cfg.Journal.Path
	if path == "" {
		path = config.JournalDir()
	}

	j, err := journal.New(path)
	if err != nil {
		printVerbose("journal unavailable: %v", err)
		return nil
	}
	if err := j.EnsureDir(); err != nil {
		printVerbose("journal unavailable: %v", err)
		return nil
	}
	return j
}

// renderResult formats a run result with the selected formatter and
// prints it to stdout.
func renderResult(result *output.Result) error {
	format := viper.GetString("output")

	formatter, err := output.Get(format)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := formatter.Format(&buf, result); err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}

	if !getQuiet() || format == "json" || format == "yaml" {
		fmt.Print(buf.String())
	}
	return nil
}
