package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pkgsmith/pkgsmith/pkg/pkgsmith/config"
)

// exitCode is the process exit code used when command execution itself
// succeeded. The env command propagates the child's exit code through it.
var exitCode int

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "pkgsmith [path]",
		Short: "Generate package.json exports and bin from file naming conventions",
		Long: `Pkgsmith maintains package.json manifests across a monorepo.

Files ending in .pub.ts/.pub.tsx form the public export surface of a
package; files ending in .bin.ts/.bin.tsx become executable commands.
Pkgsmith discovers those files, computes the exports and bin fields, and
rewrites each package.json whose content changed.

Examples:
  pkgsmith generate            # Rewrite manifests under the current directory
  pkgsmith generate --watch    # Keep regenerating as files change
  pkgsmith resolve             # Pin workspace: dependency ranges
  pkgsmith bump @acme/lib minor
  pkgsmith env -- npm test     # Run a command with .env loaded
  pkgsmith packages            # List workspace packages
  pkgsmith history             # View run history`,
		Args: cobra.MaximumNArgs(1),
		RunE: runGenerate,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/pkgsmith/config.yaml)")
	rootCmd.PersistentFlags().StringP("output", "o", "pretty", "output format (pretty, plain, json, yaml)")
	rootCmd.PersistentFlags().StringSliceP("exclude", "e", nil, "exclude patterns (can be specified multiple times)")
	rootCmd.PersistentFlags().IntP("workers", "w", 0, "override discovery worker count (0=auto)")
	rootCmd.PersistentFlags().Int("max-depth", 0, "maximum discovery depth (0=unbounded)")
	rootCmd.PersistentFlags().BoolP("dry-run", "d", false, "compute changes without writing files")
	rootCmd.PersistentFlags().Bool("no-cache", false, "bypass discovery cache, perform full walk")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "minimal output")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug output")

	// Bind flags to viper
	_ = viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))
	_ = viper.BindPFlag("exclude", rootCmd.PersistentFlags().Lookup("exclude"))
	_ = viper.BindPFlag("workers", rootCmd.PersistentFlags().Lookup("workers"))
	_ = viper.BindPFlag("max_depth", rootCmd.PersistentFlags().Lookup("max-depth"))
	_ = viper.BindPFlag("dry_run", rootCmd.PersistentFlags().Lookup("dry-run"))
	_ = viper.BindPFlag("no_cache", rootCmd.PersistentFlags().Lookup("no-cache"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// initConfig reads in config file and environment variables.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Set config name and type
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")

		// Add config paths in order of precedence
		if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
			viper.AddConfigPath(filepath.Join(xdgConfigHome, "pkgsmith"))
		}

		homeDir, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(homeDir, ".config", "pkgsmith"))
		}
	}

	// Set environment variable prefix and enable auto env binding
	viper.SetEnvPrefix("PKGSMITH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	// Set defaults from config package
	viper.SetDefault("dist_dir", config.DefaultDistDir)
	viper.SetDefault("exclude", config.DefaultExclusions)
	viper.SetDefault("workers", config.DefaultWorkers)
	viper.SetDefault("max_depth", config.DefaultMaxDepth)
	viper.SetDefault("generate.validate_shebang", true)
	viper.SetDefault("journal.enabled", true)
	viper.SetDefault("journal.retention_days", config.DefaultRetentionDays)
	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("env.files", config.DefaultEnvFiles)

	// Read config file (ignore if not found)
	_ = viper.ReadInConfig()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// getVerbose returns true if verbose mode is enabled.
func getVerbose() bool {
	return viper.GetBool("verbose")
}

// getQuiet returns true if quiet mode is enabled.
func getQuiet() bool {
	return viper.GetBool("quiet")
}

// printVerbose prints a message if verbose mode is enabled.
func printVerbose(format string, args ...interface{}) {
	if getVerbose() && !getQuiet() {
		fmt.Fprintf(os.Stderr, "[DEBUG] "+format+"\n", args...)
	}
}

// printInfo prints a message if quiet mode is not enabled.
func printInfo(format string, args ...interface{}) {
	if !getQuiet() {
		fmt.Printf(format+"\n", args...)
	}
}

// printError prints an error message to stderr.
func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
