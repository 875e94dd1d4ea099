package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pkgsmith/pkgsmith/pkg/pkgsmith/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `Manage pkgsmith configuration settings.

Configuration is loaded from:
  1. $XDG_CONFIG_HOME/pkgsmith/config.yaml (if set)
  2. ~/.config/pkgsmith/config.yaml

Environment variables can override config file settings using the PKGSMITH_ prefix:
  PKGSMITH_DIST_DIR=build
  PKGSMITH_WORKERS=8
  PKGSMITH_ENV_REMOTE_URL=https://secrets.internal`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the current configuration settings from all sources.`,
	RunE:  runConfigShow,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit configuration file",
	Long: `Open the configuration file in your default editor.

The editor is determined by:
  1. $VISUAL environment variable
  2. $EDITOR environment variable
  3. Falls back to 'vi'

If the config file doesn't exist, a default one will be created first.`,
	RunE: runConfigEdit,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create default configuration file",
	Long:  `Create a default configuration file if one doesn't exist.`,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	Long:  `Display the path to the configuration file.`,
	RunE:  runConfigPath,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configEditCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

// runConfigShow displays the current configuration.
func runConfigShow(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		printError("Failed to load configuration: %v", err)
		// Show defaults anyway
		cfg = &config.Config{
			DistDir: config.DefaultDistDir,
			Exclude: config.DefaultExclusions,
		}
		cfg.Journal.Enabled = true
		cfg.Journal.RetentionDays = config.DefaultRetentionDays
		cfg.Cache.Enabled = true
		cfg.Env.Files = config.DefaultEnvFiles
	}

	// Show config file being used
	if configFile := viper.ConfigFileUsed(); configFile != "" {
		fmt.Printf("Config file: %s\n\n", configFile)
	} else {
		fmt.Println("Config file: (using defaults, no file found)")
		fmt.Println()
	}

	fmt.Println("Current Configuration:")
	fmt.Println("----------------------")
	fmt.Printf("dist_dir:                  %s\n", cfg.DistDir)
	fmt.Printf("exclude:                   %v\n", cfg.Exclude)
	fmt.Printf("workers:                   %d\n", cfg.Workers)
	fmt.Printf("max_depth:                 %d\n", cfg.MaxDepth)
	fmt.Printf("generate.validate_shebang: %t\n", cfg.Generate.ValidateShebang)
	fmt.Printf("journal.enabled:           %t\n", cfg.Journal.Enabled)
	fmt.Printf("journal.path:              %s\n", cfg.Journal.Path)
	fmt.Printf("journal.retention:         %d days\n", cfg.Journal.RetentionDays)
	fmt.Printf("cache.enabled:             %t\n", cfg.Cache.Enabled)
	fmt.Printf("cache.path:                %s\n", cfg.Cache.Path)
	fmt.Printf("env.files:                 %v\n", cfg.Env.Files)
	fmt.Printf("env.remote_url:            %s\n", cfg.Env.RemoteURL)
	fmt.Printf("logging.level:             %s\n", cfg.Logging.Level)

	// Show any environment overrides
	fmt.Println("\nEnvironment Overrides:")
	fmt.Println("----------------------")
	envVars := []string{
		"PKGSMITH_DIST_DIR",
		"PKGSMITH_EXCLUDE",
		"PKGSMITH_WORKERS",
		"PKGSMITH_MAX_DEPTH",
		"PKGSMITH_JOURNAL_ENABLED",
		"PKGSMITH_CACHE_ENABLED",
		"PKGSMITH_ENV_REMOTE_URL",
		"PKGSMITH_LOGGING_LEVEL",
	}

	anyOverrides := false
	for _, name := range envVars {
		if val := os.Getenv(name); val != "" {
			fmt.Printf("%s=%s\n", name, val)
			anyOverrides = true
		}
	}
	if !anyOverrides {
		fmt.Println("(none)")
	}

	return nil
}

// runConfigEdit opens the config file in an editor.
func runConfigEdit(_ *cobra.Command, _ []string) error {
	// Ensure config file exists
	if err := config.WriteDefault(); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	configDir, err := config.ConfigDir()
	if err != nil {
		return fmt.Errorf("failed to get config directory: %w", err)
	}
	configPath := filepath.Join(configDir, "config.yaml")

	// Determine editor
	editor := os.Getenv("VISUAL")
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		editor = "vi"
	}

	printVerbose("Opening %s with %s", configPath, editor)

	editorCmd := exec.Command(editor, configPath)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr

	if err := editorCmd.Run(); err != nil {
		return fmt.Errorf("editor command failed: %w", err)
	}

	return nil
}

// runConfigInit creates a default config file.
func runConfigInit(_ *cobra.Command, _ []string) error {
	configDir, err := config.ConfigDir()
	if err != nil {
		return fmt.Errorf("failed to get config directory: %w", err)
	}
	configPath := filepath.Join(configDir, "config.yaml")

	// Check if config already exists
	if _, err := os.Stat(configPath); err == nil {
		printInfo("Config file already exists: %s", configPath)
		printInfo("Use 'pkgsmith config edit' to modify it.")
		return nil
	}

	if err := config.WriteDefault(); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	printInfo("Created default config file: %s", configPath)
	return nil
}

// runConfigPath shows the config file path.
func runConfigPath(_ *cobra.Command, _ []string) error {
	configDir, err := config.ConfigDir()
	if err != nil {
		return fmt.Errorf("failed to get config directory: %w", err)
	}
	configPath := filepath.Join(configDir, "config.yaml")

	fmt.Println(configPath)

	if _, err := os.Stat(configPath); err == nil {
		printVerbose("File exists")
	} else if os.IsNotExist(err) {
		printVerbose("File does not exist (will use defaults)")
	}

	return nil
}
