// Package config loads pkgsmith configuration from file and environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

// LoggingConfig configures application logging.
type LoggingConfig struct {
	Level      string            `mapstructure:"level"`
	Path       string            `mapstructure:"path"`
	Components map[string]string `mapstructure:"components"`
}

// EnvConfig configures the env runner.
type EnvConfig struct {
	// Files are env files loaded in order; later files override earlier.
	Files []string `mapstructure:"files"`

	// RemoteURL is the base URL of the secrets API (empty disables it).
	RemoteURL string `mapstructure:"remote_url"`

	// TimeoutSeconds bounds each secrets API request.
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// Config represents the application configuration.
type Config struct {
	DistDir  string   `mapstructure:"dist_dir"`
	Exclude  []string `mapstructure:"exclude"`
	Workers  int      `mapstructure:"workers"`
	MaxDepth int      `mapstructure:"max_depth"`
	Generate struct {
		ValidateShebang bool `mapstructure:"validate_shebang"`
	} `mapstructure:"generate"`
	Journal struct {
		Enabled       bool   `mapstructure:"enabled"`
		Path          string `mapstructure:"path"`
		RetentionDays int    `mapstructure:"retention_days"`
	} `mapstructure:"journal"`
	Cache struct {
		Enabled bool   `mapstructure:"enabled"`
		Path    string `mapstructure:"path"`
	} `mapstructure:"cache"`
	Env     EnvConfig     `mapstructure:"env"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// Load loads configuration from file and environment variables.
// Config file locations (in order of precedence):
//   - $XDG_CONFIG_HOME/pkgsmith/config.yaml
//   - $HOME/.config/pkgsmith/config.yaml
//
// Environment variables are prefixed with PKGSMITH_ (e.g. PKGSMITH_DIST_DIR).
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		v.AddConfigPath(filepath.Join(xdgConfigHome, "pkgsmith"))
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user home directory: %w", err)
	}
	v.AddConfigPath(filepath.Join(homeDir, ".config", "pkgsmith"))

	v.SetEnvPrefix("PKGSMITH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is acceptable; we use defaults.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if strings.HasPrefix(cfg.Journal.Path, "~") {
		cfg.Journal.Path = filepath.Join(homeDir, cfg.Journal.Path[1:])
	}
	if strings.HasPrefix(cfg.Cache.Path, "~") {
		cfg.Cache.Path = filepath.Join(homeDir, cfg.Cache.Path[1:])
	}

	return &cfg, nil
}

// setDefaults registers every knob's default value.
func setDefaults(v *viper.Viper) {
	v.SetDefault("dist_dir", DefaultDistDir)
	v.SetDefault("exclude", DefaultExclusions)
	v.SetDefault("workers", DefaultWorkers)
	v.SetDefault("max_depth", DefaultMaxDepth)

	v.SetDefault("generate.validate_shebang", true)

	v.SetDefault("journal.enabled", true)
	v.SetDefault("journal.path", JournalDir())
	v.SetDefault("journal.retention_days", DefaultRetentionDays)

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.path", CacheDir())

	v.SetDefault("env.files", DefaultEnvFiles)
	v.SetDefault("env.remote_url", "")
	v.SetDefault("env.timeout_seconds", DefaultRemoteTimeoutSeconds)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.path", "")
	v.SetDefault("logging.components", map[string]string{
		"discovery": "info",
		"exports":   "info",
		"workspace": "info",
		"envrun":    "info",
	})
}

// ConfigDir returns the configuration directory path.
func ConfigDir() (string, error) {
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, "pkgsmith"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, ".config", "pkgsmith"), nil
}

// CacheDir returns the discovery cache directory under the XDG cache home.
func CacheDir() string {
	return filepath.Join(xdg.CacheHome, "pkgsmith", "discovery")
}

// JournalDir returns the run journal directory under the XDG state home.
func JournalDir() string {
	return filepath.Join(xdg.StateHome, "pkgsmith", "journal")
}

// EnsureConfigDir creates the config directory if it doesn't exist.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	if path == "~" {
		return homeDir, nil
	}
	return filepath.Join(homeDir, strings.TrimPrefix(path, "~/")), nil
}

// WriteDefault writes a default config file if none exists.
// Returns nil if a config file already exists.
func WriteDefault() error {
	if err := EnsureConfigDir(); err != nil {
		return err
	}

	configDir, err := ConfigDir()
	if err != nil {
		return err
	}

	configPath := filepath.Join(configDir, "config.yaml")

	if _, err := os.Stat(configPath); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to check config file: %w", err)
	}

	defaultConfig := fmt.Sprintf(`# pkgsmith configuration

# Fallback build output directory when tsconfig.json does not set one
dist_dir: %s

# Directory names excluded from discovery
exclude:
  - node_modules
  - .git
  - dist
  - build
  - coverage

# fastwalk worker count (0 = automatic)
workers: %d

# Maximum discovery depth (0 = unbounded)
max_depth: %d

generate:
  # Require binary files to start with a #!/usr/bin/env shebang
  validate_shebang: true

journal:
  enabled: true
  path: %s
  retention_days: %d

cache:
  enabled: true
  path: %s

env:
  # Env files loaded in order; later files override earlier ones
  files:
    - .env
    - .env.local
  # Base URL of the remote secrets API (empty disables remote mode)
  remote_url: ""
  timeout_seconds: %d

logging:
  # Log level: debug, info, warn, error
  level: info
  # Log file path (empty means $XDG_STATE_HOME/pkgsmith/pkgsmith.log)
  path: ""
`,
		DefaultDistDir,
		DefaultWorkers,
		DefaultMaxDepth,
		JournalDir(),
		DefaultRetentionDays,
		CacheDir(),
		DefaultRemoteTimeoutSeconds,
	)

	if err := os.WriteFile(configPath, []byte(defaultConfig), 0o644); err != nil {
		return fmt.Errorf("failed to write default config: %w", err)
	}

	return nil
}
