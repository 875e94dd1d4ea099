package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pkgsmith/pkgsmith/pkg/pkgsmith/config"
	"github.com/pkgsmith/pkgsmith/pkg/pkgsmith/envrun"
)

// envTokenVar is the environment variable holding the secrets API token.
const envTokenVar = "PKGSMITH_ENV_TOKEN"

var envCmd = &cobra.Command{
	Use:   "env [flags] -- <command> [args...]",
	Short: "Run a command with environment variables from .env files",
	Long: `Load environment variables and run a command with them.

Variables come from the configured env files (later files override
earlier ones) and optionally from a remote secrets service. By default
the existing process environment wins over loaded variables; pass
--override to flip that.

The child's exit code becomes pkgsmith's exit code. SIGINT and SIGTERM
are forwarded to the child.

Examples:
  pkgsmith env -- npm test
  pkgsmith env -f .env.ci --override -- node build.js
  pkgsmith env --print`,
	Args: cobra.ArbitraryArgs,
	RunE: runEnv,
}

var (
	envFiles    []string
	envOverride bool
	envPrint    bool
	envRemote   bool
)

func init() {
	envCmd.Flags().StringSliceVarP(&envFiles, "file", "f", nil, "env file to load (can be specified multiple times)")
	envCmd.Flags().BoolVar(&envOverride, "override", false, "loaded variables override the process environment")
	envCmd.Flags().BoolVar(&envPrint, "print", false, "print the loaded variables instead of running a command")
	envCmd.Flags().BoolVar(&envRemote, "remote", false, "also fetch variables from the configured secrets service")

	rootCmd.AddCommand(envCmd)
}

// runEnv loads variables and executes the child command.
func runEnv(_ *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	initLogging(cfg)

	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	files := cfg.Env.Files
	if len(envFiles) > 0 {
		files = envFiles
	}

	vars, err := envrun.LoadFiles(cwd, files)
	if err != nil {
		return err
	}

	if envRemote {
		if cfg.Env.RemoteURL == "" {
			return fmt.Errorf("no secrets service configured; set env.remote_url or PKGSMITH_ENV_REMOTE_URL")
		}

		client := envrun.NewRemoteClient(envrun.RemoteOptions{
			URL:     cfg.Env.RemoteURL,
			Token:   os.Getenv(envTokenVar),
			Timeout: time.Duration(cfg.Env.TimeoutSeconds) * time.Second,
		})

		remote, err := client.Fetch(context.Background())
		if err != nil {
			return err
		}
		// File variables win over remote ones.
		for k, v := range remote {
			if _, ok := vars[k]; !ok {
				vars[k] = v
			}
		}
	}

	if envPrint {
		for _, kv := range envrun.Merge(nil, vars, false) {
			fmt.Println(kv)
		}
		return nil
	}

	if len(args) == 0 {
		return fmt.Errorf("no command given; usage: pkgsmith env -- <command> [args...]")
	}

	env := envrun.Merge(os.Environ(), vars, envOverride)

	code, err := envrun.Run(context.Background(), args, envrun.RunOptions{
		Dir: cwd,
		Env: env,
	})
	if err != nil {
		return err
	}

	exitCode = code
	return nil
}
