package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pkgsmith/pkgsmith/pkg/pkgsmith/config"
)

var packagesCmd = &cobra.Command{
	Use:   "packages [path]",
	Short: "List workspace packages",
	Long:  `List every package discovered under the workspace root with its version and directory.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runPackages,
}

func init() {
	rootCmd.AddCommand(packagesCmd)
}

// runPackages prints the workspace package table.
func runPackages(_ *cobra.Command, args []string) error {
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

	w, _, err := loadWorkspace(ctx, cfg, root)
	if err != nil {
		return err
	}

	if w.Len() == 0 {
		printInfo("No packages found under %s", root)
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tVERSION\tPRIVATE\tDIR")
	for _, pkg := range w.Packages() {
		version := pkg.Version
		if version == "" {
			version = "-"
		}
		private := ""
		if pkg.Private {
			private = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", pkg.Name, version, private, pkg.Dir)
	}
	return tw.Flush()
}
