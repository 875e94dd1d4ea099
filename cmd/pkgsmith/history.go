package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pkgsmith/pkgsmith/pkg/pkgsmith/config"
	"github.com/pkgsmith/pkgsmith/pkg/pkgsmith/journal"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View run history",
	Long: `View the history of generate, resolve, and bump runs.

The journal stores a record of every run, including which packages were
touched and whether their manifests changed.`,
	RunE: runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show details of a specific run",
	Long:  `Display detailed information about a specific run by its ID.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Clean up old history entries",
	Long:  `Remove history entries older than the retention period.`,
	RunE:  runHistoryClean,
}

var historyLimit int

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20, "maximum number of entries to show")

	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyCleanCmd)
	rootCmd.AddCommand(historyCmd)
}

// getJournal returns a journal instance with the configured directory.
func getJournal() (*journal.Journal, error) {
	cfg, err := config.Load()
	if err != nil {
		return journal.New(config.JournalDir())
	}

	path := cfg.Journal.Path
	if path == "" {
		path = config.JournalDir()
	}
	return journal.New(path)
}

// runHistory lists recent runs.
func runHistory(_ *cobra.Command, _ []string) error {
	j, err := getJournal()
	if err != nil {
		return fmt.Errorf("failed to initialize journal: %w", err)
	}

	entries, err := j.List(historyLimit)
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}

	if len(entries) == 0 {
		printInfo("No history entries found.")
		printInfo("Run 'pkgsmith generate' to process a package tree.")
		return nil
	}

	fmt.Printf("\n%-44s  %-10s  %-10s  %-8s\n", "ID", "TYPE", "PACKAGES", "UPDATED")
	fmt.Println(strings.Repeat("-", 80))

	for _, entry := range entries {
		fmt.Printf("%-44s  %-10s  %-10d  %-8d\n",
			truncateString(entry.ID, 44),
			entry.Operation,
			entry.Summary.TotalPackages,
			entry.Summary.Updated,
		)
	}

	fmt.Println(strings.Repeat("-", 80))
	fmt.Printf("\nShowing %d entries. Use --limit to see more.\n", len(entries))
	fmt.Println("Use 'pkgsmith history show <id>' for details on a specific entry.")

	return nil
}

// runHistoryShow displays details of a specific run.
func runHistoryShow(_ *cobra.Command, args []string) error {
	j, err := getJournal()
	if err != nil {
		return fmt.Errorf("failed to initialize journal: %w", err)
	}

	entry, err := j.Get(args[0])
	if err != nil {
		return fmt.Errorf("failed to get entry: %w", err)
	}

	fmt.Println("\nRun Details")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("ID:        %s\n", entry.ID)
	fmt.Printf("Timestamp: %s\n", entry.Timestamp.Format("2006-01-02 15:04:05 MST"))
	fmt.Printf("Operation: %s\n", entry.Operation)
	fmt.Printf("Root:      %s\n", entry.Root)
	fmt.Printf("Dry run:   %t\n", entry.DryRun)
	fmt.Printf("Packages:  %d (%d updated)\n", entry.Summary.TotalPackages, entry.Summary.Updated)

	if len(entry.Packages) > 0 {
		fmt.Println("\nPackages:")
		fmt.Println(strings.Repeat("-", 60))
		for _, pkg := range entry.Packages {
			status := "unchanged"
			if pkg.Changed {
				status = "updated"
			}
			if pkg.Detail != "" {
				status += " " + pkg.Detail
			}
			fmt.Printf("%-40s  %s\n", truncateString(pkg.Name, 40), status)
		}
	}

	return nil
}

// runHistoryClean removes old history entries.
func runHistoryClean(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	j, err := getJournal()
	if err != nil {
		return fmt.Errorf("failed to initialize journal: %w", err)
	}

	retentionDays := cfg.Journal.RetentionDays
	if retentionDays <= 0 {
		retentionDays = config.DefaultRetentionDays
	}

	printInfo("Cleaning history entries older than %d days...", retentionDays)

	if err := j.Cleanup(retentionDays); err != nil {
		return fmt.Errorf("failed to clean history: %w", err)
	}

	printInfo("History cleanup complete.")
	return nil
}

// truncateString truncates a string to maxLen, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
