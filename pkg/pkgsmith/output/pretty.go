package output

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// PrettyFormatter formats output with colors and styling using lipgloss.
// It produces a visually appealing output suitable for terminal display.
type PrettyFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PrettyFormatter) Format(w *bytes.Buffer, r *Result) error {
	w.WriteString(f.formatHeader(r))
	w.WriteString("\n")
	w.WriteString(f.formatPackages(r))

	if len(r.Changes) > 0 {
		w.WriteString(f.formatChanges(r))
	}
	if len(r.Bumps) > 0 {
		w.WriteString(f.formatBumps(r))
	}

	w.WriteString(f.formatFooter(r))

	if len(r.Warnings) > 0 {
		w.WriteString("\n")
		w.WriteString(f.formatWarnings(r.Warnings))
	}

	return nil
}

// formatHeader builds the header box with run metadata.
func (f *PrettyFormatter) formatHeader(r *Result) string {
	var lines []string

	lines = append(lines, fmt.Sprintf("%s %s",
		LabelStyle.Render("Root:"), ValueStyle.Render(r.Root)))

	var infoParts []string
	infoParts = append(infoParts, fmt.Sprintf("%s %s",
		LabelStyle.Render("Operation:"), ValueStyle.Render(r.Operation)))

	scanned := fmt.Sprintf("%d files in %s", r.Stats.FilesScanned, formatDuration(r.Stats.Duration))
	if r.Stats.FromCache {
		scanned = "cached"
	}
	infoParts = append(infoParts, fmt.Sprintf("%s %s",
		LabelStyle.Render("Scanned:"), ValueStyle.Render(scanned)))

	if r.DryRun {
		infoParts = append(infoParts, WarningStyle.Render("dry run"))
	}

	lines = append(lines, strings.Join(infoParts, "  "))

	return HeaderBox.Render(strings.Join(lines, "\n"))
}

// formatPackages builds the per-package table.
func (f *PrettyFormatter) formatPackages(r *Result) string {
	if len(r.Packages) == 0 {
		return MutedStyle.Render("  No packages found\n")
	}

	var sb strings.Builder
	sb.WriteString(LabelStyle.Render("  PACKAGE") + "\n")

	for _, pkg := range r.Packages {
		status := MutedStyle.Render("unchanged")
		if pkg.Changed {
			status = SuccessStyle.Render("updated")
		}
		if pkg.Error != "" {
			status = ErrorStyle.Render(pkg.Error)
		}

		sb.WriteString(fmt.Sprintf("  %s  %s  %s\n",
			ValueStyle.Render(pkg.Name),
			MutedStyle.Render(fmt.Sprintf("%d exports, %d bins", pkg.Exports, pkg.Binaries)),
			status))

		// Dry runs show the computed mappings so the diff is reviewable.
		if r.DryRun && pkg.Error == "" {
			for _, key := range sortedMapKeys(pkg.ExportMap) {
				sb.WriteString(fmt.Sprintf("    %s %s %s\n",
					MutedStyle.Render("export"),
					ValueStyle.Render(key),
					MutedStyle.Render("-> "+pkg.ExportMap[key])))
			}
			for _, key := range sortedMapKeys(pkg.BinMap) {
				sb.WriteString(fmt.Sprintf("    %s %s %s\n",
					MutedStyle.Render("bin"),
					ValueStyle.Render(key),
					MutedStyle.Render("-> "+pkg.BinMap[key])))
			}
		}
	}

	return sb.String()
}

// formatChanges lists dependency range rewrites.
func (f *PrettyFormatter) formatChanges(r *Result) string {
	var sb strings.Builder
	sb.WriteString("\n" + LabelStyle.Render("  RESOLVED RANGES") + "\n")
	for _, c := range r.Changes {
		sb.WriteString(fmt.Sprintf("  %s %s %s %s\n",
			ValueStyle.Render(c.Package),
			MutedStyle.Render(c.Block+"."+c.Dependency),
			MutedStyle.Render(c.From+" ->"),
			SuccessStyle.Render(c.To)))
	}
	return sb.String()
}

// formatBumps lists version changes.
func (f *PrettyFormatter) formatBumps(r *Result) string {
	var sb strings.Builder
	sb.WriteString("\n" + LabelStyle.Render("  VERSIONS") + "\n")
	for _, b := range r.Bumps {
		sb.WriteString(fmt.Sprintf("  %s %s %s\n",
			ValueStyle.Render(b.Package),
			MutedStyle.Render(b.From+" ->"),
			SuccessStyle.Render(b.To)))
	}
	return sb.String()
}

// formatFooter builds the summary footer box.
func (f *PrettyFormatter) formatFooter(r *Result) string {
	summary := fmt.Sprintf("%s packages, %s updated",
		humanize.Comma(int64(len(r.Packages))),
		humanize.Comma(int64(r.ChangedCount())))
	return FooterBox.Render(
		LabelStyle.Render("Total: ") + ValueStyle.Render(summary))
}

// formatWarnings renders warning lines.
func (f *PrettyFormatter) formatWarnings(warnings []string) string {
	var sb strings.Builder
	for _, warning := range warnings {
		sb.WriteString(WarningStyle.Render("warning: "+warning) + "\n")
	}
	return sb.String()
}

// formatDuration renders a duration rounded for display.
func formatDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return d.String()
	case d < time.Second:
		return d.Round(time.Millisecond).String()
	default:
		return d.Round(10 * time.Millisecond).String()
	}
}

func init() {
	Register("pretty", func() Formatter {
		return &PrettyFormatter{}
	})
}

// Ensure PrettyFormatter implements Formatter.
var _ Formatter = (*PrettyFormatter)(nil)
