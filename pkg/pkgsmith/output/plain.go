package output

import (
	"bytes"
	"strconv"
	"text/tabwriter"
)

// PlainFormatter formats output as a simple tab-separated table.
// It produces plain text output suitable for scripting and piping.
// No colors or styling are applied.
type PlainFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PlainFormatter) Format(w *bytes.Buffer, r *Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)

	if _, err := tw.Write([]byte("PACKAGE\tEXPORTS\tBINS\tSTATUS\n")); err != nil {
		return err
	}

	for _, pkg := range r.Packages {
		status := "unchanged"
		if pkg.Changed {
			status = "updated"
		}
		if pkg.Error != "" {
			status = "error: " + pkg.Error
		}

		row := pkg.Name + "\t" +
			strconv.Itoa(pkg.Exports) + "\t" +
			strconv.Itoa(pkg.Binaries) + "\t" +
			status + "\n"
		if _, err := tw.Write([]byte(row)); err != nil {
			return err
		}
	}

	if err := tw.Flush(); err != nil {
		return err
	}

	if r.DryRun {
		for _, pkg := range r.Packages {
			for _, key := range sortedMapKeys(pkg.ExportMap) {
				w.WriteString(pkg.Name + " export " + key + " -> " + pkg.ExportMap[key] + "\n")
			}
			for _, key := range sortedMapKeys(pkg.BinMap) {
				w.WriteString(pkg.Name + " bin " + key + " -> " + pkg.BinMap[key] + "\n")
			}
		}
	}

	for _, c := range r.Changes {
		w.WriteString(c.Package + " " + c.Block + "." + c.Dependency + " " + c.From + " -> " + c.To + "\n")
	}
	for _, b := range r.Bumps {
		w.WriteString(b.Package + " " + b.From + " -> " + b.To + "\n")
	}

	return nil
}

func init() {
	Register("plain", func() Formatter {
		return &PlainFormatter{}
	})
}

// Ensure PlainFormatter implements Formatter.
var _ Formatter = (*PlainFormatter)(nil)
