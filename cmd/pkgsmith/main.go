// Package main provides the entry point for the pkgsmith manifest tool.
package main

import (
	"os"
)

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
	os.Exit(exitCode)
}
