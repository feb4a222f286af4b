// Package main provides the leapyear CLI.
package main

import (
	"os"

	"github.com/leapstack-labs/leapyear/internal/cli"
)

// Set at build time with -ldflags "-X main.version=...".
var (
	version   = ""
	commit    = ""
	buildDate = ""
)

func main() {
	if version != "" {
		cli.Version = version
	}
	if commit != "" {
		cli.GitCommit = commit
	}
	if buildDate != "" {
		cli.BuildDate = buildDate
	}
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
