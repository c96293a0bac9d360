// Package main is the entry point for the deliver CLI.
//
// This binary packages an assignment part into a submission archive. It
// delegates all functionality to the internal/cli package, which defines
// the cobra commands.
//
// Build-time variables (version, commit, date) are injected via ldflags.
// During development, they default to "dev", "none", and "unknown".
package main

import (
	"github.com/shinji-kodama/deliver/internal/cli"
)

// version, commit, and date are set at build time via ldflags
// (-X main.version=...). They back the --version flag output.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// Inject build-time version info into the CLI package.
	cli.Version = version
	cli.Commit = commit
	cli.Date = date

	// Execute handles error formatting and exit codes.
	cli.Execute(cli.NewRootCommand())
}
