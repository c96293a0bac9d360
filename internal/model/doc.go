// Package model defines the domain types and value objects for the
// deliver CLI.
//
// This package contains pure data structures with no external dependencies.
// A run is described by a SubmissionRequest and one or two Identity values;
// the Artifact is the only entity that outlives the run.
//
// The package also defines exit codes (ExitCode) and a custom error type
// (CLIError) that carries exit codes for proper OS process exit handling.
package model
