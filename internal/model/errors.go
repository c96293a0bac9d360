package model

import (
	"errors"
	"fmt"
)

// ExitCode defines the process exit codes of the deliver CLI.
// User cancellation is a normal outcome and exits with ExitSuccess.
type ExitCode int

const (
	// ExitSuccess indicates the run completed, or the user cancelled at the
	// confirmation prompt.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitUsage indicates a bad or missing CLI argument. Nothing on disk
	// has been touched.
	ExitUsage ExitCode = 2

	// ExitValidation indicates invalid interactive input (missing primary
	// identity) or an invalid project configuration.
	ExitValidation ExitCode = 3

	// ExitMissingSource indicates the source tree does not exist.
	ExitMissingSource ExitCode = 4

	// ExitStaging indicates a copy failed while assembling the staging
	// directory. The partial staging directory is left for inspection.
	ExitStaging ExitCode = 5

	// ExitArchive indicates compression failed. The staging directory is
	// preserved.
	ExitArchive ExitCode = 6

	// ExitInternal indicates an internal-consistency failure, such as an
	// archive that cannot be stat'ed right after a successful build.
	ExitInternal ExitCode = 7

	// ExitLocked indicates another run currently owns the staging area.
	ExitLocked ExitCode = 8
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}

// ExitCodeOf returns the exit code carried by err. A nil error maps to
// ExitSuccess and an error without a CLIError in its chain maps to
// ExitGeneralError.
func ExitCodeOf(err error) ExitCode {
	if err == nil {
		return ExitSuccess
	}
	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return cliErr.Code
	}
	return ExitGeneralError
}
