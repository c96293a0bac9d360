// Package cli implements the cobra-based CLI commands for deliver.
//
// The root command itself packages a submission ("deliver 2a"). The
// inspection subcommands (policy, list) are defined in their own files.
// This file defines the root command, the global flags and the exit-code
// handling shared by every command.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/deliver/internal/model"
)

// Global flag variables shared across all subcommands.
// These are bound to cobra persistent flags on the root command,
// which makes them available to every subcommand automatically.
var (
	// jsonOutput switches the final report and errors to JSON. Progress
	// lines and prompts move to stderr so stdout carries only JSON.
	jsonOutput bool

	// verbose forces debug-level diagnostics on stderr.
	verbose bool

	// projectRoot is the directory holding src/ and deliverables/.
	// Empty means the current working directory.
	projectRoot string

	// configPath points at an explicit project config file.
	configPath string
)

// Version, Commit and Date are set at build time via ldflags.
// They are injected from the main package to display version information.
var (
	// Version is the semantic version of the binary (e.g., "1.0.0").
	Version = "dev"

	// Commit is the Git commit hash the binary was built from.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

// NewRootCommand creates and configures the root cobra command.
// This is the entry point for the entire CLI application.
func NewRootCommand() *cobra.Command {
	flags := &deliverFlags{}

	rootCmd := &cobra.Command{
		Use:   "deliver <part>",
		Short: "Package an assignment part into a submission archive",
		Long: `deliver collects the source files, tests and documentation of an
assignment part, stages them and packs them into a single tar.gz archive
named after the submitting students.

<part> is one of 2a, a, 2b or b.

Examples:
  deliver 2a
  deliver b --check
  deliver 2b --root ~/course/pipeline --json`,

		Args: validatePartArgs,

		// SilenceUsage prevents cobra from printing usage on every error.
		// We handle error output ourselves for cleaner UX.
		SilenceUsage: true,

		// SilenceErrors prevents cobra from printing errors automatically.
		// We format errors ourselves (text or JSON based on --json flag).
		SilenceErrors: true,

		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),

		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeliver(cmd, args[0], flags)
		},
	}

	// PersistentFlags are inherited by all subcommands.
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging on stderr")
	rootCmd.PersistentFlags().StringVar(&projectRoot, "root", "", "Project root (default: current directory)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Project config file (default: deliver.yaml in the project root)")

	rootCmd.Flags().BoolVar(&flags.check, "check", false, "Preview the selection without creating an archive")

	// Unknown or malformed flags are usage errors, not general failures.
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return model.WrapCLIError(model.ExitUsage, "invalid arguments", err)
	})

	rootCmd.AddCommand(NewPolicyCommand())
	rootCmd.AddCommand(NewListCommand())

	return rootCmd
}

// validatePartArgs requires exactly one positional argument naming a part.
func validatePartArgs(_ *cobra.Command, args []string) error {
	if len(args) != 1 {
		return model.NewCLIError(model.ExitUsage,
			fmt.Sprintf("expected exactly one part argument (2a, 2b, a, b), got %d", len(args)))
	}
	if _, err := model.ParsePart(args[0]); err != nil {
		return model.WrapCLIError(model.ExitUsage, "invalid part", err)
	}
	return nil
}

// Execute runs the root command and handles exit codes.
// This is the main entry point called from main.go.
func Execute(rootCmd *cobra.Command) {
	err := rootCmd.Execute()
	if err == nil {
		return
	}
	printError(os.Stderr, err)
	os.Exit(int(model.ExitCodeOf(err)))
}

// printError outputs an error in the appropriate format (JSON or text)
// based on the --json global flag.
func printError(w io.Writer, err error) {
	message := err.Error()
	var detail string
	code := model.ExitCodeOf(err)

	var cliErr *model.CLIError
	if errors.As(err, &cliErr) {
		message = cliErr.Message
		if cliErr.Err != nil {
			detail = cliErr.Err.Error()
		}
	}

	if jsonOutput {
		errObj := map[string]any{
			"error": map[string]any{
				"code":    int(code),
				"message": message,
			},
		}
		if detail != "" {
			if errMap, ok := errObj["error"].(map[string]any); ok {
				errMap["detail"] = detail
			}
		}
		// Errors go to stderr even in JSON mode; stdout is reserved for
		// successful command output.
		data, _ := json.MarshalIndent(errObj, "", "  ")
		_, _ = fmt.Fprintln(w, string(data))
		return
	}

	if detail != "" {
		_, _ = fmt.Fprintf(w, "Error: %s: %s\n", message, detail)
	} else {
		_, _ = fmt.Fprintf(w, "Error: %s\n", message)
	}
}

// IsJSONOutput returns whether the --json flag is set.
// Subcommands use this to decide their output format.
func IsJSONOutput() bool {
	return jsonOutput
}

// writeJSON marshals v with indentation to w.
func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return model.WrapCLIError(model.ExitInternal, "failed to encode JSON output", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
