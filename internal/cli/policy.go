// policy.go implements the "deliver policy" command.
//
// The policy command prints the selection policy a run would use for a
// part, after project overrides, together with the resolved source and
// output locations. It never prompts and never touches the filesystem
// beyond reading configuration.

package cli

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/deliver/internal/model"
)

// policyFlags holds the flag values for the policy command.
type policyFlags struct {
	// report is an optional extra file, as it would be answered at the
	// part B report prompt.
	report string
}

// policyView is the JSON shape of the policy command output.
type policyView struct {
	Part        model.Part            `json:"part"`
	SourceDir   string                `json:"sourceDir"`
	StagingDir  string                `json:"stagingDir"`
	Policy      model.SelectionPolicy `json:"policy"`
	Overridden  bool                  `json:"overridden"`
	ProjectRoot string                `json:"projectRoot"`
}

// NewPolicyCommand creates the "policy" cobra command.
func NewPolicyCommand() *cobra.Command {
	flags := &policyFlags{}

	cmd := &cobra.Command{
		Use:   "policy <part>",
		Short: "Show the file selection policy for a part",
		Long: `Show which file patterns and directories are packaged for a part.

Project overrides from deliver.yaml are applied. Patterns match regular
files directly inside the source directory; directories are copied
recursively.

Examples:
  deliver policy 2a
  deliver policy b --report report.pdf
  deliver policy a --json`,

		Args: validatePartArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runPolicy(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVar(&flags.report, "report", "", "Extra report file to include (part B only)")

	return cmd
}

// runPolicy resolves and prints the selection policy for rawPart.
func runPolicy(cmd *cobra.Command, rawPart string, flags *policyFlags) error {
	// Step 1: Parse the part.
	part, err := model.ParsePart(rawPart)
	if err != nil {
		return model.WrapCLIError(model.ExitUsage, "invalid part", err)
	}

	// Step 2: Load configuration.
	env, err := loadEnvironment(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	// Step 3: Resolve the policy exactly as a run would.
	resolved, err := env.policyTable().Resolve(part, flags.report)
	if err != nil {
		return model.WrapCLIError(model.ExitUsage, "failed to resolve selection policy", err)
	}
	_, overridden := env.project.PartOverride(part)

	view := policyView{
		Part:        part,
		SourceDir:   env.project.SourceDir,
		StagingDir:  filepath.Join(env.project.PartDir(part), model.SubmissionRequest{Part: part}.StagingName()),
		Policy:      resolved,
		Overridden:  overridden,
		ProjectRoot: env.project.Root,
	}

	// Step 4: Output.
	out := cmd.OutOrStdout()
	if IsJSONOutput() {
		return writeJSON(out, view)
	}

	rows := make([][]string, 0, len(resolved.FilePatterns)+len(resolved.ExtraFiles)+len(resolved.DirectoryNames))
	n := 0
	addRows := func(kind string, entries []string) {
		for _, entry := range entries {
			n++
			rows = append(rows, []string{strconv.Itoa(n), kind, entry})
		}
	}
	addRows("file", resolved.FilePatterns)
	addRows("extra", resolved.ExtraFiles)
	addRows("directory", resolved.DirectoryNames)

	source := "built-in"
	if overridden {
		source = "project config"
	}
	fmt.Fprintf(out, "Part %s selection policy (%s)\n", part, source)
	fmt.Fprintf(out, "  Source:  %s\n", view.SourceDir)
	fmt.Fprintf(out, "  Staging: %s\n", view.StagingDir)
	fmt.Fprintln(out, renderTable(
		[]string{"#", "Kind", "Entry"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft},
		shouldColorize(out, env.user.Output.Color),
	))
	return nil
}
