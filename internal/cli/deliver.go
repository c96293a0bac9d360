package cli

import (
	"github.com/spf13/cobra"

	"github.com/shinji-kodama/deliver/internal/identity"
	"github.com/shinji-kodama/deliver/internal/logging"
	"github.com/shinji-kodama/deliver/internal/model"
	"github.com/shinji-kodama/deliver/internal/pipeline"
)

// deliverFlags holds the flag values local to the root command.
type deliverFlags struct {
	// check previews the selection and exits without staging or archiving.
	check bool
}

// runDeliver is the main logic function for the root command. It wires
// configuration into a pipeline.Controller and runs it once.
func runDeliver(cmd *cobra.Command, rawPart string, flags *deliverFlags) error {
	// Step 1: Parse the part argument into an immutable request.
	req, err := model.NewSubmissionRequest(rawPart, flags.check)
	if err != nil {
		return model.WrapCLIError(model.ExitUsage, "invalid part", err)
	}

	// Step 2: Load configuration and build the run logger.
	env, err := loadEnvironment(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	logger, runID := logging.WithRun(env.logger, req.Part.String())
	logger.Debug("run started", "check_only", req.CheckOnly)

	// Step 3: Human-readable progress goes to stdout, unless stdout is
	// reserved for the JSON report.
	progress := cmd.OutOrStdout()
	if IsJSONOutput() {
		progress = cmd.ErrOrStderr()
	}

	controller := pipeline.New(pipeline.Options{
		SourceDir: env.project.SourceDir,
		OutputDir: env.project.OutputDir,
		Cleaner:   env.cleaner(),
		Table:     env.policyTable(),
		Resolver:  identity.NewResolver(env.project.IdentityPrefix),
		Prompter:  pipeline.NewLinePrompter(cmd.InOrStdin(), progress),
		Out:       progress,
		Logger:    logger,
	})

	// Step 4: Run the pipeline.
	res, err := controller.Run(cmd.Context(), req)
	if err != nil {
		logger.Debug("run failed", "state", controller.State().String(), "error", err.Error())
		return err
	}

	// Step 5: Emit the machine-readable report.
	if IsJSONOutput() {
		return writeJSON(cmd.OutOrStdout(), struct {
			RunID string `json:"runId"`
			*pipeline.Result
		}{RunID: runID, Result: res})
	}
	return nil
}
