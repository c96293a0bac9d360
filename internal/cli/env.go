package cli

import (
	"io"
	"log/slog"
	"os"

	"github.com/shinji-kodama/deliver/internal/cleaner"
	"github.com/shinji-kodama/deliver/internal/config"
	"github.com/shinji-kodama/deliver/internal/logging"
	"github.com/shinji-kodama/deliver/internal/model"
	"github.com/shinji-kodama/deliver/internal/policy"
)

// environment bundles the configuration and logger every command needs.
type environment struct {
	user    *config.User
	project *config.Project
	logger  *slog.Logger
}

// loadEnvironment reads the user settings and the project configuration
// and builds the diagnostic logger. Diagnostics are written to stderr.
func loadEnvironment(stderr io.Writer) (*environment, error) {
	// Step 1: Per-user settings (logging, colour).
	user, userPath, userExists, err := config.LoadUser("")
	if err != nil {
		return nil, model.WrapCLIError(model.ExitValidation, "invalid user config", err)
	}

	// Step 2: Diagnostic logger.
	logger, err := logging.New(logging.Options{
		Level:   user.Logging.Level,
		Format:  user.Logging.Format,
		Writer:  stderr,
		Verbose: verbose,
	})
	if err != nil {
		return nil, model.WrapCLIError(model.ExitValidation, "invalid logging settings", err)
	}

	// Step 3: Project configuration, relative to --root or the cwd.
	root := projectRoot
	if root == "" {
		if root, err = os.Getwd(); err != nil {
			return nil, model.WrapCLIError(model.ExitGeneralError, "failed to determine working directory", err)
		}
	}
	project, projectPath, projectExists, err := config.LoadProject(root, configPath)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitValidation, "invalid project config", err)
	}

	logger.Debug("configuration loaded",
		slog.String("user_config", userPath),
		slog.Bool("user_config_found", userExists),
		slog.String("project_config", projectPath),
		slog.Bool("project_config_found", projectExists),
		slog.String("source_dir", project.SourceDir),
		slog.String("output_dir", project.OutputDir),
	)

	return &environment{user: user, project: project, logger: logger}, nil
}

// policyTable returns the built-in table with project overrides applied.
func (e *environment) policyTable() *policy.Table {
	table := policy.DefaultTable()
	for _, part := range []model.Part{model.PartA, model.PartB} {
		if override, ok := e.project.PartOverride(part); ok {
			table = table.With(part, override)
		}
	}
	return table
}

// cleaner returns the configured clean step.
func (e *environment) cleaner() cleaner.Cleaner {
	if e.project.Clean.Skip {
		return cleaner.Skip{}
	}
	return cleaner.NewCommandCleaner(e.project.Clean.Command)
}
