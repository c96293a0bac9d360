package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/shinji-kodama/deliver/internal/archive"
	"github.com/shinji-kodama/deliver/internal/cleaner"
	"github.com/shinji-kodama/deliver/internal/identity"
	"github.com/shinji-kodama/deliver/internal/model"
	"github.com/shinji-kodama/deliver/internal/policy"
	"github.com/shinji-kodama/deliver/internal/staging"
)

// ArchiveBuilder packs a staging directory into an archive.
type ArchiveBuilder interface {
	Build(stagingRoot, archivePath string) (model.Artifact, error)
}

// Options wires a Controller to its collaborators. SourceDir, OutputDir
// and Prompter are required; every other field has a default.
type Options struct {
	// SourceDir is the project source tree files are selected from.
	SourceDir string

	// OutputDir is the deliverables root. Each part gets its own
	// subdirectory (e.g. deliverables/2a).
	OutputDir string

	Cleaner  cleaner.Cleaner
	Table    *policy.Table
	Resolver *identity.Resolver
	Builder  ArchiveBuilder
	Prompter Prompter

	// Out receives the user-facing progress lines.
	Out io.Writer

	Logger *slog.Logger
}

// Result summarises a finished run.
type Result struct {
	Part       model.Part       `json:"part"`
	CheckOnly  bool             `json:"checkOnly"`
	Identities []model.Identity `json:"identities"`
	Filename   string           `json:"filename"`

	// Files and Directories are what the selection matched.
	Files       []string `json:"files"`
	Directories []string `json:"directories"`

	// Artifact is set only when an archive was produced.
	Artifact *model.Artifact `json:"artifact,omitempty"`

	Cancelled bool     `json:"cancelled"`
	Warnings  []string `json:"warnings,omitempty"`
	States    []State  `json:"states"`
}

// Controller runs the submission pipeline. A Controller is good for one
// Run.
type Controller struct {
	opts      Options
	out       io.Writer
	logger    *slog.Logger
	assembler *staging.Assembler
	sm        *machine
}

// New returns a Controller with defaults filled in.
func New(opts Options) *Controller {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	if opts.Cleaner == nil {
		opts.Cleaner = cleaner.NewCommandCleaner(nil)
	}
	if opts.Table == nil {
		opts.Table = policy.DefaultTable()
	}
	if opts.Resolver == nil {
		opts.Resolver = identity.NewResolver(identity.DefaultPrefix)
	}
	if opts.Builder == nil {
		opts.Builder = archive.NewBuilder(opts.Logger)
	}

	c := &Controller{
		opts:      opts,
		out:       opts.Out,
		logger:    opts.Logger,
		assembler: staging.NewAssembler(opts.Logger),
		sm:        newMachine(),
	}
	c.assembler.Progress = func(entry string) {
		c.printf("  ✓ %s\n", entry)
	}
	return c
}

// State returns the state the controller is currently in.
func (c *Controller) State() State {
	return c.sm.current
}

// Run executes the pipeline for req. A cancelled confirmation is not an
// error: the result has Cancelled set and no artifact.
func (c *Controller) Run(ctx context.Context, req model.SubmissionRequest) (res *Result, err error) {
	if c.opts.Prompter == nil {
		return nil, model.NewCLIError(model.ExitInternal, "no prompt source configured")
	}
	if !req.Part.IsValid() {
		return nil, model.NewCLIError(model.ExitUsage, fmt.Sprintf("invalid part %q", req.Part))
	}

	res = &Result{Part: req.Part, CheckOnly: req.CheckOnly}
	defer func() { res.States = c.sm.path() }()

	sourceDir := c.opts.SourceDir
	partDir := filepath.Join(c.opts.OutputDir, req.Part.Key())
	stagingRoot := filepath.Join(partDir, req.StagingName())

	c.printf("=== Creating Assignment Part %s Submission ===\n\n", req.Part)

	// Step 1: Collect submitter identities and derive the archive name.
	ids, err := c.collectIdentities()
	if err != nil {
		return res, err
	}
	res.Identities = ids

	filename, err := identity.DeriveFilename(req.Part, ids)
	if err != nil {
		return res, model.WrapCLIError(model.ExitValidation, "failed to derive submission filename", err)
	}
	res.Filename = filename
	archivePath := filepath.Join(partDir, filename)
	c.printf("\nSubmission filename: %s\n", filename)
	c.logger.Debug("identities resolved",
		slog.String("ids", identity.Join(ids)),
		slog.String("archive", archivePath),
	)

	// Step 2: Make sure there is something to package before running any
	// external command in it.
	if err := checkSource(sourceDir); err != nil {
		return res, err
	}

	// Step 3: Clean build products. Failure only warns.
	if err := c.sm.transition(StateCleaning); err != nil {
		return res, model.WrapCLIError(model.ExitInternal, "pipeline state error", err)
	}
	c.printf("\nCleaning build artifacts...\n")
	if err := c.opts.Cleaner.Clean(ctx, sourceDir); err != nil {
		c.printf("⚠ Warning: clean step failed\n")
		c.logger.Warn("clean step failed", slog.String("error", err.Error()))
		res.Warnings = append(res.Warnings, err.Error())
	} else {
		c.printf("✓ Build cleaned\n")
	}

	// Step 4: Resolve the selection policy and preview the matches.
	if err := c.sm.transition(StateSelecting); err != nil {
		return res, model.WrapCLIError(model.ExitInternal, "pipeline state error", err)
	}
	extra, err := c.collectExtraFile(req.Part)
	if err != nil {
		return res, err
	}
	pol, err := c.opts.Table.Resolve(req.Part, extra)
	if err != nil {
		return res, model.WrapCLIError(model.ExitValidation, "failed to resolve selection policy", err)
	}
	sel, err := policy.Match(sourceDir, pol)
	if err != nil {
		if model.ExitCodeOf(err) != model.ExitGeneralError {
			return res, err
		}
		return res, model.WrapCLIError(model.ExitValidation, "failed to match selection policy", err)
	}
	for _, f := range sel.Files {
		res.Files = append(res.Files, f.Name)
	}
	res.Directories = append(res.Directories, sel.Directories...)
	c.preview(filename, sel)
	for _, d := range sel.Duplicates {
		c.logger.Warn("duplicate file name skipped",
			slog.String("name", d.Name),
			slog.String("path", d.Path),
		)
	}

	if req.CheckOnly {
		if err := c.sm.transition(StateReportOnly); err != nil {
			return res, model.WrapCLIError(model.ExitInternal, "pipeline state error", err)
		}
		c.printf("\n✓ Check complete (no tarball created)\n")
		return res, c.finish()
	}

	// Step 5: Ask before writing anything.
	if err := c.sm.transition(StateConfirming); err != nil {
		return res, model.WrapCLIError(model.ExitInternal, "pipeline state error", err)
	}
	proceed, err := c.confirm()
	if err != nil {
		return res, model.WrapCLIError(model.ExitGeneralError, "failed to read user input", err)
	}
	if !proceed {
		if err := c.sm.transition(StateCancelled); err != nil {
			return res, model.WrapCLIError(model.ExitInternal, "pipeline state error", err)
		}
		c.printf("Cancelled\n")
		res.Cancelled = true
		return res, c.finish()
	}

	// Step 6: Take ownership of the staging area and populate it.
	if err := c.sm.transition(StateStaging); err != nil {
		return res, model.WrapCLIError(model.ExitInternal, "pipeline state error", err)
	}
	lock, err := staging.AcquireLock(staging.LockPath(stagingRoot))
	if err != nil {
		return res, err
	}
	defer func() {
		if relErr := lock.Release(); relErr != nil {
			c.logger.Warn("failed to release staging lock", slog.String("error", relErr.Error()))
		}
	}()

	c.printf("\nCopying files...\n")
	area, err := c.assembler.AssembleSelection(sourceDir, sel, stagingRoot)
	if err != nil {
		return res, err
	}
	defer func() {
		if closeErr := area.Close(); closeErr != nil {
			c.logger.Warn("failed to remove staging directory", slog.String("error", closeErr.Error()))
		}
	}()

	// Step 7: Compress the staging directory.
	if err := c.sm.transition(StateArchiving); err != nil {
		return res, model.WrapCLIError(model.ExitInternal, "pipeline state error", err)
	}
	c.printf("\nCreating %s...\n", filename)
	artifact, err := c.opts.Builder.Build(area.Root, archivePath)
	if err != nil {
		area.Retain()
		c.logger.Error("archive failed, staging directory kept",
			slog.String("staging", area.Root),
			slog.String("error", err.Error()),
		)
		return res, err
	}
	if err := area.Close(); err != nil {
		c.logger.Warn("failed to remove staging directory", slog.String("error", err.Error()))
		res.Warnings = append(res.Warnings, err.Error())
	}

	// Step 8: Verify the archive really is where Build said it is.
	if err := c.sm.transition(StateVerifying); err != nil {
		return res, model.WrapCLIError(model.ExitInternal, "pipeline state error", err)
	}
	info, err := os.Stat(artifact.Path)
	if err != nil {
		return res, model.WrapCLIError(model.ExitInternal,
			fmt.Sprintf("archive %s missing after successful build", artifact.Path), err)
	}
	artifact.SizeBytes = info.Size()
	res.Artifact = &artifact

	c.report(artifact, ids)
	c.logger.Info("submission created",
		slog.String("path", artifact.Path),
		slog.Int64("bytes", artifact.SizeBytes),
	)
	return res, c.finish()
}

func (c *Controller) finish() error {
	if err := c.sm.transition(StateDone); err != nil {
		return model.WrapCLIError(model.ExitInternal, "pipeline state error", err)
	}
	return nil
}

// collectIdentities prompts for the primary and optional secondary ID.
// End of input counts as a blank answer.
func (c *Controller) collectIdentities() ([]model.Identity, error) {
	c.printf("Enter student ID(s):\n")
	primary, err := c.ask("Student 1 ID (sXXXXXXX): ")
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(primary) == "" {
		return nil, model.NewCLIError(model.ExitValidation, "at least one student ID required")
	}
	secondary, err := c.ask("Student 2 ID (leave blank if working alone): ")
	if err != nil {
		return nil, err
	}
	return c.opts.Resolver.Resolve(primary, secondary)
}

// collectExtraFile asks for the report path on parts that take one.
func (c *Controller) collectExtraFile(part model.Part) (string, error) {
	if !policy.AcceptsExtraFile(part) {
		return "", nil
	}
	c.printf("\nPart %s requires a report (report.pdf or report.md)\n", part)
	answer, err := c.ask("Path to report file (or leave blank to skip): ")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(answer), nil
}

// confirm returns true for an empty answer, "y" or "yes". End of input
// cancels.
func (c *Controller) confirm() (bool, error) {
	answer, err := c.opts.Prompter.Prompt("\nCreate tarball? [Y/n]: ")
	if errors.Is(err, io.EOF) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "", "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// ask returns the trimmed answer, mapping end of input to "".
func (c *Controller) ask(question string) (string, error) {
	answer, err := c.opts.Prompter.Prompt(question)
	if errors.Is(err, io.EOF) {
		return "", nil
	}
	if err != nil {
		return "", model.WrapCLIError(model.ExitGeneralError, "failed to read user input", err)
	}
	return strings.TrimSpace(answer), nil
}

func (c *Controller) preview(filename string, sel *policy.Selection) {
	c.printf("\nFiles to include in %s:\n", filename)
	c.printf("  Source files:\n")
	for _, f := range sel.Files {
		c.printf("    - %s\n", f.Name)
	}
	for _, pattern := range sel.Unmatched {
		c.printf("    ⚠ nothing matches %s\n", pattern)
	}
	c.printf("  Directories:\n")
	for _, d := range sel.Directories {
		c.printf("    - %s/\n", d)
	}
}

func (c *Controller) report(artifact model.Artifact, ids []model.Identity) {
	c.printf("\n✓ Submission created successfully!\n")
	c.printf("  Path: %s\n", artifact.Path)
	c.printf("  Size: %s\n", humanize.Bytes(uint64(artifact.SizeBytes)))
	c.printf("\nNext steps:\n")
	c.printf("  1. Verify contents: tar -tzf %s\n", artifact.Path)
	c.printf("  2. Submit to Brightspace\n")
	c.printf("  3. Include student IDs (%s) in submission text box\n", identity.Join(ids))
}

func (c *Controller) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(c.out, format, args...)
}

// checkSource fails with ExitMissingSource when dir is not a directory.
func checkSource(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return model.WrapCLIError(model.ExitMissingSource,
			fmt.Sprintf("source directory not found: %s", dir), err)
	}
	if !info.IsDir() {
		return model.NewCLIError(model.ExitMissingSource,
			fmt.Sprintf("source path is not a directory: %s", dir))
	}
	return nil
}
