package cleaner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// DefaultCommand is the clean command used when the project does not
// configure one.
var DefaultCommand = []string{"make", "clean"}

// Cleaner prepares a source directory for packaging.
type Cleaner interface {
	Clean(ctx context.Context, dir string) error
}

// Warning reports a clean step that did not succeed. It is never fatal.
type Warning struct {
	// Command is the argv that was run.
	Command []string

	// Stderr is the trimmed standard error output, if any.
	Stderr string

	// Err is the underlying exec error.
	Err error
}

// Error satisfies the error interface.
func (w *Warning) Error() string {
	msg := fmt.Sprintf("%s failed", strings.Join(w.Command, " "))
	if w.Stderr != "" {
		msg = fmt.Sprintf("%s: %s", msg, w.Stderr)
	}
	if w.Err != nil {
		msg = fmt.Sprintf("%s (%v)", msg, w.Err)
	}
	return msg
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (w *Warning) Unwrap() error {
	return w.Err
}

// IsWarning reports whether err is a clean-step warning.
func IsWarning(err error) bool {
	var w *Warning
	return errors.As(err, &w)
}

// CommandCleaner runs an external command inside the source directory.
//
// The command's stdout is captured and discarded. Stderr is captured and
// attached to the returned Warning so the caller can show why the clean
// step failed.
type CommandCleaner struct {
	// Command is the argv to execute. Command[0] is looked up in PATH.
	Command []string
}

// NewCommandCleaner returns a CommandCleaner for argv. An empty argv falls
// back to DefaultCommand.
func NewCommandCleaner(argv []string) *CommandCleaner {
	if len(argv) == 0 {
		argv = DefaultCommand
	}
	return &CommandCleaner{Command: append([]string(nil), argv...)}
}

// Clean runs the command in dir. A missing directory, a missing binary and
// a non-zero exit status are all reported as *Warning.
func (c *CommandCleaner) Clean(ctx context.Context, dir string) error {
	if len(c.Command) == 0 {
		return &Warning{Err: errors.New("no clean command configured")}
	}

	info, err := os.Stat(dir)
	if err != nil {
		return &Warning{Command: c.Command, Err: err}
	}
	if !info.IsDir() {
		return &Warning{Command: c.Command, Err: fmt.Errorf("%s is not a directory", dir)}
	}

	_, stderr, err := run(ctx, dir, c.Command[0], c.Command[1:]...)
	if err != nil {
		return &Warning{Command: c.Command, Stderr: stderr, Err: err}
	}
	return nil
}

// Skip is a Cleaner that does nothing. It is used when the project disables
// the clean step.
type Skip struct{}

// Clean always succeeds.
func (Skip) Clean(context.Context, string) error { return nil }

// run executes name with args in dir and returns stdout and trimmed stderr.
func run(ctx context.Context, dir, name string, args ...string) (string, string, error) {
	// #nosec G204 -- argv comes from the project configuration
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), strings.TrimSpace(stderr.String()), err
}
