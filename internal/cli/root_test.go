package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/deliver/internal/model"
)

// isolateUserConfig points the user config at an empty temp location so
// the developer's own settings never leak into tests.
func isolateUserConfig(t *testing.T) {
	t.Helper()
	t.Setenv("DELIVER_CONFIG", filepath.Join(t.TempDir(), "config.toml"))
	t.Setenv("DELIVER_LOG_LEVEL", "")
}

// setupProject creates a project root with a src/ tree and a deliver.yaml
// that disables the clean step. Returns the project root.
func setupProject(t *testing.T, projectYAML string) string {
	t.Helper()

	root := t.TempDir()
	files := map[string]string{
		"src/alu.cc":         "// alu\n",
		"src/stages.h":       "// stages\n",
		"src/Makefile":       "all:\n",
		"src/tests/basic/in": "1\n",
		"src/notes.txt":      "skip me\n",
		"src/report.pdf":     "%PDF\n",
		"deliver.yaml":       projectYAML,
	}
	for rel, content := range files {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

const skipCleanYAML = "clean:\n  skip: true\n"

// executeCommand runs the root command with args and stdin and returns
// what it wrote to stdout and stderr.
func executeCommand(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()

	cmd := NewRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRootCommand_UsageErrors(t *testing.T) {
	isolateUserConfig(t)

	tests := []struct {
		name string
		args []string
	}{
		{name: "no part", args: nil},
		{name: "unknown part", args: []string{"c"}},
		{name: "part is case-sensitive", args: []string{"2A"}},
		{name: "two parts", args: []string{"2a", "2b"}},
		{name: "unknown flag", args: []string{"--bogus", "2a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := executeCommand(t, "", tt.args...)
			require.Error(t, err)
			assert.Equal(t, model.ExitUsage, model.ExitCodeOf(err))
		})
	}
}

func TestRootCommand_Deliver(t *testing.T) {
	isolateUserConfig(t)
	root := setupProject(t, skipCleanYAML)

	stdout, _, err := executeCommand(t, "1234567\n\ny\n", "a", "--root", root)
	require.NoError(t, err)

	archivePath := filepath.Join(root, "deliverables", "2a", "assignment2A-s1234567.tar.gz")
	assert.FileExists(t, archivePath)
	assert.NoDirExists(t, filepath.Join(root, "deliverables", "2a", "assignment2A"))

	assert.Contains(t, stdout, "=== Creating Assignment Part A Submission ===")
	assert.Contains(t, stdout, "Student 1 ID (sXXXXXXX): ")
	assert.Contains(t, stdout, "✓ Build cleaned")
	assert.Contains(t, stdout, "✓ Submission created successfully!")
	assert.NotContains(t, stdout, "report.pdf")
}

func TestRootCommand_DeliverPartBJSON(t *testing.T) {
	isolateUserConfig(t)
	root := setupProject(t, skipCleanYAML)

	stdout, stderr, err := executeCommand(t, "s7654321\n1112223\nreport.pdf\n\n", "2b", "--root", root, "--json")
	require.NoError(t, err)

	var report struct {
		RunID     string   `json:"runId"`
		Part      string   `json:"part"`
		Filename  string   `json:"filename"`
		Files     []string `json:"files"`
		Cancelled bool     `json:"cancelled"`
		States    []string `json:"states"`
		Artifact  *struct {
			Path      string `json:"path"`
			SizeBytes int64  `json:"sizeBytes"`
		} `json:"artifact"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &report), "stdout must be pure JSON: %s", stdout)

	assert.Len(t, report.RunID, 36)
	assert.Equal(t, "B", report.Part)
	assert.Equal(t, "assignment2B-s7654321-s1112223.tar.gz", report.Filename)
	assert.Contains(t, report.Files, "report.pdf")
	assert.False(t, report.Cancelled)
	assert.Equal(t, "DONE", report.States[len(report.States)-1])
	require.NotNil(t, report.Artifact)
	assert.FileExists(t, report.Artifact.Path)
	assert.Positive(t, report.Artifact.SizeBytes)

	// Progress and prompts moved to stderr.
	assert.Contains(t, stderr, "Path to report file (or leave blank to skip): ")
	assert.Contains(t, stderr, "✓ Submission created successfully!")
}

func TestRootCommand_Check(t *testing.T) {
	isolateUserConfig(t)
	root := setupProject(t, skipCleanYAML)

	stdout, _, err := executeCommand(t, "1234567\n\n", "2a", "--check", "--root", root)
	require.NoError(t, err)

	assert.Contains(t, stdout, "✓ Check complete (no tarball created)")
	assert.Contains(t, stdout, "    - alu.cc\n")
	assert.NotContains(t, stdout, "Create tarball?")
	assert.NoDirExists(t, filepath.Join(root, "deliverables"))
}

func TestRootCommand_Cancel(t *testing.T) {
	isolateUserConfig(t)
	root := setupProject(t, skipCleanYAML)

	stdout, _, err := executeCommand(t, "1234567\n\nn\n", "2a", "--root", root)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Cancelled")
	assert.NoDirExists(t, filepath.Join(root, "deliverables"))
}

func TestRootCommand_Failures(t *testing.T) {
	isolateUserConfig(t)

	tests := []struct {
		name     string
		yaml     string
		stdin    string
		prepare  func(t *testing.T, root string)
		wantCode model.ExitCode
	}{
		{
			name:     "missing student id",
			yaml:     skipCleanYAML,
			stdin:    "\n",
			wantCode: model.ExitValidation,
		},
		{
			name:     "missing source directory",
			yaml:     skipCleanYAML + "source_dir: nowhere\n",
			stdin:    "1234567\n\ny\n",
			wantCode: model.ExitMissingSource,
		},
		{
			name:     "invalid project config",
			yaml:     "parts:\n  c:\n    patterns: ['*.cc']\n",
			stdin:    "1234567\n\ny\n",
			wantCode: model.ExitValidation,
		},
		{
			name:  "archive path blocked",
			yaml:  skipCleanYAML,
			stdin: "1234567\n\ny\n",
			prepare: func(t *testing.T, root string) {
				blocked := filepath.Join(root, "deliverables", "2a", "assignment2A-s1234567.tar.gz", "x")
				require.NoError(t, os.MkdirAll(blocked, 0o755))
			},
			wantCode: model.ExitArchive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := setupProject(t, tt.yaml)
			if tt.prepare != nil {
				tt.prepare(t, root)
			}

			_, _, err := executeCommand(t, tt.stdin, "2a", "--root", root)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, model.ExitCodeOf(err))
		})
	}
}

func TestRootCommand_InvalidUserConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[output]\ncolor = \"sometimes\"\n"), 0o644))
	t.Setenv("DELIVER_CONFIG", path)
	t.Setenv("DELIVER_LOG_LEVEL", "")
	root := setupProject(t, skipCleanYAML)

	_, _, err := executeCommand(t, "1234567\n\n", "2a", "--check", "--root", root)
	require.Error(t, err)
	assert.Equal(t, model.ExitValidation, model.ExitCodeOf(err))
	assert.Contains(t, err.Error(), "invalid user config")
}

func TestRootCommand_VerboseLogsToStderr(t *testing.T) {
	isolateUserConfig(t)
	root := setupProject(t, skipCleanYAML)

	stdout, stderr, err := executeCommand(t, "1234567\n\n", "2a", "--check", "--root", root, "-v")
	require.NoError(t, err)
	assert.Contains(t, stderr, "DEBUG run started")
	assert.Contains(t, stderr, "run_id=")
	assert.NotContains(t, stdout, "DEBUG")
}

func TestPrintError(t *testing.T) {
	t.Cleanup(func() { jsonOutput = false })

	tests := []struct {
		name string
		json bool
		err  error
		want string
	}{
		{
			name: "plain text",
			err:  model.NewCLIError(model.ExitValidation, "at least one student ID required"),
			want: "Error: at least one student ID required\n",
		},
		{
			name: "text with cause",
			err:  model.WrapCLIError(model.ExitArchive, "failed to create archive", errors.New("disk full")),
			want: "Error: failed to create archive: disk full\n",
		},
		{
			name: "generic error",
			err:  errors.New("boom"),
			want: "Error: boom\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			jsonOutput = tt.json
			var buf bytes.Buffer
			printError(&buf, tt.err)
			assert.Equal(t, tt.want, buf.String())
		})
	}

	t.Run("json", func(t *testing.T) {
		jsonOutput = true
		var buf bytes.Buffer
		printError(&buf, model.WrapCLIError(model.ExitStaging, "failed to stage alu.cc", errors.New("permission denied")))

		var got struct {
			Error struct {
				Code    int    `json:"code"`
				Message string `json:"message"`
				Detail  string `json:"detail"`
			} `json:"error"`
		}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		assert.Equal(t, int(model.ExitStaging), got.Error.Code)
		assert.Equal(t, "failed to stage alu.cc", got.Error.Message)
		assert.Equal(t, "permission denied", got.Error.Detail)
	})
}

func TestShouldColorize(t *testing.T) {
	var buf bytes.Buffer
	assert.True(t, shouldColorize(&buf, "always"))
	assert.False(t, shouldColorize(&buf, "never"))
	assert.False(t, shouldColorize(&buf, "auto"), "non-file writers are never terminals")

	t.Setenv("NO_COLOR", "1")
	assert.False(t, shouldColorize(os.Stdout, "auto"))
}
