package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/deliver/internal/model"
)

func TestPolicyCommand_Text(t *testing.T) {
	isolateUserConfig(t)
	root := setupProject(t, skipCleanYAML)

	stdout, _, err := executeCommand(t, "", "policy", "2a", "--root", root)
	require.NoError(t, err)

	assert.Contains(t, stdout, "Part A selection policy (built-in)")
	for _, want := range []string{"*.cc", "*.hpp", "Makefile", "overview.pdf", "tests", "testdata", "directory"} {
		assert.Contains(t, stdout, want)
	}
	assert.Contains(t, stdout, "╭", "rounded table style")
	assert.NotContains(t, stdout, "\x1b[", "no colour when not a terminal")
}

func TestPolicyCommand_ProjectOverride(t *testing.T) {
	isolateUserConfig(t)
	root := setupProject(t, skipCleanYAML+"parts:\n  2b:\n    patterns: ['*.c', 'Makefile']\n    directories: [bench]\n")

	stdout, _, err := executeCommand(t, "", "policy", "b", "--root", root, "--report", "report.pdf", "--json")
	require.NoError(t, err)

	var view struct {
		Part       string                `json:"part"`
		Overridden bool                  `json:"overridden"`
		StagingDir string                `json:"stagingDir"`
		Policy     model.SelectionPolicy `json:"policy"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &view))
	assert.Equal(t, "B", view.Part)
	assert.True(t, view.Overridden)
	assert.Contains(t, view.StagingDir, "assignment2B")
	assert.Equal(t, []string{"*.c", "Makefile"}, view.Policy.FilePatterns)
	assert.Equal(t, []string{"bench"}, view.Policy.DirectoryNames)
	assert.Equal(t, []string{"report.pdf"}, view.Policy.ExtraFiles)
}

func TestPolicyCommand_Errors(t *testing.T) {
	isolateUserConfig(t)
	root := setupProject(t, skipCleanYAML)

	_, _, err := executeCommand(t, "", "policy", "a", "--root", root, "--report", "report.pdf")
	require.Error(t, err)
	assert.Equal(t, model.ExitUsage, model.ExitCodeOf(err))

	_, _, err = executeCommand(t, "", "policy", "3c", "--root", root)
	require.Error(t, err)
	assert.Equal(t, model.ExitUsage, model.ExitCodeOf(err))
}
