package model

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParsePart verifies that every accepted spelling collapses to the
// right part and that matching is case-sensitive.
func TestParsePart(t *testing.T) {
	tests := []struct {
		input    string
		expected Part
		hasError bool
	}{
		{"2a", PartA, false},
		{"a", PartA, false},
		{"2b", PartB, false},
		{"b", PartB, false},
		{"A", "", true},  // case-sensitive
		{"2B", "", true}, // case-sensitive
		{"c", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result, err := ParsePart(tt.input)
			if tt.hasError {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expected, result)
			}
		})
	}
}

// TestPart_Forms checks the letter and directory-key forms of each part.
func TestPart_Forms(t *testing.T) {
	assert.Equal(t, "A", PartA.Letter())
	assert.Equal(t, "2a", PartA.Key())
	assert.Equal(t, "B", PartB.Letter())
	assert.Equal(t, "2b", PartB.Key())
	assert.True(t, PartA.IsValid())
	assert.False(t, Part("C").IsValid())
}

func TestSubmissionRequest_StagingName(t *testing.T) {
	req, err := NewSubmissionRequest("b", true)
	require.NoError(t, err)
	assert.Equal(t, PartB, req.Part)
	assert.True(t, req.CheckOnly)
	assert.Equal(t, "assignment2B", req.StagingName())

	_, err = NewSubmissionRequest("3a", false)
	assert.Error(t, err)
}

// TestSelectionPolicy_Patterns verifies that extra files follow the fixed
// patterns and that the result does not alias the policy's slices.
func TestSelectionPolicy_Patterns(t *testing.T) {
	policy := SelectionPolicy{
		FilePatterns: []string{"*.cc", "Makefile"},
		ExtraFiles:   []string{"report.pdf"},
	}

	patterns := policy.Patterns()
	assert.Equal(t, []string{"*.cc", "Makefile", "report.pdf"}, patterns)

	patterns[0] = "mutated"
	assert.Equal(t, "*.cc", policy.FilePatterns[0])
}

// TestCLIError verifies the custom error type used for exit code mapping.
func TestCLIError(t *testing.T) {
	t.Run("simple error", func(t *testing.T) {
		err := NewCLIError(ExitValidation, "at least one student ID required")
		assert.Equal(t, ExitValidation, err.Code)
		assert.Equal(t, "at least one student ID required", err.Error())
		assert.Nil(t, err.Unwrap())
	})

	t.Run("wrapped error", func(t *testing.T) {
		inner := errors.New("permission denied")
		err := WrapCLIError(ExitStaging, "failed to stage files", inner)
		assert.Equal(t, ExitStaging, err.Code)
		assert.Contains(t, err.Error(), "permission denied")
		assert.True(t, errors.Is(err, inner))
	})
}

func TestExitCodeOf(t *testing.T) {
	assert.Equal(t, ExitSuccess, ExitCodeOf(nil))
	assert.Equal(t, ExitGeneralError, ExitCodeOf(errors.New("boom")))

	wrapped := fmt.Errorf("outer: %w", NewCLIError(ExitArchive, "archive failed"))
	assert.Equal(t, ExitArchive, ExitCodeOf(wrapped))
}
