// Package model defines the domain types for the deliver CLI.
//
// A single run of the packaging pipeline is described by a SubmissionRequest
// (which assignment part, and whether this is a check-only preview) plus one
// or two submitter identities. Every value in this package is immutable once
// constructed; the pipeline never mutates a request or a policy mid-run.
package model

import (
	"fmt"
	"strings"
)

// Part identifies which assignment part is being submitted.
// The CLI accepts several spellings ("2a", "a", "2b", "b"); all of them
// collapse onto one of the two Part constants.
type Part string

const (
	// PartA is assignment part 2A.
	PartA Part = "A"

	// PartB is assignment part 2B. Part B submissions may carry an extra
	// report file chosen interactively.
	PartB Part = "B"
)

// String returns the upper-case part letter.
func (p Part) String() string {
	return string(p)
}

// IsValid checks whether the Part value is one of the predefined parts.
func (p Part) IsValid() bool {
	switch p {
	case PartA, PartB:
		return true
	default:
		return false
	}
}

// Letter returns the upper-case part letter used in file names
// ("A" or "B").
func (p Part) Letter() string {
	return string(p)
}

// Key returns the lower-case long form ("2a" or "2b"). It names the
// part-specific output directory under the deliverables root.
func (p Part) Key() string {
	return "2" + strings.ToLower(string(p))
}

// ParsePart converts a CLI spelling to a Part. Only the exact spellings
// "2a", "a", "2b" and "b" are accepted; matching is case-sensitive.
func ParsePart(s string) (Part, error) {
	switch s {
	case "2a", "a":
		return PartA, nil
	case "2b", "b":
		return PartB, nil
	default:
		return "", fmt.Errorf("invalid part %q (valid: 2a, 2b, a, b)", s)
	}
}

// SubmissionRequest describes one invocation of the pipeline.
type SubmissionRequest struct {
	// Part is the assignment part being packaged.
	Part Part `json:"part"`

	// CheckOnly requests a preview run that performs selection but never
	// stages or archives anything.
	CheckOnly bool `json:"checkOnly"`
}

// NewSubmissionRequest parses the raw part argument and returns a request.
func NewSubmissionRequest(rawPart string, checkOnly bool) (SubmissionRequest, error) {
	part, err := ParsePart(rawPart)
	if err != nil {
		return SubmissionRequest{}, err
	}
	return SubmissionRequest{Part: part, CheckOnly: checkOnly}, nil
}

// StagingName returns the name of the staging directory, which is also the
// single top-level entry of the produced archive (e.g. "assignment2A").
func (r SubmissionRequest) StagingName() string {
	return "assignment2" + r.Part.Letter()
}

// Identity is one submitter identity as typed by the user and in its
// canonical (prefixed) form.
type Identity struct {
	// Raw is the trimmed user input.
	Raw string `json:"raw"`

	// Canonical is Raw with the identity prefix prepended when missing.
	Canonical string `json:"canonical"`
}

// String returns the canonical form.
func (i Identity) String() string {
	return i.Canonical
}

// SelectionPolicy is the fixed set of glob patterns and directory names
// that make up a submission. Policies are pure data and are never mutated
// after resolution.
type SelectionPolicy struct {
	// FilePatterns are glob patterns matched against regular files directly
	// under the source root. Order is significant.
	FilePatterns []string `json:"filePatterns"`

	// DirectoryNames are directories under the source root copied
	// recursively.
	DirectoryNames []string `json:"directoryNames"`

	// ExtraFiles are additional patterns supplied at run time (the part B
	// report). Absolute patterns are matched as-is; relative ones against
	// the source root.
	ExtraFiles []string `json:"extraFiles,omitempty"`
}

// Patterns returns FilePatterns followed by ExtraFiles as a new slice.
func (p SelectionPolicy) Patterns() []string {
	out := make([]string, 0, len(p.FilePatterns)+len(p.ExtraFiles))
	out = append(out, p.FilePatterns...)
	out = append(out, p.ExtraFiles...)
	return out
}

// Artifact is the archive produced by a successful run.
type Artifact struct {
	// Path is the filesystem path of the archive.
	Path string `json:"path"`

	// SizeBytes is the archive size as reported by stat after the build.
	SizeBytes int64 `json:"sizeBytes"`
}
