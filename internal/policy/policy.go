package policy

import (
	"fmt"
	"strings"

	"github.com/shinji-kodama/deliver/internal/model"
)

// defaultPatterns are the file globs included in every submission.
var defaultPatterns = []string{
	"*.cc",
	"*.h",
	"*.cpp",
	"*.hpp",
	"Makefile",
	"README.md",
	"test_instructions.py",
	"test_output.py",
	"overview.pdf",
}

// defaultDirectories are copied recursively into every submission.
var defaultDirectories = []string{
	"tests",
	"testdata",
}

// Table is an immutable mapping from part to selection policy.
type Table struct {
	policies map[model.Part]model.SelectionPolicy
}

// DefaultTable returns the built-in policy table. Both parts share the same
// fixed lists; part B additionally accepts a report at resolve time.
func DefaultTable() *Table {
	base := model.SelectionPolicy{
		FilePatterns:   defaultPatterns,
		DirectoryNames: defaultDirectories,
	}
	return NewTable(map[model.Part]model.SelectionPolicy{
		model.PartA: base,
		model.PartB: base,
	})
}

// NewTable builds a table from policies. The input is deep-copied so later
// changes by the caller cannot leak into the table.
func NewTable(policies map[model.Part]model.SelectionPolicy) *Table {
	t := &Table{policies: make(map[model.Part]model.SelectionPolicy, len(policies))}
	for part, p := range policies {
		t.policies[part] = clonePolicy(p)
	}
	return t
}

// With returns a copy of the table with part's policy replaced.
func (t *Table) With(part model.Part, p model.SelectionPolicy) *Table {
	next := NewTable(t.policies)
	next.policies[part] = clonePolicy(p)
	return next
}

// Resolve returns the policy for part. A non-blank extraFile is appended
// to ExtraFiles for part B; a blank one is omitted without error. Extra
// files are rejected for part A.
func (t *Table) Resolve(part model.Part, extraFile string) (model.SelectionPolicy, error) {
	base, ok := t.policies[part]
	if !ok {
		return model.SelectionPolicy{}, fmt.Errorf("no selection policy for part %q", part)
	}

	resolved := clonePolicy(base)
	extraFile = strings.TrimSpace(extraFile)
	if extraFile == "" {
		return resolved, nil
	}
	if part != model.PartB {
		return model.SelectionPolicy{}, fmt.Errorf("part %s does not accept extra files", part)
	}
	resolved.ExtraFiles = append(resolved.ExtraFiles, extraFile)
	return resolved, nil
}

// AcceptsExtraFile reports whether part takes an optional extra file
// (the report) at resolve time.
func AcceptsExtraFile(part model.Part) bool {
	return part == model.PartB
}

func clonePolicy(p model.SelectionPolicy) model.SelectionPolicy {
	return model.SelectionPolicy{
		FilePatterns:   append([]string(nil), p.FilePatterns...),
		DirectoryNames: append([]string(nil), p.DirectoryNames...),
		ExtraFiles:     append([]string(nil), p.ExtraFiles...),
	}
}
