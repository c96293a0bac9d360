package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/shinji-kodama/deliver/internal/model"
)

// ValidationError represents a specific validation failure in a config file.
type ValidationError struct {
	// Field is the config key that failed validation (e.g. "parts.a.patterns").
	Field string

	// Message describes what is wrong with the value.
	Message string
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation error: %s: %s", e.Field, e.Message)
}

// Validate checks the normalized project configuration and returns every
// problem found (empty slice = valid).
func (p *Project) Validate() []ValidationError {
	var errs []ValidationError

	if filepath.Clean(p.SourceDir) == filepath.Clean(p.OutputDir) {
		errs = append(errs, ValidationError{
			Field:   "output_dir",
			Message: "must differ from source_dir",
		})
	}

	if strings.ContainsAny(p.IdentityPrefix, "-/\\ \t") {
		errs = append(errs, ValidationError{
			Field:   "identity_prefix",
			Message: fmt.Sprintf("%q must not contain separators or whitespace", p.IdentityPrefix),
		})
	}

	if !p.Clean.Skip && strings.TrimSpace(p.Clean.Command[0]) == "" {
		errs = append(errs, ValidationError{
			Field:   "clean.command",
			Message: "program name must not be empty",
		})
	}

	keys := make([]string, 0, len(p.Parts))
	for key := range p.Parts {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if _, err := model.ParsePart(key); err != nil {
			errs = append(errs, ValidationError{
				Field:   "parts." + key,
				Message: "unknown part (valid: a, 2a, b, 2b)",
			})
			continue
		}
		errs = append(errs, ValidatePolicy("parts."+key, p.Parts[key].Policy())...)
	}

	return errs
}

// ValidatePolicy checks glob syntax and directory names of a selection
// policy. field prefixes every reported error.
func ValidatePolicy(field string, policy model.SelectionPolicy) []ValidationError {
	var errs []ValidationError

	for i, pattern := range policy.FilePatterns {
		if strings.TrimSpace(pattern) == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("%s.patterns[%d]", field, i),
				Message: "pattern must not be empty",
			})
			continue
		}
		if strings.ContainsAny(pattern, `/\`) {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("%s.patterns[%d]", field, i),
				Message: fmt.Sprintf("%q must match files directly under the source directory", pattern),
			})
			continue
		}
		if _, err := filepath.Match(pattern, ""); err != nil {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("%s.patterns[%d]", field, i),
				Message: fmt.Sprintf("invalid glob %q: %v", pattern, err),
			})
		}
	}

	for i, dir := range policy.DirectoryNames {
		if dir == "" || dir == "." || dir == ".." || strings.ContainsAny(dir, `/\*?[`) {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("%s.directories[%d]", field, i),
				Message: fmt.Sprintf("%q must be a plain directory name", dir),
			})
		}
	}

	return errs
}

func joinValidationErrors(errs []ValidationError) error {
	joined := make([]error, 0, len(errs))
	for i := range errs {
		joined = append(joined, &errs[i])
	}
	return errors.Join(joined...)
}
