package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/shinji-kodama/deliver/internal/model"
)

const (
	defaultSourceDir      = "src"
	defaultOutputDir      = "deliverables"
	defaultIdentityPrefix = "s"
)

// projectFileNames lists the project config candidates in lookup order.
var projectFileNames = []string{"deliver.yaml", "deliver.yml", "deliver.json"}

// Clean configures the external clean step run before selection.
type Clean struct {
	// Skip disables the clean step entirely.
	Skip bool `yaml:"skip" json:"skip"`

	// Command is the argv of the clean command, run inside the source
	// directory. Defaults to ["make", "clean"].
	Command []string `yaml:"command" json:"command"`
}

// PartPolicy overrides the built-in selection for one part.
type PartPolicy struct {
	// Patterns are file globs matched directly under the source directory.
	Patterns []string `yaml:"patterns" json:"patterns"`

	// Directories are copied recursively.
	Directories []string `yaml:"directories" json:"directories"`
}

// Policy converts the override to a SelectionPolicy.
func (pp PartPolicy) Policy() model.SelectionPolicy {
	return model.SelectionPolicy{
		FilePatterns:   append([]string(nil), pp.Patterns...),
		DirectoryNames: append([]string(nil), pp.Directories...),
	}
}

// Project is the per-project configuration.
type Project struct {
	// Root is the absolute project root. It is not read from the file.
	Root string `yaml:"-" json:"-"`

	// SourceDir is the tree files are selected from. Relative paths are
	// resolved against Root.
	SourceDir string `yaml:"source_dir" json:"source_dir"`

	// OutputDir is the deliverables root; each part gets a subdirectory
	// ("2a", "2b") holding the staging area and the archive.
	OutputDir string `yaml:"output_dir" json:"output_dir"`

	// IdentityPrefix is prepended to identities that lack it.
	IdentityPrefix string `yaml:"identity_prefix" json:"identity_prefix"`

	Clean Clean `yaml:"clean" json:"clean"`

	// Parts overrides the built-in selection policy per part. Keys are part
	// spellings accepted on the command line ("a", "2a", "b", "2b").
	Parts map[string]PartPolicy `yaml:"parts" json:"parts"`
}

// DefaultProject returns a Project populated with built-in defaults for
// the given root.
func DefaultProject(root string) Project {
	return Project{
		Root:           root,
		SourceDir:      defaultSourceDir,
		OutputDir:      defaultOutputDir,
		IdentityPrefix: defaultIdentityPrefix,
		Clean: Clean{
			Command: []string{"make", "clean"},
		},
	}
}

// LoadProject reads the project configuration for root. When path is
// empty, the standard file names are searched in root. It returns the
// normalized config, the file that was read, and whether a file existed.
// A missing file is not an error; defaults are returned instead.
func LoadProject(root, path string) (*Project, string, bool, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, "", false, fmt.Errorf("resolve project root: %w", err)
	}

	cfg := DefaultProject(absRoot)

	resolvedPath, exists, err := resolveProjectPath(absRoot, path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		data, err := os.ReadFile(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("read project config: %w", err)
		}
		if err := decodeProject(resolvedPath, data, &cfg); err != nil {
			return nil, "", false, err
		}
	}

	cfg.normalize()

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, resolvedPath, exists, joinValidationErrors(errs)
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveProjectPath(root, path string) (string, bool, error) {
	if path != "" {
		if !filepath.IsAbs(path) {
			path = filepath.Join(root, path)
		}
		if _, err := os.Stat(path); err != nil {
			return "", false, fmt.Errorf("project config %s: %w", path, err)
		}
		return path, true, nil
	}

	for _, name := range projectFileNames {
		candidate := filepath.Join(root, name)
		_, err := os.Stat(candidate)
		if err == nil {
			return candidate, true, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", false, fmt.Errorf("stat project config %s: %w", candidate, err)
		}
	}
	return "", false, nil
}

// decodeProject picks the decoder by extension. JSON files go through
// jsonc so comments and trailing commas are accepted.
func decodeProject(path string, data []byte, cfg *Project) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		if err := json.Unmarshal(jsonc.ToJSON(data), cfg); err != nil {
			return fmt.Errorf("parse project config %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse project config %s: %w", path, err)
		}
	default:
		return fmt.Errorf("project config %s: unsupported extension (want .yaml, .yml or .json)", path)
	}
	return nil
}

func (p *Project) normalize() {
	if strings.TrimSpace(p.SourceDir) == "" {
		p.SourceDir = defaultSourceDir
	}
	if strings.TrimSpace(p.OutputDir) == "" {
		p.OutputDir = defaultOutputDir
	}
	if p.IdentityPrefix == "" {
		p.IdentityPrefix = defaultIdentityPrefix
	}
	if len(p.Clean.Command) == 0 {
		p.Clean.Command = []string{"make", "clean"}
	}
	p.SourceDir = resolveAgainst(p.Root, p.SourceDir)
	p.OutputDir = resolveAgainst(p.Root, p.OutputDir)
}

func resolveAgainst(root, path string) string {
	path = strings.TrimSpace(path)
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(root, path)
}

// PartDir returns the part-specific output directory (e.g. deliverables/2a).
func (p *Project) PartDir(part model.Part) string {
	return filepath.Join(p.OutputDir, part.Key())
}

// PartOverride returns the policy override configured for part, if any.
// Both the short ("a") and long ("2a") keys are honoured; the long key wins.
func (p *Project) PartOverride(part model.Part) (model.SelectionPolicy, bool) {
	if override, ok := p.Parts[part.Key()]; ok {
		return override.Policy(), true
	}
	if override, ok := p.Parts[strings.ToLower(part.Letter())]; ok {
		return override.Policy(), true
	}
	return model.SelectionPolicy{}, false
}
