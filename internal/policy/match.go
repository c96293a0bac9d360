package policy

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/shinji-kodama/deliver/internal/model"
)

// FileMatch is one regular file selected by a pattern.
type FileMatch struct {
	// Pattern is the policy pattern that matched.
	Pattern string

	// Path is the absolute source path.
	Path string

	// Name is the base name the file is staged under.
	Name string

	// Extra is true when the pattern came from ExtraFiles.
	Extra bool
}

// Selection is the expansion of a policy against a source tree.
type Selection struct {
	// Files are the selected regular files, in policy order, unique by Name.
	Files []FileMatch

	// Directories are the policy directory names that exist in the source
	// tree, in policy order.
	Directories []string

	// Duplicates are files skipped because an earlier match already claimed
	// their base name.
	Duplicates []FileMatch

	// Unmatched are extra-file patterns that selected nothing.
	Unmatched []string
}

// IsEmpty reports whether nothing was selected.
func (s *Selection) IsEmpty() bool {
	return len(s.Files) == 0 && len(s.Directories) == 0
}

// Match expands p against sourceRoot without touching the filesystem
// beyond reads. Fixed patterns only match entries directly under
// sourceRoot. Extra files may carry a directory part; relative ones are
// resolved against sourceRoot.
func Match(sourceRoot string, p model.SelectionPolicy) (*Selection, error) {
	info, err := os.Stat(sourceRoot)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, model.WrapCLIError(model.ExitMissingSource,
				fmt.Sprintf("source directory not found: %s", sourceRoot), err)
		}
		return nil, fmt.Errorf("stat source directory: %w", err)
	}
	if !info.IsDir() {
		return nil, model.NewCLIError(model.ExitMissingSource,
			fmt.Sprintf("source path is not a directory: %s", sourceRoot))
	}

	sel := &Selection{}
	claimed := make(map[string]struct{})

	add := func(pattern string, extra bool, paths []string) {
		for _, path := range paths {
			m := FileMatch{Pattern: pattern, Path: path, Name: filepath.Base(path), Extra: extra}
			if _, dup := claimed[m.Name]; dup {
				sel.Duplicates = append(sel.Duplicates, m)
				continue
			}
			claimed[m.Name] = struct{}{}
			sel.Files = append(sel.Files, m)
		}
	}

	for _, pattern := range p.FilePatterns {
		paths, err := matchFiles(sourceRoot, pattern)
		if err != nil {
			return nil, err
		}
		add(pattern, false, paths)
	}

	for _, pattern := range p.ExtraFiles {
		dir, base := filepath.Split(pattern)
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(sourceRoot, dir)
		}
		paths, err := matchFiles(dir, base)
		if err != nil {
			return nil, err
		}
		if len(paths) == 0 {
			sel.Unmatched = append(sel.Unmatched, pattern)
		}
		add(pattern, true, paths)
	}

	for _, name := range p.DirectoryNames {
		dirInfo, err := os.Stat(filepath.Join(sourceRoot, name))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("stat directory %s: %w", name, err)
		}
		if dirInfo.IsDir() {
			sel.Directories = append(sel.Directories, name)
		}
	}

	return sel, nil
}

// matchFiles returns the sorted absolute paths of regular files directly in
// dir whose names match pattern. Symlinks are followed. A missing dir
// matches nothing.
func matchFiles(dir, pattern string) ([]string, error) {
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read directory %s: %w", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		ok, _ := filepath.Match(pattern, entry.Name())
		if !ok {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		paths = append(paths, path)
	}

	// os.ReadDir already sorts by name; sort again so ordering never
	// depends on the platform.
	sort.Strings(paths)
	return paths, nil
}
