package staging

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/shinji-kodama/deliver/internal/model"
	"github.com/shinji-kodama/deliver/internal/policy"
)

// Assembler copies a policy selection into a staging directory.
type Assembler struct {
	logger *slog.Logger

	// Progress, when set, is called after each top-level entry is staged
	// with the entry name ("alu.cc", "tests/").
	Progress func(entry string)
}

// NewAssembler returns an Assembler that logs through logger. A nil
// logger discards diagnostics.
func NewAssembler(logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Assembler{logger: logger}
}

// Area is a populated staging directory owned by one run.
type Area struct {
	// Root is the absolute staging directory path.
	Root string

	// Files are the staged base names, in copy order.
	Files []string

	// Directories are the staged directory names, in copy order.
	Directories []string

	retained bool
	closed   bool
}

// Name returns the staging directory's base name.
func (a *Area) Name() string {
	return filepath.Base(a.Root)
}

// Retain marks the area to be kept on disk by Close.
func (a *Area) Retain() {
	a.retained = true
}

// Retained reports whether Retain was called.
func (a *Area) Retained() bool {
	return a.retained
}

// Close removes the staging directory unless it was retained. It is safe
// to call more than once.
func (a *Area) Close() error {
	if a == nil || a.closed {
		return nil
	}
	a.closed = true
	if a.retained {
		return nil
	}
	if err := os.RemoveAll(a.Root); err != nil {
		return fmt.Errorf("remove staging directory %s: %w", a.Root, err)
	}
	return nil
}

// Assemble matches p against sourceRoot and copies the selection into
// stagingRoot, replacing whatever was there. It fails with an
// ExitMissingSource CLIError before touching stagingRoot when sourceRoot
// does not exist, and with ExitStaging when a copy fails.
func (as *Assembler) Assemble(sourceRoot string, p model.SelectionPolicy, stagingRoot string) (*Area, error) {
	sel, err := policy.Match(sourceRoot, p)
	if err != nil {
		return nil, err
	}
	return as.AssembleSelection(sourceRoot, sel, stagingRoot)
}

// AssembleSelection copies an already matched selection into stagingRoot.
func (as *Assembler) AssembleSelection(sourceRoot string, sel *policy.Selection, stagingRoot string) (*Area, error) {
	stagingRoot, err := filepath.Abs(stagingRoot)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitStaging, "failed to resolve staging directory", err)
	}
	sourceRoot, err = filepath.Abs(sourceRoot)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitStaging, "failed to resolve source directory", err)
	}

	if info, statErr := os.Stat(sourceRoot); statErr != nil || !info.IsDir() {
		return nil, model.WrapCLIError(model.ExitMissingSource,
			fmt.Sprintf("source directory not found: %s", sourceRoot), statErr)
	}

	// Removing stagingRoot must never take the sources with it, and staging
	// inside a copied directory would recurse into itself.
	if within(sourceRoot, stagingRoot) {
		return nil, model.NewCLIError(model.ExitStaging,
			fmt.Sprintf("staging directory %s contains the source directory", stagingRoot))
	}
	for _, dir := range sel.Directories {
		if within(stagingRoot, filepath.Join(sourceRoot, dir)) {
			return nil, model.NewCLIError(model.ExitStaging,
				fmt.Sprintf("staging directory %s lies inside copied directory %s", stagingRoot, dir))
		}
	}

	if err := os.RemoveAll(stagingRoot); err != nil {
		return nil, model.WrapCLIError(model.ExitStaging, "failed to remove previous staging directory", err)
	}
	if err := os.MkdirAll(stagingRoot, 0o755); err != nil {
		return nil, model.WrapCLIError(model.ExitStaging, "failed to create staging directory", err)
	}
	as.logger.Debug("staging directory created", slog.String("path", stagingRoot))

	area := &Area{Root: stagingRoot}

	for _, f := range sel.Files {
		dst := filepath.Join(stagingRoot, f.Name)
		if err := copyFile(f.Path, dst); err != nil {
			return nil, model.WrapCLIError(model.ExitStaging,
				fmt.Sprintf("failed to stage %s (partial staging left at %s)", f.Name, stagingRoot), err)
		}
		area.Files = append(area.Files, f.Name)
		as.logger.Debug("staged file", slog.String("name", f.Name), slog.String("pattern", f.Pattern))
		as.report(f.Name)
	}

	for _, dir := range sel.Directories {
		src := filepath.Join(sourceRoot, dir)
		dst := filepath.Join(stagingRoot, dir)
		if err := copyTree(src, dst); err != nil {
			return nil, model.WrapCLIError(model.ExitStaging,
				fmt.Sprintf("failed to stage %s/ (partial staging left at %s)", dir, stagingRoot), err)
		}
		area.Directories = append(area.Directories, dir)
		as.logger.Debug("staged directory", slog.String("name", dir))
		as.report(dir + "/")
	}

	return area, nil
}

func (as *Assembler) report(entry string) {
	if as.Progress != nil {
		as.Progress(entry)
	}
}

// within reports whether path equals dir or lies beneath it.
func within(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// copyTree copies srcDir to dstDir recursively. Symlinks are recreated as
// symlinks. Directory modification times are applied after their contents
// are written, deepest first, so writing children does not disturb them.
func copyTree(srcDir, dstDir string) error {
	type dirTime struct {
		path string
		info fs.FileInfo
	}
	var dirs []dirTime

	err := filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return fmt.Errorf("error walking source directory at %s: %w", path, walkErr)
		}

		relPath, err := filepath.Rel(srcDir, path)
		if err != nil {
			return fmt.Errorf("failed to compute relative path for %s: %w", path, err)
		}
		dstPath := filepath.Join(dstDir, relPath)

		switch {
		case d.Type()&fs.ModeSymlink != 0:
			target, err := os.Readlink(path)
			if err != nil {
				return fmt.Errorf("failed to read symlink %s: %w", path, err)
			}
			if err := os.Symlink(target, dstPath); err != nil {
				return fmt.Errorf("failed to create symlink %s: %w", dstPath, err)
			}
			return nil

		case d.IsDir():
			info, err := d.Info()
			if err != nil {
				return fmt.Errorf("failed to stat directory %s: %w", path, err)
			}
			// Owner write is kept until the times pass so children can be created.
			if err := os.MkdirAll(dstPath, info.Mode().Perm()|0o700); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", dstPath, err)
			}
			dirs = append(dirs, dirTime{path: dstPath, info: info})
			return nil

		case d.Type().IsRegular():
			return copyFile(path, dstPath)

		default:
			return fmt.Errorf("unsupported file type at %s: %s", path, d.Type())
		}
	})
	if err != nil {
		return err
	}

	for i := len(dirs) - 1; i >= 0; i-- {
		if err := os.Chmod(dirs[i].path, dirs[i].info.Mode().Perm()); err != nil {
			return fmt.Errorf("failed to set mode on %s: %w", dirs[i].path, err)
		}
		mtime := dirs[i].info.ModTime()
		if err := os.Chtimes(dirs[i].path, mtime, mtime); err != nil {
			return fmt.Errorf("failed to set times on %s: %w", dirs[i].path, err)
		}
	}
	return nil
}

// copyFile copies src to dst, following symlinks at src, and preserves the
// permission bits and modification time.
func copyFile(src, dst string) (err error) {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("failed to stat source file %s: %w", src, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("source %s is not a regular file", src)
	}

	srcFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source file %s: %w", src, err)
	}
	defer func() { _ = srcFile.Close() }()

	dstFile, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("failed to create destination file %s: %w", dst, err)
	}
	defer func() {
		if closeErr := dstFile.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", dst, closeErr)
		}
	}()

	if _, err := dstFile.ReadFrom(srcFile); err != nil {
		return fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}

	// OpenFile applies the umask; set the exact bits explicitly.
	if err := dstFile.Chmod(info.Mode().Perm()); err != nil {
		return fmt.Errorf("failed to set mode on %s: %w", dst, err)
	}

	mtime := info.ModTime()
	if err := os.Chtimes(dst, mtime, mtime); err != nil {
		return fmt.Errorf("failed to set times on %s: %w", dst, err)
	}
	return nil
}
