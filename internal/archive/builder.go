package archive

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/shinji-kodama/deliver/internal/model"
)

// partialSuffix marks an archive that is still being written.
const partialSuffix = ".partial"

// Builder writes tar.gz archives from staging directories.
type Builder struct {
	logger *slog.Logger

	// Level is the gzip compression level.
	Level int
}

// NewBuilder returns a Builder using gzip.DefaultCompression. A nil logger
// discards diagnostics.
func NewBuilder(logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Builder{logger: logger, Level: gzip.DefaultCompression}
}

// Build archives stagingRoot into archivePath and returns the artifact.
// Every failure is reported as an ExitArchive CLIError; the staging
// directory is never modified.
func (b *Builder) Build(stagingRoot, archivePath string) (model.Artifact, error) {
	stagingRoot, err := filepath.Abs(stagingRoot)
	if err != nil {
		return model.Artifact{}, model.WrapCLIError(model.ExitArchive, "failed to resolve staging directory", err)
	}
	archivePath, err = filepath.Abs(archivePath)
	if err != nil {
		return model.Artifact{}, model.WrapCLIError(model.ExitArchive, "failed to resolve archive path", err)
	}

	info, err := os.Stat(stagingRoot)
	if err != nil {
		return model.Artifact{}, model.WrapCLIError(model.ExitArchive, "staging directory is not readable", err)
	}
	if !info.IsDir() {
		return model.Artifact{}, model.NewCLIError(model.ExitArchive,
			fmt.Sprintf("staging path is not a directory: %s", stagingRoot))
	}
	if rel, err := filepath.Rel(stagingRoot, archivePath); err == nil && !strings.HasPrefix(rel, "..") {
		return model.Artifact{}, model.NewCLIError(model.ExitArchive,
			fmt.Sprintf("archive %s must not be written inside the staging directory", archivePath))
	}

	if err := os.MkdirAll(filepath.Dir(archivePath), 0o755); err != nil {
		return model.Artifact{}, model.WrapCLIError(model.ExitArchive, "failed to create output directory", err)
	}

	tmpPath := archivePath + partialSuffix
	count, err := b.write(stagingRoot, tmpPath)
	if err != nil {
		_ = os.Remove(tmpPath)
		return model.Artifact{}, model.WrapCLIError(model.ExitArchive,
			fmt.Sprintf("failed to create %s", filepath.Base(archivePath)), err)
	}

	if err := os.Rename(tmpPath, archivePath); err != nil {
		_ = os.Remove(tmpPath)
		return model.Artifact{}, model.WrapCLIError(model.ExitArchive, "failed to move archive into place", err)
	}

	stat, err := os.Stat(archivePath)
	if err != nil {
		return model.Artifact{}, model.WrapCLIError(model.ExitArchive, "failed to stat archive", err)
	}

	b.logger.Debug("archive written",
		slog.String("path", archivePath),
		slog.Int("entries", count),
		slog.Int64("bytes", stat.Size()),
	)
	return model.Artifact{Path: archivePath, SizeBytes: stat.Size()}, nil
}

// write streams the tar.gz into dst and returns the number of entries.
func (b *Builder) write(stagingRoot, dst string) (count int, err error) {
	file, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", dst, err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", dst, closeErr)
		}
	}()

	gz, err := gzip.NewWriterLevel(file, b.Level)
	if err != nil {
		return 0, fmt.Errorf("gzip writer: %w", err)
	}
	tw := tar.NewWriter(gz)

	base := filepath.Base(stagingRoot)
	walkErr := filepath.WalkDir(stagingRoot, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walk %s: %w", p, err)
		}
		rel, err := filepath.Rel(stagingRoot, p)
		if err != nil {
			return err
		}
		name := path.Join(base, filepath.ToSlash(rel))
		if err := addEntry(tw, p, name, d); err != nil {
			return err
		}
		count++
		return nil
	})
	if walkErr != nil {
		_ = tw.Close()
		_ = gz.Close()
		return count, walkErr
	}

	if err := tw.Close(); err != nil {
		_ = gz.Close()
		return count, fmt.Errorf("finish tar stream: %w", err)
	}
	if err := gz.Close(); err != nil {
		return count, fmt.Errorf("finish gzip stream: %w", err)
	}
	return count, nil
}

func addEntry(tw *tar.Writer, src, name string, d fs.DirEntry) error {
	info, err := d.Info()
	if err != nil {
		return fmt.Errorf("stat %s: %w", src, err)
	}

	var link string
	if info.Mode()&fs.ModeSymlink != 0 {
		if link, err = os.Readlink(src); err != nil {
			return fmt.Errorf("read symlink %s: %w", src, err)
		}
	}

	hdr, err := tar.FileInfoHeader(info, link)
	if err != nil {
		return fmt.Errorf("tar header for %s: %w", src, err)
	}
	hdr.Name = name
	if info.IsDir() {
		hdr.Name += "/"
	}

	if err := tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("write header %s: %w", name, err)
	}
	if !info.Mode().IsRegular() {
		return nil
	}

	f, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer func() { _ = f.Close() }()

	n, err := io.Copy(tw, f)
	if err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if n != hdr.Size {
		return fmt.Errorf("write %s: %w (wrote %d of %d bytes)", name, errors.New("file changed while archiving"), n, hdr.Size)
	}
	return nil
}
