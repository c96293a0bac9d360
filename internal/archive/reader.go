package archive

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
)

// Entry is one member of an archive.
type Entry struct {
	Name string      `json:"name"`
	Mode fs.FileMode `json:"mode"`
	Size int64       `json:"size"`

	IsDir bool `json:"isDir"`

	// Symlink is the link target of symbolic link entries.
	Symlink string `json:"symlink,omitempty"`
}

// List returns the entries of the tar.gz at path in archive order.
func List(path string) ([]Entry, error) {
	var entries []Entry
	err := Walk(path, func(hdr *tar.Header, _ io.Reader) error {
		e := Entry{
			Name:  hdr.Name,
			Mode:  hdr.FileInfo().Mode(),
			Size:  hdr.Size,
			IsDir: hdr.Typeflag == tar.TypeDir,
		}
		if hdr.Typeflag == tar.TypeSymlink {
			e.Symlink = hdr.Linkname
		}
		entries = append(entries, e)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// TopLevel returns the distinct first path components of entries, in
// order of first appearance.
func TopLevel(entries []Entry) []string {
	seen := make(map[string]struct{})
	var roots []string
	for _, e := range entries {
		root, _, _ := strings.Cut(strings.TrimPrefix(e.Name, "./"), "/")
		if _, ok := seen[root]; ok {
			continue
		}
		seen[root] = struct{}{}
		roots = append(roots, root)
	}
	return roots
}

// Walk calls fn for every header in the tar.gz at path. The reader passed
// to fn yields the entry's contents and is only valid during the call.
func Walk(path string, fn func(hdr *tar.Header, r io.Reader) error) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer file.Close()

	gz, err := gzip.NewReader(file)
	if err != nil {
		return fmt.Errorf("read gzip header of %s: %w", path, err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read archive %s: %w", path, err)
		}
		if err := fn(hdr, tr); err != nil {
			return err
		}
	}
}
