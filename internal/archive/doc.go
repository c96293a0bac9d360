// Package archive builds and inspects gzip-compressed tar submissions.
//
// Build packs a staging directory so that the archive's single top-level
// entry is the staging directory's own base name (e.g. "assignment2A/"),
// followed by its subtree in lexical order. Nothing outside the staging
// directory is added and nothing inside it is skipped: regular files,
// directories and symlinks are all recorded. The gzip header carries no
// file name or timestamp.
//
// The archive is written to "<path>.partial" and renamed into place only
// after every writer has been closed successfully, so a failed build never
// leaves a truncated archive under the final name.
package archive
