// Package logging builds the slog loggers used for diagnostics.
//
// Diagnostics always go to stderr (or the writer in Options) so that the
// user-facing progress lines on stdout stay clean. Two formats exist:
// "console", a compact single-line form meant for humans, and "json".
package logging
