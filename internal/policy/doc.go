// Package policy maps an assignment part to the files and directories that
// make up its submission, and matches that policy against a source tree.
//
// A Table holds one immutable SelectionPolicy per part. The built-in table
// (DefaultTable) covers C/C++ sources and headers, the Makefile, the README,
// the test-driver scripts and the overview document, plus the tests/ and
// testdata/ directories. Project configuration may replace a part's entry
// via Table.With; the resulting table is a new value.
//
// Match expands a policy against a source directory in a stable order:
// patterns in policy order, matches sorted within each pattern, and files
// de-duplicated by base name (first match wins). The same Selection drives
// both the check-only preview and the staging copy, so what is previewed is
// exactly what is staged.
package policy
