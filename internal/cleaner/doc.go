// Package cleaner runs the project's clean step before files are selected.
//
// The clean step removes build products (object files, binaries) from the
// source tree so they are not picked up by the selection patterns. By
// default it is `make clean` executed inside the source directory.
//
// Design decisions:
//   - We shell out to the configured command rather than deleting files
//     ourselves, because only the project's build descriptor knows which
//     files are build products.
//   - A failing clean step is not fatal. The caller reports it as a warning
//     and continues, so Clean returns a *Warning instead of a CLIError.
package cleaner
