// Package staging materializes the isolated directory that is archived
// into a submission.
//
// Assembly is not additive: any previous staging directory with the same
// name is removed in full before the new one is created, so stale files
// from an earlier run can never leak into an archive. Pattern-matched files
// are flattened to their base names; policy directories are copied
// recursively with their structure intact. File modes and modification
// times are preserved.
//
// The returned Area is a scoped acquisition: callers defer Area.Close,
// which deletes the directory unless Area.Retain was called to keep it for
// diagnosis. A copy failure leaves the partially staged directory in place.
//
// Lock guards the staging area against a second concurrent run using an
// advisory file lock (github.com/gofrs/flock).
package staging
