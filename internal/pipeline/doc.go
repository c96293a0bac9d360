// Package pipeline drives one submission run from prompts to archive.
//
// The Controller walks an explicit state machine:
//
//	COLLECTING_INPUT -> CLEANING -> SELECTING
//	SELECTING -> REPORT_ONLY -> DONE            (check-only)
//	SELECTING -> CONFIRMING -> CANCELLED -> DONE
//	CONFIRMING -> STAGING -> ARCHIVING -> VERIFYING -> DONE
//
// Every transition is validated; a fatal error aborts the run from
// whatever state it was in. Nothing outside the staging directory, the
// lock file beside it and the archive is ever written, and a check-only
// run writes nothing at all. The clean step is the one exception: it runs
// the project's own clean command inside the source directory.
package pipeline
