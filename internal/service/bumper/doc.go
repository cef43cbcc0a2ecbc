// Package bumper issues the downstream formula version bump.
//
// The trigger fires at most once per run, only after the darwin branch
// has published. Without force, an already-open update request for the
// same version is a soft-skip rather than an error.
package bumper
