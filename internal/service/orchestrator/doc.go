// Package orchestrator coordinates a release run end to end.
//
// A run fans out into three isolated build branches (linux-musl,
// windows-gnu, darwin), each of which builds, packages and publishes
// strictly in order. Branches never cancel or retry each other; the
// only cross-branch dependency is the single join on the darwin branch
// that gates the formula bump.
package orchestrator
