// Package publisher attaches packaged artifacts to the tagged release.
//
// Publication is idempotent (same-name assets are replaced, never
// duplicated) and atomic per branch: either archive and sidecar are both
// attached or neither stays attached.
package publisher
