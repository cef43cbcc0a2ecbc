// Package release contains core domain types for the release pipeline.
//
// It defines the immutable trigger Event, the fixed Target build matrix,
// the Artifact/Checksum value objects with their deterministic naming
// functions, and the per-branch state machine. Naming and sidecar
// rendering are pure functions of their inputs so every branch produces
// collision-free, reproducible filenames.
package release
