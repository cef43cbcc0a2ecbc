// Package report implements persistence for the run Record.
//
// The FileRepository stores and loads the most recent run's outcome as
// YAML on disk and exposes a Repository interface that the orchestrator
// depends on.
package report
