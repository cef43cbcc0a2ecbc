// Package event parses the release-published trigger that starts a
// pipeline run.
//
// It accepts the hosting service's delivery shape (an event name plus a
// JSON payload) and extracts the tag and commit revision into the
// immutable domain Event. Unrecognized events are a fatal no-op for the
// whole run.
package event
