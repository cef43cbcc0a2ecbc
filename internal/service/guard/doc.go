// Package guard prevents two pipeline runs from sharing a working
// directory.
//
// A marker file records the owning pid; markers whose owner is gone or
// whose age exceeds the lifetime are cleaned up automatically.
package guard
