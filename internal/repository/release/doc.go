// Package release implements access to the hosted release object.
//
// The GitHubRepository talks to the GitHub releases API and exposes a
// Repository interface that the publisher service depends on, so tests
// can substitute an in-memory implementation.
package release
