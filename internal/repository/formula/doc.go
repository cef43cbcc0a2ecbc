// Package formula implements access to the downstream package-manager tap.
//
// The GitHubTapRepository rewrites the formula's version pins on a fresh
// branch and opens a pull request, and can detect an already-open update
// request so the bump trigger can soft-skip instead of duplicating work.
package formula
