// Package config defines pipeline settings used by the releaser binaries
// and provides helpers to load, validate and save them in YAML format.
//
// The Config type holds the source repository, tap identity and working
// directory. Tokens are read from the environment only and never persisted.
package config
