// Package packager turns a raw branch binary into its distributable form.
//
// It renames the binary with the tag and triple, wraps it into the
// platform-conventional archive (tar+gzip for posix/musl, zip at maximum
// compression for windows and darwin), computes the SHA-256 of the final
// archive, and writes the checksum sidecar in the target's format.
package packager
