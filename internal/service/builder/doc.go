// Package builder performs the isolated per-target compilation step.
//
// Each branch clones the tagged source into its own checkout and runs the
// target's pinned toolchain over it: a containerized cross toolchain for
// the posix/musl and darwin targets, the installed mingw cross linker for
// the windows target. The compiler itself is treated as an opaque step;
// the builder only guarantees isolation and the presence of the produced
// binary.
package builder
