package release

import (
	"encoding/hex"
	"fmt"
	"path/filepath"
)

// BinaryName is the base name of the distributed executable.
const BinaryName = "replibyte"

// Event is the immutable trigger context for a single release run.
// It is created once when the trigger payload is parsed and passed
// explicitly into every branch; branches never re-read ambient state.
type Event struct {
	// TagName identifies the version being released (e.g. "v1.2.3").
	TagName string
	// CommitRevision is the commit the tag points at.
	CommitRevision string
}

// Clone returns a copy of the event so callers cannot mutate shared state.
func (e *Event) Clone() *Event {
	if e == nil {
		return nil
	}

	cloned := *e

	return &cloned
}

// ArchiveFormat selects the platform-conventional archive container.
type ArchiveFormat int

const (
	// TarGz packages the binary as tar wrapped in gzip.
	TarGz ArchiveFormat = iota
	// Zip packages the binary as a zip archive at maximum compression.
	Zip
)

// Ext returns the filename extension for the format, including the dot.
func (f ArchiveFormat) Ext() string {
	if f == Zip {
		return ".zip"
	}

	return ".tar.gz"
}

// String returns a human-readable format name for logs.
func (f ArchiveFormat) String() string {
	if f == Zip {
		return "zip"
	}

	return "tar.gz"
}

// ChecksumStyle selects how a checksum sidecar is rendered for a target.
type ChecksumStyle int

const (
	// ChecksumBare writes only the lowercase hex digest.
	ChecksumBare ChecksumStyle = iota
	// ChecksumNamed writes "<digest> <archive name>".
	ChecksumNamed
)

// ToolchainKind describes how a target's pinned toolchain is provided.
type ToolchainKind int

const (
	// ToolchainContainer runs the compiler inside a pinned container image.
	ToolchainContainer ToolchainKind = iota
	// ToolchainCrossLinker runs the host compiler with an installed cross linker.
	ToolchainCrossLinker
)

// ToolchainSpec pins the isolated build environment for one target.
type ToolchainSpec struct {
	// Kind selects container or cross-linker execution.
	Kind ToolchainKind
	// Image is the container image for ToolchainContainer targets.
	Image string
	// Linker is the cross linker binary for ToolchainCrossLinker targets.
	Linker string
}

// Target is one of the three fixed build targets of the pipeline.
type Target struct {
	// Name is the short branch name (linux-musl, windows-gnu, macos).
	Name string
	// Triple is the full architecture triple used in artifact names.
	Triple string
	// Toolchain pins the isolated build environment.
	Toolchain ToolchainSpec
	// Format is the platform-conventional archive container.
	Format ArchiveFormat
	// style selects the sidecar rendering for this target.
	style ChecksumStyle
}

// ChecksumStyle returns the sidecar rendering policy for the target.
func (t Target) ChecksumStyle() ChecksumStyle {
	return t.style
}

// Windows reports whether the target produces a Windows executable.
func (t Target) Windows() bool {
	return t.Triple == windowsTriple
}

// Fixed target identities. The set never changes at runtime; each release
// run produces exactly one artifact per entry.
const (
	TargetLinuxMusl  = "linux-musl"
	TargetWindowsGnu = "windows-gnu"
	TargetMacOS      = "macos"

	windowsTriple = "x86_64-pc-windows-gnu"
)

// targets is the fixed build matrix. Toolchain pins are part of the matrix:
// posix/musl and darwin builds run inside containerized cross toolchains,
// the windows build uses the installed mingw cross linker.
var targets = [3]Target{
	{
		Name:   TargetLinuxMusl,
		Triple: "x86_64-unknown-linux-musl",
		Toolchain: ToolchainSpec{
			Kind:  ToolchainContainer,
			Image: "clux/muslrust:1.74.0-stable",
		},
		Format: TarGz,
		style:  ChecksumBare,
	},
	{
		Name:   TargetWindowsGnu,
		Triple: windowsTriple,
		Toolchain: ToolchainSpec{
			Kind:   ToolchainCrossLinker,
			Linker: "x86_64-w64-mingw32-gcc",
		},
		Format: Zip,
		style:  ChecksumBare,
	},
	{
		Name:   TargetMacOS,
		Triple: "x86_64-apple-darwin",
		Toolchain: ToolchainSpec{
			Kind:  ToolchainContainer,
			Image: "joseluisq/rust-linux-darwin-builder:1.74.0",
		},
		Format: Zip,
		// The darwin sidecar historically carries the archive name next
		// to the digest while the other targets do not. The divergence is
		// preserved deliberately; downstream tooling parses it.
		style: ChecksumNamed,
	},
}

// Targets returns the fixed build matrix as a fresh slice.
func Targets() []Target {
	result := make([]Target, len(targets))
	copy(result, targets[:])

	return result
}

// TargetByName resolves a target by its short branch name.
func TargetByName(name string) (Target, bool) {
	for _, t := range targets {
		if t.Name == name {
			return t, true
		}
	}

	return Target{}, false
}

// BinaryFileName returns the renamed binary name for a target:
// <binary>_<tag>_<triple>, with ".exe" appended for the windows triple.
func BinaryFileName(binary, tag string, target Target) string {
	name := fmt.Sprintf("%s_%s_%s", binary, tag, target.Triple)
	if target.Windows() {
		name += ".exe"
	}

	return name
}

// ArchiveFileName returns the archive name for a target:
// <binary>_<tag>_<triple><format extension>.
func ArchiveFileName(binary, tag string, target Target) string {
	return fmt.Sprintf("%s_%s_%s%s", binary, tag, target.Triple, target.Format.Ext())
}

// SidecarFileName returns the checksum sidecar name for an archive.
func SidecarFileName(archiveName string) string {
	return archiveName + ".sha256sum"
}

// Checksum is the integrity digest of a final compressed archive.
// It is always computed over the archive, never the raw binary.
type Checksum struct {
	// Digest is the lowercase hex SHA-256 of the archive.
	Digest string
}

// NewChecksum wraps raw digest bytes into a Checksum value.
func NewChecksum(sum []byte) Checksum {
	return Checksum{Digest: hex.EncodeToString(sum)}
}

// Render produces the sidecar body for the given style.
func (c Checksum) Render(style ChecksumStyle, archiveName string) string {
	if style == ChecksumNamed {
		return c.Digest + " " + archiveName
	}

	return c.Digest
}

// Artifact is the packaged output of one branch: exactly one per target.
type Artifact struct {
	// BinaryName is the base executable name inside the archive.
	BinaryName string
	// Version is the release tag the artifact was built from.
	Version string
	// Triple is the architecture triple baked into the filename.
	Triple string
	// ArchivePath is the on-disk location of the compressed archive.
	ArchivePath string
	// Checksum is the digest of the compressed archive.
	Checksum Checksum
}

// ArchiveName returns the bare filename of the archive.
func (a *Artifact) ArchiveName() string {
	return filepath.Base(a.ArchivePath)
}

// Clone returns a copy of the artifact.
func (a *Artifact) Clone() *Artifact {
	if a == nil {
		return nil
	}

	cloned := *a

	return &cloned
}

// PublishedRelease tracks which asset names are attached to the release
// object. Attachment has set semantics: re-attaching a name replaces the
// previous asset instead of duplicating it.
type PublishedRelease struct {
	// ID is the release object identifier in the hosting service.
	ID int64
	// AssetNames are the names currently attached to the release.
	AssetNames []string
}

// FormulaUpdateRequest asks the downstream tap to pick up a new version.
// It is issued at most once per run, only after the macos branch has
// published, and always carries the run's original tag and revision.
type FormulaUpdateRequest struct {
	// Tap is the external formula repository in "owner/name" form.
	Tap string
	// Formula is the formula file name without extension.
	Formula string
	// Tag is the release tag, verbatim from the trigger event.
	Tag string
	// Revision is the commit revision, verbatim from the trigger event.
	Revision string
	// Force submits a new request even when an equivalent one is open.
	Force bool
}

// Actor identifies who ran the pipeline, recorded for audit in the
// formula update request body.
type Actor struct {
	// Hostname is the machine the run was started from.
	Hostname string
	// Username is the system user who started the run.
	Username string
}

// Clone returns a deep copy of the actor.
func (a *Actor) Clone() *Actor {
	if a == nil {
		return nil
	}

	cloned := *a

	return &cloned
}

// String renders the actor for request bodies and logs.
func (a *Actor) String() string {
	if a == nil {
		return "unknown"
	}

	return a.Username + "@" + a.Hostname
}
