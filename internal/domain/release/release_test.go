package release

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestTargetsFixedMatrix verifies the build matrix holds exactly the three
// documented targets with distinct triples.
func TestTargetsFixedMatrix(t *testing.T) {
	t.Parallel()

	all := Targets()
	require.Len(t, all, 3)

	triples := make(map[string]struct{}, len(all))
	for _, target := range all {
		triples[target.Triple] = struct{}{}
	}

	require.Len(t, triples, 3)

	linux, ok := TargetByName(TargetLinuxMusl)
	require.True(t, ok)
	require.Equal(t, TarGz, linux.Format)
	require.Equal(t, ChecksumBare, linux.ChecksumStyle())
	require.Equal(t, ToolchainContainer, linux.Toolchain.Kind)

	windows, ok := TargetByName(TargetWindowsGnu)
	require.True(t, ok)
	require.True(t, windows.Windows())
	require.Equal(t, Zip, windows.Format)
	require.Equal(t, ToolchainCrossLinker, windows.Toolchain.Kind)

	macos, ok := TargetByName(TargetMacOS)
	require.True(t, ok)
	require.Equal(t, Zip, macos.Format)
	require.Equal(t, ChecksumNamed, macos.ChecksumStyle())

	_, ok = TargetByName("freebsd")
	require.False(t, ok)
}

// TestTargetsReturnsCopy ensures callers cannot mutate the fixed matrix.
func TestTargetsReturnsCopy(t *testing.T) {
	t.Parallel()

	all := Targets()
	all[0].Triple = "mutated"

	fresh := Targets()
	require.NotEqual(t, "mutated", fresh[0].Triple)
}

// TestArtifactNaming checks the deterministic filename functions for all
// three targets against the documented patterns.
func TestArtifactNaming(t *testing.T) {
	t.Parallel()

	linux, _ := TargetByName(TargetLinuxMusl)
	windows, _ := TargetByName(TargetWindowsGnu)
	macos, _ := TargetByName(TargetMacOS)

	require.Equal(t,
		"replibyte_v1.2.3_x86_64-unknown-linux-musl",
		BinaryFileName(BinaryName, "v1.2.3", linux))
	require.Equal(t,
		"replibyte_v1.2.3_x86_64-pc-windows-gnu.exe",
		BinaryFileName(BinaryName, "v1.2.3", windows))
	require.Equal(t,
		"replibyte_v1.2.3_x86_64-apple-darwin",
		BinaryFileName(BinaryName, "v1.2.3", macos))

	require.Equal(t,
		"replibyte_v1.2.3_x86_64-unknown-linux-musl.tar.gz",
		ArchiveFileName(BinaryName, "v1.2.3", linux))
	require.Equal(t,
		"replibyte_v1.2.3_x86_64-pc-windows-gnu.zip",
		ArchiveFileName(BinaryName, "v1.2.3", windows))
	require.Equal(t,
		"replibyte_v1.2.3_x86_64-apple-darwin.zip",
		ArchiveFileName(BinaryName, "v1.2.3", macos))

	require.Equal(t,
		"replibyte_v1.2.3_x86_64-apple-darwin.zip.sha256sum",
		SidecarFileName(ArchiveFileName(BinaryName, "v1.2.3", macos)))

	// Names must not collide across the matrix.
	names := make(map[string]struct{}, 3)
	for _, target := range Targets() {
		names[ArchiveFileName(BinaryName, "v1.2.3", target)] = struct{}{}
	}

	require.Len(t, names, 3)
}

// TestChecksumRender verifies both sidecar styles from a single value object.
func TestChecksumRender(t *testing.T) {
	t.Parallel()

	sum := sha256.Sum256([]byte("archive bytes"))
	checksum := NewChecksum(sum[:])

	require.Len(t, checksum.Digest, 64)
	require.Equal(t, checksum.Digest, checksum.Render(ChecksumBare, "ignored.tar.gz"))
	require.Equal(t,
		checksum.Digest+" replibyte_v1.2.3_x86_64-apple-darwin.zip",
		checksum.Render(ChecksumNamed, "replibyte_v1.2.3_x86_64-apple-darwin.zip"))
}

// TestEventClone verifies that Clone returns a copy and handles nil safely.
func TestEventClone(t *testing.T) {
	t.Parallel()
	require.Nil(t, (*Event)(nil).Clone())

	e := &Event{
		TagName:        "v1.2.3",
		CommitRevision: "0123abc",
	}

	c := e.Clone()

	require.Equal(t, e, c)
	require.NotSame(t, e, c)
}

// TestBranchStateStrings covers state names and terminal detection.
func TestBranchStateStrings(t *testing.T) {
	t.Parallel()

	require.Equal(t, "pending", StatePending.String())
	require.Equal(t, "building", StateBuilding.String())
	require.Equal(t, "packaged", StatePackaged.String())
	require.Equal(t, "published", StatePublished.String())
	require.Equal(t, "done", StateDone.String())
	require.Equal(t, "failed", StateFailed.String())

	require.True(t, StateDone.Terminal())
	require.True(t, StateFailed.Terminal())
	require.False(t, StateBuilding.Terminal())
}

// TestActorString renders the audit identity used in request bodies.
func TestActorString(t *testing.T) {
	t.Parallel()

	require.Equal(t, "unknown", (*Actor)(nil).String())

	a := &Actor{
		Hostname: "build-host",
		Username: "releaser",
	}

	require.Equal(t, "releaser@build-host", a.String())
	require.NotSame(t, a, a.Clone())
}
