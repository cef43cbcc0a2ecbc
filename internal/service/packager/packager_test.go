package packager

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/replibyte/releaser/internal/domain/release"
)

func writeRawBinary(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "replibyte")
	require.NoError(t, os.WriteFile(path, []byte("#!ELF fake binary contents"), 0o755))

	return path
}

func testEvent() *release.Event {
	return &release.Event{
		TagName:        "v1.2.3",
		CommitRevision: "9fceb02",
	}
}

// TestPackageLinuxMusl produces the documented tar.gz with a bare-digest sidecar.
func TestPackageLinuxMusl(t *testing.T) {
	t.Parallel()

	target, ok := release.TargetByName(release.TargetLinuxMusl)
	require.True(t, ok)

	outDir := t.TempDir()
	p := New(Options{
		BinaryName: "replibyte",
		OutputDir:  outDir,
	})

	artifact, err := p.Package(context.Background(), writeRawBinary(t), testEvent(), target)
	require.NoError(t, err)
	require.Equal(t, "replibyte_v1.2.3_x86_64-unknown-linux-musl.tar.gz", artifact.ArchiveName())

	// Sidecar holds exactly the 64-character hex digest, no filename.
	sidecar, err := os.ReadFile(SidecarPath(artifact))
	require.NoError(t, err)
	require.Regexp(t, regexp.MustCompile(`^[0-9a-f]{64}$`), string(sidecar))
	require.Equal(t, artifact.Checksum.Digest, string(sidecar))

	// Round trip: recomputing the digest over the archive matches the sidecar.
	archiveBytes, err := os.ReadFile(artifact.ArchivePath)
	require.NoError(t, err)

	sum := sha256.Sum256(archiveBytes)
	require.Equal(t, hex.EncodeToString(sum[:]), artifact.Checksum.Digest)

	// The archive holds the renamed binary with its contents intact.
	file, err := os.Open(artifact.ArchivePath)
	require.NoError(t, err)

	defer file.Close()

	gzipReader, err := gzip.NewReader(file)
	require.NoError(t, err)

	tarReader := tar.NewReader(gzipReader)

	header, err := tarReader.Next()
	require.NoError(t, err)
	require.Equal(t, "replibyte_v1.2.3_x86_64-unknown-linux-musl", header.Name)

	contents, err := io.ReadAll(tarReader)
	require.NoError(t, err)
	require.Equal(t, "#!ELF fake binary contents", string(contents))
}

// TestPackageMacOS produces the documented zip with the named sidecar format.
func TestPackageMacOS(t *testing.T) {
	t.Parallel()

	target, ok := release.TargetByName(release.TargetMacOS)
	require.True(t, ok)

	p := New(Options{
		BinaryName: "replibyte",
		OutputDir:  t.TempDir(),
	})

	artifact, err := p.Package(context.Background(), writeRawBinary(t), testEvent(), target)
	require.NoError(t, err)
	require.Equal(t, "replibyte_v1.2.3_x86_64-apple-darwin.zip", artifact.ArchiveName())

	// The darwin sidecar carries "<digest> <archive name>".
	sidecar, err := os.ReadFile(SidecarPath(artifact))
	require.NoError(t, err)
	require.Equal(t,
		artifact.Checksum.Digest+" replibyte_v1.2.3_x86_64-apple-darwin.zip",
		string(sidecar))

	// The zip entry is the renamed binary without .exe.
	reader, err := zip.OpenReader(artifact.ArchivePath)
	require.NoError(t, err)

	defer reader.Close()

	require.Len(t, reader.File, 1)
	require.Equal(t, "replibyte_v1.2.3_x86_64-apple-darwin", reader.File[0].Name)
}

// TestPackageWindows keeps the .exe suffix inside the zip and a bare sidecar.
func TestPackageWindows(t *testing.T) {
	t.Parallel()

	target, ok := release.TargetByName(release.TargetWindowsGnu)
	require.True(t, ok)

	p := New(Options{
		BinaryName: "replibyte",
		OutputDir:  t.TempDir(),
	})

	artifact, err := p.Package(context.Background(), writeRawBinary(t), testEvent(), target)
	require.NoError(t, err)
	require.Equal(t, "replibyte_v1.2.3_x86_64-pc-windows-gnu.zip", artifact.ArchiveName())

	sidecar, err := os.ReadFile(SidecarPath(artifact))
	require.NoError(t, err)
	require.False(t, strings.Contains(string(sidecar), " "))

	reader, err := zip.OpenReader(artifact.ArchivePath)
	require.NoError(t, err)

	defer reader.Close()

	require.Len(t, reader.File, 1)
	require.Equal(t, "replibyte_v1.2.3_x86_64-pc-windows-gnu.exe", reader.File[0].Name)
}

// TestPackageMissingBinaryFails wraps failures in the packaging sentinel.
func TestPackageMissingBinaryFails(t *testing.T) {
	t.Parallel()

	target, _ := release.TargetByName(release.TargetLinuxMusl)

	p := New(Options{
		BinaryName: "replibyte",
		OutputDir:  t.TempDir(),
	})

	_, err := p.Package(context.Background(), "/does/not/exist", testEvent(), target)
	require.ErrorIs(t, err, ErrPackagingFailed)
}
