package packager

import (
	"archive/tar"
	"archive/zip"
	"compress/flate"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/replibyte/releaser/internal/domain/release"
	"github.com/replibyte/releaser/internal/logger"
)

// ErrPackagingFailed indicates a branch's packaging step failed.
// Packaging failures are fatal to their branch only and are never retried.
var ErrPackagingFailed = errors.New("packaging failed")

// artifactFileMode is used for produced archives and sidecars.
const artifactFileMode os.FileMode = 0o644

// Options configures a Packager.
type Options struct {
	// BinaryName is the base executable name baked into artifact names.
	BinaryName string
	// OutputDir is where archives and sidecars are written.
	OutputDir string
}

// Packager turns a raw branch binary into the distributable artifact:
// renamed binary, platform-conventional archive, digest and sidecar.
type Packager struct {
	opts Options
}

// New creates a Packager.
func New(opts Options) *Packager {
	return &Packager{opts: opts}
}

// Package produces the artifact for one branch. Step order matters for
// naming correctness: the binary is renamed before compression, and the
// digest covers the final compressed archive, not the raw binary.
func (p *Packager) Package(
	ctx context.Context,
	rawBinary string,
	e *release.Event,
	target release.Target,
) (*release.Artifact, error) {
	artifact, err := p.build(ctx, rawBinary, e, target)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrPackagingFailed, target.Name, err)
	}

	return artifact, nil
}

// build runs the packaging steps without the sentinel wrapping.
func (p *Packager) build(
	ctx context.Context,
	rawBinary string,
	e *release.Event,
	target release.Target,
) (*release.Artifact, error) {
	if err := os.MkdirAll(p.opts.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	binaryName := release.BinaryFileName(p.opts.BinaryName, e.TagName, target)
	renamed := filepath.Join(p.opts.OutputDir, binaryName)

	if err := copyFile(rawBinary, renamed, 0o755); err != nil {
		return nil, fmt.Errorf("rename binary: %w", err)
	}

	archiveName := release.ArchiveFileName(p.opts.BinaryName, e.TagName, target)
	archivePath := filepath.Join(p.opts.OutputDir, archiveName)

	if err := compress(renamed, archivePath, target.Format); err != nil {
		return nil, fmt.Errorf("compress %s: %w", binaryName, err)
	}

	checksum, err := digest(archivePath)
	if err != nil {
		return nil, fmt.Errorf("digest %s: %w", archiveName, err)
	}

	sidecar := filepath.Join(p.opts.OutputDir, release.SidecarFileName(archiveName))
	body := checksum.Render(target.ChecksumStyle(), archiveName)

	if err := os.WriteFile(sidecar, []byte(body), artifactFileMode); err != nil {
		return nil, fmt.Errorf("write sidecar: %w", err)
	}

	logger.InfoKV(ctx, "Packaged artifact",
		"archive", archiveName, "format", target.Format, "digest", checksum.Digest)

	return &release.Artifact{
		BinaryName:  p.opts.BinaryName,
		Version:     e.TagName,
		Triple:      target.Triple,
		ArchivePath: archivePath,
		Checksum:    checksum,
	}, nil
}

// SidecarPath returns the checksum sidecar location for an artifact.
func SidecarPath(artifact *release.Artifact) string {
	return filepath.Join(filepath.Dir(artifact.ArchivePath),
		release.SidecarFileName(artifact.ArchiveName()))
}

// compress wraps the renamed binary into the platform-conventional archive.
func compress(binaryPath, archivePath string, format release.ArchiveFormat) error {
	if format == release.Zip {
		return zipCompress(binaryPath, archivePath)
	}

	return tarGzCompress(binaryPath, archivePath)
}

// tarGzCompress writes a single-file tar wrapped in gzip.
func tarGzCompress(binaryPath, archivePath string) error {
	info, err := os.Stat(binaryPath)
	if err != nil {
		return fmt.Errorf("stat binary: %w", err)
	}

	out, err := os.OpenFile(filepath.Clean(archivePath), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, artifactFileMode)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}

	gzipWriter := gzip.NewWriter(out)
	tarWriter := tar.NewWriter(gzipWriter)

	header := &tar.Header{
		Name:    filepath.Base(binaryPath),
		Mode:    0o755,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}

	if err = tarWriter.WriteHeader(header); err != nil {
		closeAll(tarWriter, gzipWriter, out)
		return fmt.Errorf("write tar header: %w", err)
	}

	if err = streamFile(binaryPath, tarWriter); err != nil {
		closeAll(tarWriter, gzipWriter, out)
		return err
	}

	// Close order matters: tar flushes into gzip, gzip into the file.
	if err = tarWriter.Close(); err != nil {
		closeAll(gzipWriter, out)
		return fmt.Errorf("close tar writer: %w", err)
	}

	if err = gzipWriter.Close(); err != nil {
		closeAll(out)
		return fmt.Errorf("close gzip writer: %w", err)
	}

	if err = out.Close(); err != nil {
		return fmt.Errorf("close archive: %w", err)
	}

	return nil
}

// zipCompress writes a single-file zip at maximum compression.
func zipCompress(binaryPath, archivePath string) error {
	out, err := os.OpenFile(filepath.Clean(archivePath), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, artifactFileMode)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}

	zipWriter := zip.NewWriter(out)
	zipWriter.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, flate.BestCompression)
	})

	entry, err := zipWriter.Create(filepath.Base(binaryPath))
	if err != nil {
		closeAll(zipWriter, out)
		return fmt.Errorf("create zip entry: %w", err)
	}

	if err = streamFile(binaryPath, entry); err != nil {
		closeAll(zipWriter, out)
		return err
	}

	if err = zipWriter.Close(); err != nil {
		closeAll(out)
		return fmt.Errorf("close zip writer: %w", err)
	}

	if err = out.Close(); err != nil {
		return fmt.Errorf("close archive: %w", err)
	}

	return nil
}

// digest computes the SHA-256 of the final compressed archive.
func digest(archivePath string) (release.Checksum, error) {
	file, err := os.Open(filepath.Clean(archivePath))
	if err != nil {
		return release.Checksum{}, fmt.Errorf("open archive: %w", err)
	}

	defer func() {
		_ = file.Close()
	}()

	hasher := sha256.New()
	if _, err = io.Copy(hasher, file); err != nil {
		return release.Checksum{}, fmt.Errorf("hash archive: %w", err)
	}

	return release.NewChecksum(hasher.Sum(nil)), nil
}

// streamFile copies a file's contents into the archive writer.
func streamFile(path string, w io.Writer) error {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("open binary: %w", err)
	}

	defer func() {
		_ = file.Close()
	}()

	if _, err = io.Copy(w, file); err != nil {
		return fmt.Errorf("write archive entry: %w", err)
	}

	return nil
}

// copyFile duplicates src to dst with the given mode.
func copyFile(src, dst string, mode os.FileMode) error {
	in, err := os.Open(filepath.Clean(src))
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}

	defer func() {
		_ = in.Close()
	}()

	out, err := os.OpenFile(filepath.Clean(dst), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("create destination: %w", err)
	}

	if _, err = io.Copy(out, in); err != nil {
		closeAll(out)
		return fmt.Errorf("copy binary: %w", err)
	}

	if err = out.Close(); err != nil {
		return fmt.Errorf("close destination: %w", err)
	}

	return nil
}

// closeAll closes writers best-effort during error cleanup.
func closeAll(closers ...io.Closer) {
	for _, c := range closers {
		_ = c.Close()
	}
}
