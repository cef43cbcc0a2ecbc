package guard

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/go-ps"

	"github.com/replibyte/releaser/internal/logger"
)

// MarkerFilename marks that a pipeline run is in progress to avoid
// parallel runs publishing into the same release.
const MarkerFilename = "releaser-run-marker.bin"

// markerLifetime is the period after which a marker without a live owner
// process is considered stale.
const markerLifetime = 2 * time.Hour

// ErrRunInProgress indicates another pipeline run owns the working directory.
var ErrRunInProgress = errors.New("another release run is in progress")

// Acquire writes the run marker, refusing when a live run already holds it.
// The returned release function removes the marker; call it on exit.
func Acquire(ctx context.Context, workDir string) (func(), error) {
	path := filepath.Join(workDir, MarkerFilename)

	if inProgress(ctx, path) {
		return nil, ErrRunInProgress
	}

	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}

	// The marker records the owning pid so stale markers can be detected.
	contents := strconv.Itoa(os.Getpid())
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		return nil, fmt.Errorf("write run marker: %w", err)
	}

	release := func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.Warnf(ctx, "Unable to remove run marker: %v", err)
		}
	}

	return release, nil
}

// inProgress checks the marker file and verifies its owning process is alive.
func inProgress(ctx context.Context, path string) bool {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return false
	}

	if err != nil {
		logger.Infof(ctx, "Unable to read run marker: %v", err)
		return false
	}

	if time.Since(info.ModTime()) > markerLifetime {
		logger.Info(ctx, "Run marker is stale, removing it")
		return removeFailed(ctx, path)
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return true
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(contents)))
	if err != nil {
		// Unreadable marker within its lifetime: assume a run is active.
		return true
	}

	if pid == os.Getpid() {
		return false
	}

	if processAlive(pid) {
		return true
	}

	logger.InfoKV(ctx, "Run marker owner is gone, removing marker", "pid", pid)

	return removeFailed(ctx, path)
}

// removeFailed removes the marker and reports whether removal failed,
// in which case the run is treated as still in progress.
func removeFailed(ctx context.Context, path string) bool {
	if err := os.Remove(path); err != nil {
		logger.Warnf(ctx, "Unable to remove run marker: %v", err)
		return true
	}

	return false
}

// processAlive reports whether a process with the pid currently exists.
func processAlive(pid int) bool {
	process, err := ps.FindProcess(pid)
	if err != nil {
		// Scanning failed; err on the safe side.
		return true
	}

	return process != nil
}
