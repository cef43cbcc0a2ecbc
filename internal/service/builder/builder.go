package builder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/replibyte/releaser/internal/domain/release"
	"github.com/replibyte/releaser/internal/logger"
)

// ErrBuildFailed indicates the branch's compilation step failed.
// Build failures are fatal to their branch only and are never retried.
var ErrBuildFailed = errors.New("build failed")

// CommandRunner abstracts toolchain process execution so tests can
// substitute the compiler with a fake.
type CommandRunner interface {
	// Run executes name with args in dir, with extra env appended to the
	// parent environment, and fails on non-zero exit.
	Run(ctx context.Context, dir, name string, args []string, env []string) error
}

// Options configures a Builder.
type Options struct {
	// SourceRepo is the repository holding the tagged tool source ("owner/name").
	SourceRepo string
	// BinaryName is the executable the build is expected to produce.
	BinaryName string
	// WorkDir is the root under which each branch gets its own checkout.
	WorkDir string
	// Timeout bounds a single toolchain invocation.
	Timeout time.Duration
	// Runner executes toolchain commands; defaults to real processes.
	Runner CommandRunner
}

// Builder performs isolated per-target compilations of the tagged source.
type Builder struct {
	opts   Options
	runner CommandRunner
}

// New creates a Builder.
func New(opts Options) *Builder {
	runner := opts.Runner
	if runner == nil {
		runner = execRunner{}
	}

	return &Builder{
		opts:   opts,
		runner: runner,
	}
}

// Build compiles the tagged source for one target inside its pinned
// toolchain and returns the path of the produced raw binary. Each branch
// owns its checkout directory, so concurrent builds never share state.
func (b *Builder) Build(ctx context.Context, e *release.Event, target release.Target) (string, error) {
	checkout := filepath.Join(b.opts.WorkDir, target.Name, "src")

	if err := b.checkoutSource(ctx, e, checkout); err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrBuildFailed, target.Name, err)
	}

	logger.InfoKV(ctx, "Compiling", "triple", target.Triple, "tag", e.TagName)

	if err := b.compile(ctx, checkout, target); err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrBuildFailed, target.Name, err)
	}

	binary := filepath.Join(checkout, "target", target.Triple, "release",
		binaryFile(b.opts.BinaryName, target))

	if _, err := os.Stat(binary); err != nil {
		return "", fmt.Errorf("%w: %s: binary missing after build: %w", ErrBuildFailed, target.Name, err)
	}

	return binary, nil
}

// checkoutSource clones the tagged source into a fresh private checkout.
func (b *Builder) checkoutSource(ctx context.Context, e *release.Event, checkout string) error {
	// Stale checkouts from an earlier run would poison the build.
	if err := os.RemoveAll(checkout); err != nil {
		return fmt.Errorf("clean checkout: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(checkout), 0o755); err != nil {
		return fmt.Errorf("create branch dir: %w", err)
	}

	cloneURL := fmt.Sprintf("https://github.com/%s.git", b.opts.SourceRepo)

	args := []string{"clone", "--depth", "1", "--branch", e.TagName, cloneURL, checkout}

	if err := b.run(ctx, filepath.Dir(checkout), "git", args, nil); err != nil {
		return fmt.Errorf("clone %s at %s: %w", b.opts.SourceRepo, e.TagName, err)
	}

	return nil
}

// compile runs the target's pinned toolchain over the checkout.
func (b *Builder) compile(ctx context.Context, checkout string, target release.Target) error {
	cargoArgs := []string{"build", "--release", "--target", target.Triple}

	switch target.Toolchain.Kind {
	case release.ToolchainContainer:
		absCheckout, err := filepath.Abs(checkout)
		if err != nil {
			return fmt.Errorf("resolve checkout path: %w", err)
		}

		args := []string{
			"run", "--rm",
			"-v", absCheckout + ":/work",
			"-w", "/work",
			target.Toolchain.Image,
			"cargo",
		}
		args = append(args, cargoArgs...)

		return b.run(ctx, checkout, "docker", args, nil)

	case release.ToolchainCrossLinker:
		env := []string{linkerEnv(target.Triple) + "=" + target.Toolchain.Linker}

		return b.run(ctx, checkout, "cargo", cargoArgs, env)

	default:
		return fmt.Errorf("unknown toolchain kind %d", target.Toolchain.Kind)
	}
}

// run executes one toolchain command under the configured timeout.
func (b *Builder) run(ctx context.Context, dir, name string, args, env []string) error {
	if b.opts.Timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, b.opts.Timeout)
		defer cancel()
	}

	logger.DebugKV(ctx, "Running toolchain command", "command", name, "args", strings.Join(args, " "))

	return b.runner.Run(ctx, dir, name, args, env)
}

// binaryFile returns the raw binary filename the toolchain produces.
func binaryFile(name string, target release.Target) string {
	if target.Windows() {
		return name + ".exe"
	}

	return name
}

// linkerEnv builds the cargo linker variable name for a triple.
func linkerEnv(triple string) string {
	return "CARGO_TARGET_" + strings.ToUpper(strings.ReplaceAll(triple, "-", "_")) + "_LINKER"
}
