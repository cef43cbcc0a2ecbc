package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/replibyte/releaser/internal/config"
	domain "github.com/replibyte/releaser/internal/domain/release"
	"github.com/replibyte/releaser/internal/event"
	"github.com/replibyte/releaser/internal/logger"
	formularepo "github.com/replibyte/releaser/internal/repository/formula"
	releaserepo "github.com/replibyte/releaser/internal/repository/release"
	reportrepo "github.com/replibyte/releaser/internal/repository/report"
	"github.com/replibyte/releaser/internal/service/builder"
	"github.com/replibyte/releaser/internal/service/bumper"
	"github.com/replibyte/releaser/internal/service/common"
	"github.com/replibyte/releaser/internal/service/guard"
	"github.com/replibyte/releaser/internal/service/packager"
	"github.com/replibyte/releaser/internal/service/publisher"
)

var (
	// errRunFailed is returned when at least one pipeline step ended in failure.
	errRunFailed = errors.New("release run failed")
	// errUnknownTarget is returned for a target name outside the build matrix.
	errUnknownTarget = errors.New("unknown build target")
)

// Options configures a pipeline run started from the command line.
type Options struct {
	// ConfigPath locates the pipeline settings file.
	ConfigPath string
	// EventName is the trigger event kind, normally "release".
	EventName string
	// EventPath locates the JSON payload describing the trigger.
	EventPath string
	// Force passes through to the formula bump trigger.
	Force bool
}

// Run executes the full release pipeline: parse the trigger, fan out
// the three build branches, and bump the formula once the darwin branch
// has published.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "release-runner")

	pipeline, e, cfg, cleanup, err := setup(ctx, opts, "")
	if err != nil {
		return err
	}
	defer cleanup()

	report := pipeline.Run(ctx, e, domain.Targets())

	summarize(ctx, report)
	saveRecord(ctx, cfg, e, report)

	if !report.Succeeded() {
		return fmt.Errorf("%w: %s", errRunFailed, failureList(report))
	}

	return nil
}

// BranchOptions configures a single-branch run.
type BranchOptions struct {
	// ConfigPath locates the pipeline settings file.
	ConfigPath string
	// EventName is the trigger event kind, normally "release".
	EventName string
	// EventPath locates the JSON payload describing the trigger.
	EventPath string
	// TargetName selects the branch to run.
	TargetName string
}

// RunBranch executes exactly one build branch. It never triggers the
// formula bump, so a lone darwin branch still needs the full runner (or
// the bump binary) to reach the tap.
func RunBranch(ctx context.Context, opts *BranchOptions) error {
	ctx = logger.WithName(ctx, "release-branch")

	target, ok := domain.TargetByName(opts.TargetName)
	if !ok {
		return fmt.Errorf("%w: %q", errUnknownTarget, opts.TargetName)
	}

	pipeline, e, _, cleanup, err := setup(ctx, &Options{
		ConfigPath: opts.ConfigPath,
		EventName:  opts.EventName,
		EventPath:  opts.EventPath,
	}, target.Name)
	if err != nil {
		return err
	}
	defer cleanup()

	status := pipeline.RunBranch(ctx, e, target)
	if status.State == domain.StateFailed {
		return fmt.Errorf("%w: %s: %w", errRunFailed, target.Name, status.Err)
	}

	return nil
}

// setup loads configuration, parses the trigger event, takes the
// concurrent-run guard and wires the real pipeline dependencies.
// The returned cleanup releases the guard.
//
// guardScope narrows the guard to one branch directory so single-branch
// invocations for different targets may run side by side; the full
// runner guards the whole work directory.
func setup(ctx context.Context, opts *Options, guardScope string) (*Pipeline, *domain.Event, *config.Config, func(), error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	e, err := event.ParseFile(opts.EventName, opts.EventPath)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	guardDir := cfg.WorkDir
	if guardScope != "" {
		guardDir = filepath.Join(cfg.WorkDir, guardScope)
	}

	releaseGuard, err := guard.Acquire(ctx, guardDir)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	pipeline, err := buildPipeline(ctx, cfg, opts.Force)
	if err != nil {
		releaseGuard()

		return nil, nil, nil, nil, err
	}

	return pipeline, e, cfg, releaseGuard, nil
}

// buildPipeline assembles the production pipeline from configuration
// and environment tokens.
func buildPipeline(ctx context.Context, cfg *config.Config, force bool) (*Pipeline, error) {
	token, err := common.TokenFromEnv(config.ReleaseTokenEnv)
	if err != nil {
		return nil, err
	}

	client, err := common.NewGitHubClient(ctx, token)
	if err != nil {
		return nil, err
	}

	owner, name, err := config.SplitRepo(cfg.SourceRepo)
	if err != nil {
		return nil, err
	}

	actor, err := common.DetectActor()
	if err != nil {
		return nil, err
	}

	build := builder.New(builder.Options{
		SourceRepo: cfg.SourceRepo,
		BinaryName: cfg.BinaryName,
		WorkDir:    cfg.WorkDir,
		Timeout:    cfg.CommandTimeout,
	})

	pack := packager.New(packager.Options{
		BinaryName: cfg.BinaryName,
		OutputDir:  filepath.Join(cfg.WorkDir, "dist"),
	})

	pub := publisher.New(releaserepo.NewGitHubRepository(client, owner, name))

	bump, err := buildBumper(ctx, cfg, force)
	if err != nil {
		return nil, err
	}

	return NewPipeline(build, pack, pub, bump, actor), nil
}

// buildBumper wires the formula bump trigger, or returns a nil trigger
// when no tap is configured.
func buildBumper(ctx context.Context, cfg *config.Config, force bool) (BumpTrigger, error) {
	if cfg.Tap == "" {
		return nil, nil
	}

	tapToken, err := common.TokenFromEnv(config.TapTokenEnv)
	if err != nil {
		return nil, err
	}

	tapClient, err := common.NewGitHubClient(ctx, tapToken)
	if err != nil {
		return nil, err
	}

	tapOwner, tapName, err := config.SplitRepo(cfg.Tap)
	if err != nil {
		return nil, err
	}

	tap := formularepo.NewGitHubTapRepository(tapClient, tapOwner, tapName)

	return bumper.New(tap, bumper.Options{
		Tap:     cfg.Tap,
		Formula: cfg.FormulaName,
		Force:   force,
	}), nil
}

// summarize logs every branch's terminal state and the bump outcome.
func summarize(ctx context.Context, report *Report) {
	for i := range report.Branches {
		branch := &report.Branches[i]

		if branch.State == domain.StateFailed {
			logger.WarnKV(ctx, "Branch summary",
				"target", branch.Target.Name,
				"state", branch.State.String(),
				"error", branch.Err)

			continue
		}

		logger.InfoKV(ctx, "Branch summary",
			"target", branch.Target.Name,
			"state", branch.State.String())
	}

	switch {
	case report.BumpErr != nil:
	case report.Bump == nil:
	case report.Bump.Skipped:
		logger.InfoKV(ctx, "Formula bump skipped, equivalent request already open",
			"request", report.Bump.RequestURL)
	default:
		logger.InfoKV(ctx, "Formula bump requested", "request", report.Bump.RequestURL)
	}
}

// saveRecord persists the run outcome next to the work tree. A record
// write failure is worth a warning, never a failed run.
func saveRecord(ctx context.Context, cfg *config.Config, e *domain.Event, runReport *Report) {
	record := &reportrepo.Record{
		Tag:        e.TagName,
		Revision:   e.CommitRevision,
		FinishedAt: time.Now().UTC(),
		Branches:   reportrepo.FromBranches(runReport.Branches),
	}

	if runReport.Bump != nil {
		record.BumpRequestURL = runReport.Bump.RequestURL
		record.BumpSkipped = runReport.Bump.Skipped
	}

	if runReport.BumpErr != nil {
		record.BumpError = runReport.BumpErr.Error()
	}

	repo := reportrepo.NewFileRepository(filepath.Join(cfg.WorkDir, reportrepo.RecordFilename))
	if err := repo.Save(ctx, record); err != nil {
		logger.WarnKV(ctx, "Failed to persist run record", "error", err)
	}
}

// failureList renders the failed steps for the run-level error message.
func failureList(report *Report) string {
	var parts []string

	for i := range report.Branches {
		if report.Branches[i].State == domain.StateFailed {
			parts = append(parts, report.Branches[i].Target.Name)
		}
	}

	if report.BumpErr != nil {
		parts = append(parts, "formula bump")
	}

	return strings.Join(parts, ", ")
}
