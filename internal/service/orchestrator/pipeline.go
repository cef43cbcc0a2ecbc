package orchestrator

import (
	"context"
	"sync"

	domain "github.com/replibyte/releaser/internal/domain/release"
	"github.com/replibyte/releaser/internal/logger"
	"github.com/replibyte/releaser/internal/service/bumper"
)

// Builder compiles the tagged source for one target.
type Builder interface {
	Build(ctx context.Context, e *domain.Event, target domain.Target) (string, error)
}

// Packager turns a raw binary into the distributable artifact.
type Packager interface {
	Package(ctx context.Context, rawBinary string, e *domain.Event, target domain.Target) (*domain.Artifact, error)
}

// Publisher attaches an artifact to the tagged release.
type Publisher interface {
	Publish(ctx context.Context, e *domain.Event, artifact *domain.Artifact) error
}

// BumpTrigger issues the downstream formula update request.
type BumpTrigger interface {
	Trigger(ctx context.Context, e *domain.Event, actor *domain.Actor) (*bumper.Result, error)
}

// Pipeline coordinates the three build branches and the bump join.
type Pipeline struct {
	builder   Builder
	packager  Packager
	publisher Publisher
	// bumper may be nil when no tap is configured.
	bumper BumpTrigger
	actor  *domain.Actor
}

// NewPipeline wires the pipeline steps together.
func NewPipeline(b Builder, p Packager, pub Publisher, bump BumpTrigger, actor *domain.Actor) *Pipeline {
	return &Pipeline{
		builder:   b,
		packager:  p,
		publisher: pub,
		bumper:    bump,
		actor:     actor,
	}
}

// Report is the outcome of a full pipeline run.
type Report struct {
	// Branches holds one terminal status per target, in matrix order.
	Branches []domain.BranchStatus
	// Bump is the formula bump outcome, nil when the trigger never fired.
	Bump *bumper.Result
	// BumpErr is set when the trigger fired and failed.
	BumpErr error
}

// BranchFailed reports whether any branch ended in the failure state.
func (r *Report) BranchFailed() bool {
	for i := range r.Branches {
		if r.Branches[i].State == domain.StateFailed {
			return true
		}
	}

	return false
}

// Succeeded reports whether every branch and the bump step succeeded.
func (r *Report) Succeeded() bool {
	return !r.BranchFailed() && r.BumpErr == nil
}

// Run fans the branches out as independent parallel units of work and
// joins once on the darwin branch to feed the formula bump.
//
// Branches share no mutable state: each receives its own copy of the
// immutable event and owns its checkout and artifacts. A failing branch
// is reported but never aborts or blocks the others, and nothing is
// retried.
func (p *Pipeline) Run(ctx context.Context, e *domain.Event, targets []domain.Target) *Report {
	report := &Report{
		Branches: make([]domain.BranchStatus, len(targets)),
	}

	var wg sync.WaitGroup

	for i, target := range targets {
		wg.Add(1)

		go func(slot int, target domain.Target) {
			defer wg.Done()

			report.Branches[slot] = p.RunBranch(ctx, e.Clone(), target)
		}(i, target)
	}

	wg.Wait()

	darwin := report.branchFor(domain.TargetMacOS)
	if darwin == nil || !darwin.Succeeded() {
		logger.Info(ctx, "Darwin branch did not publish, formula bump not triggered")

		return report
	}

	if p.bumper == nil {
		logger.Info(ctx, "No tap configured, formula bump not triggered")

		return report
	}

	report.Bump, report.BumpErr = p.bumper.Trigger(ctx, e.Clone(), p.actor)
	if report.BumpErr != nil {
		logger.ErrorKV(ctx, "Formula bump failed", "error", report.BumpErr)
	}

	return report
}

// RunBranch executes one branch strictly sequentially: build, package,
// publish. Any step failure is terminal for the branch.
func (p *Pipeline) RunBranch(ctx context.Context, e *domain.Event, target domain.Target) domain.BranchStatus {
	ctx = logger.WithKV(ctx, "target", target.Name)

	status := domain.BranchStatus{
		Target: target,
		State:  domain.StateBuilding,
	}

	logger.InfoKV(ctx, "Branch started", "triple", target.Triple, "tag", e.TagName)

	rawBinary, err := p.builder.Build(ctx, e, target)
	if err != nil {
		return p.fail(ctx, status, err)
	}

	artifact, err := p.packager.Package(ctx, rawBinary, e, target)
	if err != nil {
		return p.fail(ctx, status, err)
	}

	status.State = domain.StatePackaged
	status.Artifact = artifact

	if err = p.publisher.Publish(ctx, e, artifact); err != nil {
		return p.fail(ctx, status, err)
	}

	status.State = domain.StatePublished

	logger.InfoKV(ctx, "Branch published", "archive", artifact.ArchiveName())

	status.State = domain.StateDone

	return status
}

// fail moves a branch into its terminal failure state.
func (p *Pipeline) fail(ctx context.Context, status domain.BranchStatus, err error) domain.BranchStatus {
	status.State = domain.StateFailed
	status.Err = err

	logger.ErrorKV(ctx, "Branch failed", "error", err)

	return status
}

// branchFor finds a branch status by target name.
func (r *Report) branchFor(name string) *domain.BranchStatus {
	for i := range r.Branches {
		if r.Branches[i].Target.Name == name {
			return &r.Branches[i]
		}
	}

	return nil
}
