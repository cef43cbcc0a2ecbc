package bumper

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/replibyte/releaser/internal/domain/release"
	"github.com/replibyte/releaser/internal/logger"
	"github.com/replibyte/releaser/internal/repository/formula"
)

// ErrBumpFailed indicates the formula update request could not be issued.
// It is surfaced to the operator; there is no retry.
var ErrBumpFailed = errors.New("formula bump failed")

// Options configures a Bumper.
type Options struct {
	// Tap is the external formula repository in "owner/name" form.
	Tap string
	// Formula is the formula file name without extension.
	Formula string
	// Force submits a new request even when an equivalent one is open.
	Force bool
}

// Result reports what the bump trigger did.
type Result struct {
	// Skipped is true when an equivalent open request already existed and
	// Force was off. A skip is not an error.
	Skipped bool
	// RequestURL points at the open update request: the existing one when
	// Skipped, otherwise the freshly created one.
	RequestURL string
}

// Bumper submits version-bump requests to the downstream tap.
type Bumper struct {
	tap  formula.Repository
	opts Options
}

// New creates a Bumper backed by the given tap repository.
func New(tap formula.Repository, opts Options) *Bumper {
	return &Bumper{
		tap:  tap,
		opts: opts,
	}
}

// Trigger issues the formula update request for the run's version.
// Callers gate it on the macos branch reaching its successful terminal
// state; the request always carries the run's original tag and revision.
func (b *Bumper) Trigger(ctx context.Context, e *domain.Event, actor *domain.Actor) (*Result, error) {
	if !b.opts.Force {
		existing, found, err := b.tap.FindOpenUpdateRequest(ctx, b.opts.Formula, e.TagName)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBumpFailed, err)
		}

		if found {
			logger.InfoKV(ctx, "Update request already open, skipping",
				"formula", b.opts.Formula, "tag", e.TagName, "request", existing)

			return &Result{
				Skipped:    true,
				RequestURL: existing,
			}, nil
		}
	}

	req := &domain.FormulaUpdateRequest{
		Tap:      b.opts.Tap,
		Formula:  b.opts.Formula,
		Tag:      e.TagName,
		Revision: e.CommitRevision,
		Force:    b.opts.Force,
	}

	created, err := b.tap.Propose(ctx, req, actor)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBumpFailed, err)
	}

	logger.InfoKV(ctx, "Opened formula update request",
		"formula", b.opts.Formula, "tag", e.TagName, "request", created)

	return &Result{RequestURL: created}, nil
}
