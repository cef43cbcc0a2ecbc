package bumper

import (
	"context"
	"errors"

	"github.com/replibyte/releaser/internal/config"
	domain "github.com/replibyte/releaser/internal/domain/release"
	"github.com/replibyte/releaser/internal/logger"
	"github.com/replibyte/releaser/internal/repository/formula"
	"github.com/replibyte/releaser/internal/service/common"
)

// errTapRequired is returned when the configuration names no tap.
var errTapRequired = errors.New("formula tap is not configured")

// RunOptions configures a standalone bump started from the command line.
type RunOptions struct {
	// ConfigPath locates the pipeline settings file.
	ConfigPath string
	// Tag is the release version to pin the formula to.
	Tag string
	// Revision is the commit revision the tag points at.
	Revision string
	// Force submits a new request even when an equivalent one is open.
	Force bool
}

// Run triggers the formula bump outside a pipeline run, for reruns after
// a failed bump or for releases published before the tap existed.
func Run(ctx context.Context, opts *RunOptions) error {
	ctx = logger.WithName(ctx, "formula-bump")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}

	if cfg.Tap == "" {
		return errTapRequired
	}

	token, err := common.TokenFromEnv(config.TapTokenEnv)
	if err != nil {
		return err
	}

	client, err := common.NewGitHubClient(ctx, token)
	if err != nil {
		return err
	}

	owner, name, err := config.SplitRepo(cfg.Tap)
	if err != nil {
		return err
	}

	actor, err := common.DetectActor()
	if err != nil {
		return err
	}

	bumper := New(formula.NewGitHubTapRepository(client, owner, name), Options{
		Tap:     cfg.Tap,
		Formula: cfg.FormulaName,
		Force:   opts.Force,
	})

	e := &domain.Event{
		TagName:        opts.Tag,
		CommitRevision: opts.Revision,
	}

	result, err := bumper.Trigger(ctx, e, actor)
	if err != nil {
		return err
	}

	if result.Skipped {
		logger.InfoKV(ctx, "Update request already open", "request", result.RequestURL)

		return nil
	}

	logger.InfoKV(ctx, "Update request created", "request", result.RequestURL)

	return nil
}
