package publisher

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/replibyte/releaser/internal/domain/release"
	"github.com/replibyte/releaser/internal/logger"
	repository "github.com/replibyte/releaser/internal/repository/release"
	"github.com/replibyte/releaser/internal/service/packager"
)

// ErrPublishFailed indicates a branch's publish step failed.
// Publish failures are fatal to their branch only and are never retried.
var ErrPublishFailed = errors.New("publish failed")

// Publisher attaches a branch's artifact and sidecar to the tagged release.
type Publisher struct {
	repo repository.Repository
}

// New creates a Publisher backed by the given release repository.
func New(repo repository.Repository) *Publisher {
	return &Publisher{repo: repo}
}

// Publish attaches the archive and its checksum sidecar to the release
// identified by the event's tag.
//
// Idempotency: existing assets with the same names are removed first, so
// a re-run replaces attachments instead of duplicating them. Atomicity:
// when the sidecar upload fails the freshly attached archive is removed
// again, so a failed branch leaves nothing behind.
func (p *Publisher) Publish(ctx context.Context, e *domain.Event, artifact *domain.Artifact) error {
	if err := p.publish(ctx, e, artifact); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrPublishFailed, artifact.ArchiveName(), err)
	}

	return nil
}

// publish runs the attachment sequence without the sentinel wrapping.
func (p *Publisher) publish(ctx context.Context, e *domain.Event, artifact *domain.Artifact) error {
	published, err := p.repo.FindByTag(ctx, e.TagName)
	if err != nil {
		return err
	}

	archiveName := artifact.ArchiveName()
	sidecarPath := packager.SidecarPath(artifact)
	sidecarName := domain.SidecarFileName(archiveName)

	if err = p.removeExisting(ctx, published.ID, archiveName, sidecarName); err != nil {
		return err
	}

	uploadedArchive, err := p.repo.UploadAsset(ctx, published.ID, artifact.ArchivePath)
	if err != nil {
		return err
	}

	if _, err = p.repo.UploadAsset(ctx, published.ID, sidecarPath); err != nil {
		// Leave no partial attachment behind.
		if cleanupErr := p.repo.DeleteAsset(ctx, uploadedArchive.ID); cleanupErr != nil {
			logger.WarnKV(ctx, "Unable to remove partially attached archive",
				"asset", uploadedArchive.Name, "error", cleanupErr)
		}

		return err
	}

	logger.InfoKV(ctx, "Attached artifact to release",
		"release_id", published.ID, "archive", archiveName, "sidecar", sidecarName)

	return nil
}

// removeExisting deletes previously attached assets carrying our names.
func (p *Publisher) removeExisting(ctx context.Context, releaseID int64, names ...string) error {
	assets, err := p.repo.ListAssets(ctx, releaseID)
	if err != nil {
		return err
	}

	wanted := make(map[string]struct{}, len(names))
	for _, name := range names {
		wanted[name] = struct{}{}
	}

	for _, asset := range assets {
		if _, ok := wanted[asset.Name]; !ok {
			continue
		}

		logger.InfoKV(ctx, "Replacing previously attached asset", "asset", asset.Name)

		if err = p.repo.DeleteAsset(ctx, asset.ID); err != nil {
			return err
		}
	}

	return nil
}
