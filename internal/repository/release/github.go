package release

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/go-github/v66/github"

	domain "github.com/replibyte/releaser/internal/domain/release"
)

// Asset is one file attached to a release object.
type Asset struct {
	// ID is the asset identifier in the hosting service.
	ID int64
	// Name is the attached filename.
	Name string
}

// Repository defines the operations the publisher needs against the
// release object. Implementations stay dumb; replace-not-duplicate
// semantics are enforced by the publisher service.
type Repository interface {
	FindByTag(ctx context.Context, tag string) (*domain.PublishedRelease, error)
	ListAssets(ctx context.Context, releaseID int64) ([]Asset, error)
	DeleteAsset(ctx context.Context, assetID int64) error
	UploadAsset(ctx context.Context, releaseID int64, path string) (*Asset, error)
}

// ErrNotFound is returned when no release object exists for the tag.
var ErrNotFound = errors.New("release not found")

// GitHubRepository implements Repository on the GitHub releases API.
type GitHubRepository struct {
	// client is the authenticated API client.
	client *github.Client
	// owner and repo identify the source repository.
	owner string
	repo  string
}

// NewGitHubRepository creates a repository bound to owner/repo.
func NewGitHubRepository(client *github.Client, owner, repo string) *GitHubRepository {
	return &GitHubRepository{
		client: client,
		owner:  owner,
		repo:   repo,
	}
}

// FindByTag resolves the release object created for the tag.
func (r *GitHubRepository) FindByTag(ctx context.Context, tag string) (*domain.PublishedRelease, error) {
	rel, resp, err := r.client.Repositories.GetReleaseByTag(ctx, r.owner, r.repo, tag)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: tag %q", ErrNotFound, tag)
		}

		return nil, fmt.Errorf("get release by tag %q: %w", tag, err)
	}

	result := &domain.PublishedRelease{
		ID:         rel.GetID(),
		AssetNames: make([]string, 0, len(rel.Assets)),
	}

	for _, asset := range rel.Assets {
		result.AssetNames = append(result.AssetNames, asset.GetName())
	}

	return result, nil
}

// ListAssets returns every asset currently attached to the release.
func (r *GitHubRepository) ListAssets(ctx context.Context, releaseID int64) ([]Asset, error) {
	var result []Asset

	opts := &github.ListOptions{PerPage: 100}

	for {
		assets, resp, err := r.client.Repositories.ListReleaseAssets(ctx, r.owner, r.repo, releaseID, opts)
		if err != nil {
			return nil, fmt.Errorf("list release assets: %w", err)
		}

		for _, asset := range assets {
			result = append(result, Asset{
				ID:   asset.GetID(),
				Name: asset.GetName(),
			})
		}

		if resp.NextPage == 0 {
			break
		}

		opts.Page = resp.NextPage
	}

	return result, nil
}

// DeleteAsset removes one attached asset.
func (r *GitHubRepository) DeleteAsset(ctx context.Context, assetID int64) error {
	if _, err := r.client.Repositories.DeleteReleaseAsset(ctx, r.owner, r.repo, assetID); err != nil {
		return fmt.Errorf("delete release asset %d: %w", assetID, err)
	}

	return nil
}

// UploadAsset attaches a local file to the release under its base name.
func (r *GitHubRepository) UploadAsset(ctx context.Context, releaseID int64, path string) (*Asset, error) {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open asset: %w", err)
	}

	// Best-effort close; the upload reads the file to EOF.
	defer func() {
		_ = file.Close()
	}()

	opts := &github.UploadOptions{Name: filepath.Base(path)}

	uploaded, _, err := r.client.Repositories.UploadReleaseAsset(ctx, r.owner, r.repo, releaseID, opts, file)
	if err != nil {
		return nil, fmt.Errorf("upload asset %s: %w", filepath.Base(path), err)
	}

	return &Asset{
		ID:   uploaded.GetID(),
		Name: uploaded.GetName(),
	}, nil
}
