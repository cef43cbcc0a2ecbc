package formula

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/google/go-github/v66/github"

	domain "github.com/replibyte/releaser/internal/domain/release"
)

// Repository defines the operations the bump trigger needs against the
// external tap.
type Repository interface {
	// FindOpenUpdateRequest looks for an open update request matching the
	// formula and tag, returning its URL when one exists.
	FindOpenUpdateRequest(ctx context.Context, formulaName, tag string) (string, bool, error)
	// Propose opens a new update request for the given version.
	Propose(ctx context.Context, req *domain.FormulaUpdateRequest, actor *domain.Actor) (string, error)
}

var (
	// ErrFormulaNotFound is returned when the tap has no formula file.
	ErrFormulaNotFound = errors.New("formula file not found in tap")

	// tagField and revisionField locate the pinned version inside the
	// formula source. Only the quoted values are rewritten so the tap's
	// own formatting survives the bump.
	tagField      = regexp.MustCompile(`(tag:\s*")[^"]*(")`)
	revisionField = regexp.MustCompile(`(revision:\s*")[^"]*(")`)
)

// GitHubTapRepository implements Repository against a GitHub-hosted tap.
type GitHubTapRepository struct {
	// client is authenticated with the tap token, which is distinct from
	// the release token.
	client *github.Client
	// owner and repo identify the tap.
	owner string
	repo  string
}

// NewGitHubTapRepository creates a tap repository bound to owner/repo.
func NewGitHubTapRepository(client *github.Client, owner, repo string) *GitHubTapRepository {
	return &GitHubTapRepository{
		client: client,
		owner:  owner,
		repo:   repo,
	}
}

// FindOpenUpdateRequest scans open pull requests for one whose title
// matches the bump convention "<formula> <tag>".
func (r *GitHubTapRepository) FindOpenUpdateRequest(ctx context.Context, formulaName, tag string) (string, bool, error) {
	wanted := updateRequestTitle(formulaName, tag)

	opts := &github.PullRequestListOptions{
		State:       "open",
		ListOptions: github.ListOptions{PerPage: 100},
	}

	for {
		pulls, resp, err := r.client.PullRequests.List(ctx, r.owner, r.repo, opts)
		if err != nil {
			return "", false, fmt.Errorf("list open pull requests: %w", err)
		}

		for _, pull := range pulls {
			if pull.GetTitle() == wanted {
				return pull.GetHTMLURL(), true, nil
			}
		}

		if resp.NextPage == 0 {
			break
		}

		opts.Page = resp.NextPage
	}

	return "", false, nil
}

// Propose creates a branch off the tap's default head, rewrites the
// formula's tag and revision pins, and opens a pull request for it.
func (r *GitHubTapRepository) Propose(ctx context.Context, req *domain.FormulaUpdateRequest, actor *domain.Actor) (string, error) {
	tap, _, err := r.client.Repositories.Get(ctx, r.owner, r.repo)
	if err != nil {
		return "", fmt.Errorf("get tap repository: %w", err)
	}

	base := tap.GetDefaultBranch()

	headRef, _, err := r.client.Git.GetRef(ctx, r.owner, r.repo, "refs/heads/"+base)
	if err != nil {
		return "", fmt.Errorf("get head of %s: %w", base, err)
	}

	branch := fmt.Sprintf("bump-%s-%s", req.Formula, req.Tag)

	newRef := &github.Reference{
		Ref:    github.String("refs/heads/" + branch),
		Object: &github.GitObject{SHA: headRef.Object.SHA},
	}

	if _, _, err = r.client.Git.CreateRef(ctx, r.owner, r.repo, newRef); err != nil {
		return "", fmt.Errorf("create branch %s: %w", branch, err)
	}

	path := fmt.Sprintf("Formula/%s.rb", req.Formula)

	content, _, _, err := r.client.Repositories.GetContents(ctx, r.owner, r.repo, path,
		&github.RepositoryContentGetOptions{Ref: base})
	if err != nil || content == nil {
		return "", fmt.Errorf("%w: %s", ErrFormulaNotFound, path)
	}

	source, err := content.GetContent()
	if err != nil {
		return "", fmt.Errorf("decode formula %s: %w", path, err)
	}

	updated := RewritePins(source, req.Tag, req.Revision)

	message := fmt.Sprintf("%s: bump to %s", req.Formula, req.Tag)

	commit := &github.RepositoryContentFileOptions{
		Message: github.String(message),
		Content: []byte(updated),
		SHA:     content.SHA,
		Branch:  github.String(branch),
	}

	if _, _, err = r.client.Repositories.UpdateFile(ctx, r.owner, r.repo, path, commit); err != nil {
		return "", fmt.Errorf("commit formula update: %w", err)
	}

	body := fmt.Sprintf(
		"Automated version bump of %s to %s (revision %s).\n\nRequested by %s.",
		req.Formula, req.Tag, req.Revision, actor)

	pull := &github.NewPullRequest{
		Title:               github.String(updateRequestTitle(req.Formula, req.Tag)),
		Head:                github.String(branch),
		Base:                github.String(base),
		Body:                github.String(body),
		MaintainerCanModify: github.Bool(true),
	}

	created, _, err := r.client.PullRequests.Create(ctx, r.owner, r.repo, pull)
	if err != nil {
		return "", fmt.Errorf("open pull request: %w", err)
	}

	return created.GetHTMLURL(), nil
}

// RewritePins replaces the quoted tag and revision values in a formula
// source, leaving the tap's indentation untouched.
func RewritePins(source, tag, revision string) string {
	result := tagField.ReplaceAllString(source, "${1}"+tag+"${2}")

	return revisionField.ReplaceAllString(result, "${1}"+revision+"${2}")
}

// updateRequestTitle is the shared bump title convention.
func updateRequestTitle(formulaName, tag string) string {
	return formulaName + " " + tag
}
