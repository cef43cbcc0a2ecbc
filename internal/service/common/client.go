//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/go-github/v66/github"
	"golang.org/x/oauth2"
)

var (
	// errTokenRequired is returned when a required API token is missing.
	errTokenRequired = errors.New("api token must be provided")
)

// NewGitHubClient builds an authenticated GitHub API client from a token.
func NewGitHubClient(ctx context.Context, token string) (*github.Client, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errTokenRequired
	}

	source := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})

	return github.NewClient(oauth2.NewClient(ctx, source)), nil
}

// TokenFromEnv reads an API token from the named environment variable.
func TokenFromEnv(envName string) (string, error) {
	token := strings.TrimSpace(os.Getenv(envName))
	if token == "" {
		return "", fmt.Errorf("%w: %s is not set", errTokenRequired, envName)
	}

	return token, nil
}
