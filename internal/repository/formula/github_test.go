package formula

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/google/go-github/v66/github"
	"github.com/stretchr/testify/require"

	domain "github.com/replibyte/releaser/internal/domain/release"
)

const formulaSource = `class Replibyte < Formula
  desc "Seed your development database with real data"
  homepage "https://www.replibyte.com"
  url "https://github.com/Qovery/replibyte.git",
      tag:      "v0.9.0",
      revision: "000000"
  license "MIT"
end
`

// TestRewritePins replaces only the quoted pin values.
func TestRewritePins(t *testing.T) {
	t.Parallel()

	updated := RewritePins(formulaSource, "v1.2.3", "9fceb02")

	require.Contains(t, updated, `tag:      "v1.2.3"`)
	require.Contains(t, updated, `revision: "9fceb02"`)
	require.NotContains(t, updated, "v0.9.0")
	require.Contains(t, updated, `homepage "https://www.replibyte.com"`)
}

// newTestTap wires a GitHubTapRepository against a local httptest server.
func newTestTap(t *testing.T, handler http.Handler) *GitHubTapRepository {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := github.NewClient(nil)

	base, err := url.Parse(server.URL + "/")
	require.NoError(t, err)

	client.BaseURL = base

	return NewGitHubTapRepository(client, "Qovery", "homebrew-replibyte")
}

// TestFindOpenUpdateRequest matches the bump title convention.
func TestFindOpenUpdateRequest(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/repos/Qovery/homebrew-replibyte/pulls", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[
			{"title": "replibyte v1.0.0", "html_url": "https://example.com/pr/1"},
			{"title": "replibyte v1.2.3", "html_url": "https://example.com/pr/2"}
		]`)
	})

	tap := newTestTap(t, mux)

	prURL, found, err := tap.FindOpenUpdateRequest(context.Background(), "replibyte", "v1.2.3")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "https://example.com/pr/2", prURL)

	_, found, err = tap.FindOpenUpdateRequest(context.Background(), "replibyte", "v9.9.9")
	require.NoError(t, err)
	require.False(t, found)
}

// TestPropose drives the whole branch/commit/pull-request sequence.
func TestPropose(t *testing.T) {
	t.Parallel()

	var committed struct {
		Message string `json:"message"`
		Content string `json:"content"`
		Branch  string `json:"branch"`
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/repos/Qovery/homebrew-replibyte", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"default_branch": "main"}`)
	})
	mux.HandleFunc("/repos/Qovery/homebrew-replibyte/git/ref/heads/main", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"ref": "refs/heads/main", "object": {"sha": "abc123"}}`)
	})
	mux.HandleFunc("/repos/Qovery/homebrew-replibyte/git/refs", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		fmt.Fprint(w, `{"ref": "refs/heads/bump-replibyte-v1.2.3", "object": {"sha": "abc123"}}`)
	})
	mux.HandleFunc("/repos/Qovery/homebrew-replibyte/contents/Formula/replibyte.rb", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&committed))
			fmt.Fprint(w, `{"content": {"name": "replibyte.rb"}}`)

			return
		}

		encoded := base64.StdEncoding.EncodeToString([]byte(formulaSource))
		fmt.Fprintf(w, `{"type": "file", "name": "replibyte.rb", "sha": "filesha", "encoding": "base64", "content": %q}`, encoded)
	})
	mux.HandleFunc("/repos/Qovery/homebrew-replibyte/pulls", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		fmt.Fprint(w, `{"number": 7, "html_url": "https://example.com/pr/7"}`)
	})

	tap := newTestTap(t, mux)

	req := &domain.FormulaUpdateRequest{
		Tap:      "Qovery/homebrew-replibyte",
		Formula:  "replibyte",
		Tag:      "v1.2.3",
		Revision: "9fceb02",
	}
	actor := &domain.Actor{
		Hostname: "ci-host",
		Username: "releaser",
	}

	prURL, err := tap.Propose(context.Background(), req, actor)
	require.NoError(t, err)
	require.Equal(t, "https://example.com/pr/7", prURL)

	require.Equal(t, "replibyte: bump to v1.2.3", committed.Message)
	require.Equal(t, "bump-replibyte-v1.2.3", committed.Branch)

	decoded, err := base64.StdEncoding.DecodeString(committed.Content)
	require.NoError(t, err)
	require.Contains(t, string(decoded), `tag:      "v1.2.3"`)
	require.Contains(t, string(decoded), `revision: "9fceb02"`)
}
