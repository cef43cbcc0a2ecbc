package release

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-github/v66/github"
	"github.com/stretchr/testify/require"
)

// newTestRepository wires a GitHubRepository against a local httptest server.
func newTestRepository(t *testing.T, handler http.Handler) *GitHubRepository {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := github.NewClient(nil)

	base, err := url.Parse(server.URL + "/")
	require.NoError(t, err)

	client.BaseURL = base
	client.UploadURL = base

	return NewGitHubRepository(client, "Qovery", "replibyte")
}

// TestFindByTag resolves the release id and attached asset names.
func TestFindByTag(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/repos/Qovery/replibyte/releases/tags/v1.2.3", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"id": 42, "tag_name": "v1.2.3", "assets": [{"id": 1, "name": "old.zip"}]}`)
	})

	repo := newTestRepository(t, mux)

	found, err := repo.FindByTag(context.Background(), "v1.2.3")
	require.NoError(t, err)
	require.EqualValues(t, 42, found.ID)
	require.Equal(t, []string{"old.zip"}, found.AssetNames)
}

// TestFindByTagNotFound maps a 404 to ErrNotFound.
func TestFindByTagNotFound(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"message": "Not Found"}`, http.StatusNotFound)
	})

	repo := newTestRepository(t, mux)

	_, err := repo.FindByTag(context.Background(), "v9.9.9")
	require.ErrorIs(t, err, ErrNotFound)
}

// TestListAndDeleteAssets lists attached assets and deletes one.
func TestListAndDeleteAssets(t *testing.T) {
	t.Parallel()

	deleted := false

	mux := http.NewServeMux()
	mux.HandleFunc("/repos/Qovery/replibyte/releases/42/assets", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[{"id": 7, "name": "a.tar.gz"}, {"id": 8, "name": "a.tar.gz.sha256sum"}]`)
	})
	mux.HandleFunc("/repos/Qovery/replibyte/releases/assets/7", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)

		deleted = true

		w.WriteHeader(http.StatusNoContent)
	})

	repo := newTestRepository(t, mux)

	assets, err := repo.ListAssets(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, assets, 2)
	require.Equal(t, "a.tar.gz", assets[0].Name)

	require.NoError(t, repo.DeleteAsset(context.Background(), 7))
	require.True(t, deleted)
}

// TestUploadAsset posts the file under its base name.
func TestUploadAsset(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/repos/Qovery/replibyte/releases/42/assets", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "artifact.zip", r.URL.Query().Get("name"))

		fmt.Fprint(w, `{"id": 99, "name": "artifact.zip"}`)
	})

	repo := newTestRepository(t, mux)

	path := filepath.Join(t.TempDir(), "artifact.zip")
	require.NoError(t, os.WriteFile(path, []byte("zip bytes"), 0o644))

	asset, err := repo.UploadAsset(context.Background(), 42, path)
	require.NoError(t, err)
	require.EqualValues(t, 99, asset.ID)
	require.Equal(t, "artifact.zip", asset.Name)
}
