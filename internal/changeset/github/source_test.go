package github_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reviewflow/internal/changeset/github"
	"reviewflow/internal/domain"
)

func newTestSource(t *testing.T, handler http.Handler) *github.Source {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	source, err := github.NewSourceWithHTTPClient(server.Client(), "acme", server.URL)
	require.NoError(t, err)
	return source
}

func TestGetChangeset_MapsPullRequest(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/widgets/pulls/42", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"number": 42,
			"title":  "Add retry backoff",
			"state":  "open",
			"body":   "Adds a backoff.\n\nFixes #12 and closes #3, fixes #12\n\n## Testing Done\nUnit tests.",
			"base":   map[string]any{"ref": "main"},
		})
	})
	source := newTestSource(t, mux)

	cs, err := source.GetChangeset(context.Background(), &domain.Repository{Name: "widgets"}, 42)
	require.NoError(t, err)

	assert.Equal(t, int64(42), cs.ChangeNum)
	assert.Equal(t, "Add retry backoff", cs.Summary)
	assert.Equal(t, "Adds a backoff.\n\nFixes #12 and closes #3, fixes #12", cs.Description)
	assert.Equal(t, "Unit tests.", cs.TestingDone)
	assert.Equal(t, "main", cs.Branch)
	assert.Equal(t, []string{"12", "3"}, cs.BugsClosed)
	assert.True(t, cs.Pending)
}

func TestGetChangeset_OwnerFromPath(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/other/tools/pulls/7", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"number": 7, "title": "Closed one", "state": "closed"})
	})
	source := newTestSource(t, mux)

	cs, err := source.GetChangeset(context.Background(), &domain.Repository{Name: "tools", Path: "git@github.com:other/tools.git"}, 7)
	require.NoError(t, err)
	assert.False(t, cs.Pending)
	assert.Empty(t, cs.BugsClosed)
}

func TestGetChangeset_NotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/widgets/pulls/404", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Not Found"}`))
	})
	source := newTestSource(t, mux)

	_, err := source.GetChangeset(context.Background(), &domain.Repository{Name: "widgets"}, 404)
	assert.ErrorIs(t, err, domain.ErrChangesetNotFound)
}

func TestGetChangeset_NoRepository(t *testing.T) {
	source := newTestSource(t, http.NewServeMux())

	_, err := source.GetChangeset(context.Background(), nil, 1)
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err))
}
