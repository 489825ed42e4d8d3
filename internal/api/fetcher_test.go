package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/iam-recruit/dashboard/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticTokens struct {
	token string
	err   error
	calls int
}

func (s *staticTokens) EnsureValidToken(ctx context.Context) (string, error) {
	s.calls++
	return s.token, s.err
}

// testBackend records data calls and answers them from a queue of statuses.
type testBackend struct {
	mu          sync.Mutex
	statuses    []int
	authHeaders []string
	bodies      []string
	refreshWith string
	refreshes   int
}

func (b *testBackend) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == auth.RefreshPath {
			b.refreshes++
			if b.refreshWith == "" {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(`{"message":"Error al procesar la solicitud"}`))
				return
			}
			json.NewEncoder(w).Encode(map[string]string{"accessToken": b.refreshWith})
			return
		}

		body, _ := io.ReadAll(r.Body)
		b.bodies = append(b.bodies, string(body))
		b.authHeaders = append(b.authHeaders, r.Header.Get("Authorization"))

		status := http.StatusOK
		if len(b.statuses) > 0 {
			status = b.statuses[0]
			b.statuses = b.statuses[1:]
		}
		w.WriteHeader(status)
		switch status {
		case http.StatusOK:
			json.NewEncoder(w).Encode(map[string]any{"attempt": len(b.authHeaders), "path": r.URL.Path, "query": r.URL.RawQuery})
		case http.StatusUnauthorized:
			w.Write([]byte(`{"message":"No autorizado"}`))
		default:
			w.Write([]byte(`{"message":"Error al obtener las vacantes"}`))
		}
	}
}

func setupFetcher(t *testing.T, backend *testBackend, tokens *staticTokens) (*Fetcher, *auth.Store) {
	t.Helper()
	ts := httptest.NewServer(backend.handler(t))
	t.Cleanup(ts.Close)

	client := auth.NewHTTPClient(ts.URL, nil)
	store := auth.NewStore(&auth.MemoryMarker{})
	store.SetAccessToken(tokens.token)
	store.SetIsNewAccount(true)
	return NewFetcher(client, tokens, auth.NewRefresher(client), store, nil), store
}

func TestFetch_NoTokenFailsWithoutNetwork(t *testing.T) {
	backend := &testBackend{}
	f, _ := setupFetcher(t, backend, &staticTokens{})

	err := f.Get(context.Background(), "/jobs", nil)

	assert.ErrorIs(t, err, auth.ErrUnauthorized)
	assert.Empty(t, backend.authHeaders)
}

func TestFetch_SessionExpiredPropagates(t *testing.T) {
	backend := &testBackend{}
	f, _ := setupFetcher(t, backend, &staticTokens{err: auth.ErrSessionExpired})

	err := f.Get(context.Background(), "/jobs", nil)

	assert.ErrorIs(t, err, auth.ErrSessionExpired)
	assert.Empty(t, backend.authHeaders)
}

func TestFetch_Success(t *testing.T) {
	backend := &testBackend{}
	f, _ := setupFetcher(t, backend, &staticTokens{token: "tok"})

	var out map[string]any
	err := f.Get(context.Background(), "/jobs?limit=5", &out)

	require.NoError(t, err)
	assert.Equal(t, []string{"Bearer tok"}, backend.authHeaders)
	assert.Equal(t, "/api/jobs", out["path"])
	assert.Equal(t, "limit=5", out["query"])
	assert.Zero(t, backend.refreshes)
}

func TestFetch_RetriesOnceAfter401(t *testing.T) {
	backend := &testBackend{
		statuses:    []int{http.StatusUnauthorized, http.StatusOK},
		refreshWith: "fresh",
	}
	f, store := setupFetcher(t, backend, &staticTokens{token: "stale"})

	var out map[string]any
	err := f.Get(context.Background(), "/applications", &out)

	require.NoError(t, err)
	assert.Equal(t, []string{"Bearer stale", "Bearer fresh"}, backend.authHeaders)
	assert.Equal(t, float64(2), out["attempt"])
	assert.Equal(t, 1, backend.refreshes)
	assert.Equal(t, "fresh", store.AccessToken())
}

func TestFetch_SecondUnauthorizedClearsAuth(t *testing.T) {
	backend := &testBackend{
		statuses:    []int{http.StatusUnauthorized, http.StatusUnauthorized},
		refreshWith: "fresh",
	}
	f, store := setupFetcher(t, backend, &staticTokens{token: "stale"})

	err := f.Get(context.Background(), "/applications", nil)

	assert.ErrorIs(t, err, auth.ErrUnauthorized)
	assert.Len(t, backend.authHeaders, 2)
	assert.Equal(t, auth.State{}, store.Snapshot())
}

func TestFetch_RefreshWithoutTokenClearsAuth(t *testing.T) {
	backend := &testBackend{statuses: []int{http.StatusUnauthorized}}
	f, store := setupFetcher(t, backend, &staticTokens{token: "stale"})

	err := f.Get(context.Background(), "/jobs", nil)

	assert.ErrorIs(t, err, auth.ErrUnauthorized)
	assert.Len(t, backend.authHeaders, 1)
	assert.Equal(t, 1, backend.refreshes)
	assert.Equal(t, auth.State{}, store.Snapshot())
}

func TestFetch_OtherStatusIsAPIError(t *testing.T) {
	backend := &testBackend{statuses: []int{http.StatusInternalServerError}}
	f, store := setupFetcher(t, backend, &staticTokens{token: "tok"})

	err := f.Get(context.Background(), "/jobs", nil)

	var apiErr *auth.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.ErrorIs(t, err, auth.ErrAPI)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Equal(t, "Error al obtener las vacantes", apiErr.Message)
	assert.Len(t, backend.authHeaders, 1)
	assert.Equal(t, "tok", store.AccessToken())
}

func TestFetch_RetryResendsBody(t *testing.T) {
	backend := &testBackend{
		statuses:    []int{http.StatusUnauthorized, http.StatusOK},
		refreshWith: "fresh",
	}
	f, _ := setupFetcher(t, backend, &staticTokens{token: "stale"})

	err := f.Do(context.Background(), Request{
		Method: http.MethodPatch,
		Path:   "/applications/a1/status",
		Body:   map[string]string{"status": "in_review"},
	}, nil)

	require.NoError(t, err)
	require.Len(t, backend.bodies, 2)
	assert.JSONEq(t, `{"status":"in_review"}`, backend.bodies[0])
	assert.JSONEq(t, backend.bodies[0], backend.bodies[1])
}

func TestFetch_RetryResendsFiles(t *testing.T) {
	backend := &testBackend{
		statuses:    []int{http.StatusUnauthorized, http.StatusOK},
		refreshWith: "fresh",
	}
	f, _ := setupFetcher(t, backend, &staticTokens{token: "stale"})

	err := f.Do(context.Background(), Request{
		Method:   http.MethodPost,
		Path:     "/applications",
		FormData: map[string]string{"job_id": "j1"},
		Files:    []File{{Field: "file", Filename: "cv.pdf", Data: []byte("%PDF-1.4 resume")}},
	}, nil)

	require.NoError(t, err)
	require.Len(t, backend.bodies, 2)
	for _, body := range backend.bodies {
		assert.Contains(t, body, "%PDF-1.4 resume")
		assert.Contains(t, body, "j1")
	}
}
