package upstream

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/iam-recruit/dashboard/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	timeout = time.Second
	tick    = 5 * time.Millisecond
)

func TestDo_ForwardsRequest(t *testing.T) {
	var got struct {
		method, path, query, auth, contentType, body string
	}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got.method, got.path, got.query = r.Method, r.URL.Path, r.URL.RawQuery
		got.auth, got.contentType, got.body = r.Header.Get("Authorization"), r.Header.Get("Content-Type"), string(body)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"j1"}`))
	}))
	defer ts.Close()

	res, err := New(ts.URL, nil).Do(context.Background(), Request{
		Method: http.MethodPost,
		Path:   "/jobs",
		Query:  url.Values{"draft": {"true"}},
		Token:  "tok",
		Body:   []byte(`{"role":"Backend"}`),
	})

	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.Equal(t, http.StatusCreated, res.Status)
	assert.JSONEq(t, `{"id":"j1"}`, string(res.Body))
	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, "/jobs", got.path)
	assert.Equal(t, "draft=true", got.query)
	assert.Equal(t, "Bearer tok", got.auth)
	assert.Equal(t, "application/json", got.contentType)
	assert.Equal(t, `{"role":"Backend"}`, got.body)
}

func TestResponse_TokensAndDetail(t *testing.T) {
	res := &Response{Status: 200, Body: []byte(`{"accessToken":"a1","refresh_token":"r1","is_new_account":true}`)}
	tokens, err := res.Tokens()
	require.NoError(t, err)
	assert.Equal(t, "a1", tokens.Access())
	assert.Equal(t, "r1", tokens.RefreshToken)
	assert.True(t, tokens.IsNewAccount)

	failed := &Response{Status: 401, Body: []byte(`{"detail":"INVALID_REFRESH_TOKEN"}`)}
	assert.JSONEq(t, `"INVALID_REFRESH_TOKEN"`, string(failed.Detail()))

	assert.Nil(t, (&Response{Body: []byte("<html>")}).Detail())
}

func TestRefresh_CollapsesConcurrentCalls(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		<-release
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		json.NewEncoder(w).Encode(map[string]string{"access_token": "a-" + body["refresh_token"], "refresh_token": "rotated"})
	}))
	defer ts.Close()

	reg := prometheus.NewRegistry()
	client := New(ts.URL, metrics.New(reg))

	const n = 5
	var wg sync.WaitGroup
	results := make([]*Response, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := client.Refresh(context.Background(), "r1")
			assert.NoError(t, err)
			results[i] = res
		}()
	}

	require.Eventually(t, func() bool { return calls.Load() == 1 }, timeout, tick)
	// Let the other callers reach the in-flight call before it completes.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, res := range results {
		require.NotNil(t, res)
		tokens, err := res.Tokens()
		require.NoError(t, err)
		assert.Equal(t, "a-r1", tokens.Access())
	}
	assert.Equal(t, 1, testutil.CollectAndCount(reg, "recruit_upstream_requests_total"))
}

func TestRefresh_DistinctTokensAreNotShared(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":"REFRESH_TOKEN_EXPIRED"}`))
	}))
	defer ts.Close()

	client := New(ts.URL, nil)
	for _, token := range []string{"r1", "r2"} {
		res, err := client.Refresh(context.Background(), token)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, res.Status)
	}
	assert.Equal(t, int32(2), calls.Load())
}

func TestLogout(t *testing.T) {
	var body map[string]string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, LogoutPath, r.URL.Path)
		json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	require.NoError(t, New(ts.URL, nil).Logout(context.Background(), "r1"))
	assert.Equal(t, "r1", body["refresh_token"])
}
