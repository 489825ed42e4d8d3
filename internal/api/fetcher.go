// Package api is the authenticated fetch wrapper used by every data call
// site. It attaches the bearer token from the coordinator and retries
// exactly once after a 401.
package api

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-resty/resty/v2"
	"github.com/iam-recruit/dashboard/internal/auth"
	"github.com/iam-recruit/dashboard/internal/metrics"
	"github.com/rs/zerolog/log"
)

// Prefix is prepended to every resource path.
const Prefix = "/api"

// File is a multipart upload part. Data is kept in memory so the request
// can be rebuilt for the retry.
type File struct {
	Field    string
	Filename string
	Data     []byte
}

// Request describes one data call. Path is relative to Prefix.
type Request struct {
	Method   string
	Path     string
	Query    url.Values
	Body     any
	FormData map[string]string
	Files    []File
}

type errorBody struct {
	Message string `json:"message"`
}

// Fetcher performs authenticated requests against the BFF.
type Fetcher struct {
	client    *resty.Client
	tokens    auth.TokenSource
	refresher auth.Refresher
	store     *auth.Store
	metrics   *metrics.Metrics
}

// NewFetcher wires the wrapper. client must carry the cookie jar so the
// refresh credential rides along. m may be nil.
func NewFetcher(client *resty.Client, tokens auth.TokenSource, refresher auth.Refresher, store *auth.Store, m *metrics.Metrics) *Fetcher {
	return &Fetcher{
		client:    client,
		tokens:    tokens,
		refresher: refresher,
		store:     store,
		metrics:   m,
	}
}

// Get fetches path and decodes the JSON body into out.
func (f *Fetcher) Get(ctx context.Context, path string, out any) error {
	return f.Do(ctx, Request{Method: http.MethodGet, Path: path}, out)
}

// Do performs req. On 401 it refreshes the token directly, skipping the
// coordinator's verify step since the token just failed, and retries once.
// out may be nil to discard the body.
func (f *Fetcher) Do(ctx context.Context, req Request, out any) error {
	if req.Method == "" {
		req.Method = http.MethodGet
	}

	token, err := f.tokens.EnsureValidToken(ctx)
	if err != nil {
		return err
	}
	if token == "" {
		return auth.ErrUnauthorized
	}

	res, err := f.send(ctx, req, token, out)
	if err != nil {
		return err
	}

	if res.StatusCode() == http.StatusUnauthorized {
		log.Debug().Str("path", req.Path).Msg("request unauthorized, refreshing token")

		refreshed := f.refresher.Refresh(ctx)
		if refreshed.Token == "" {
			f.metrics.FetchRetry("no_token")
			f.store.ClearAuth()
			return auth.ErrUnauthorized
		}
		f.store.SetAccessToken(refreshed.Token)

		res, err = f.send(ctx, req, refreshed.Token, out)
		if err != nil {
			return err
		}
		if res.StatusCode() == http.StatusUnauthorized {
			f.metrics.FetchRetry("unauthorized")
			f.store.ClearAuth()
			return auth.ErrUnauthorized
		}
		f.metrics.FetchRetry("ok")
	}

	return handleError(res, req)
}

func (f *Fetcher) send(ctx context.Context, req Request, token string, out any) (*resty.Response, error) {
	failure := &errorBody{}

	r := f.client.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetError(failure)

	if out != nil {
		r.SetResult(out)
	}
	if len(req.Query) > 0 {
		r.SetQueryParamsFromValues(req.Query)
	}
	if req.Body != nil {
		r.SetHeader("Content-Type", "application/json").SetBody(req.Body)
	}
	if len(req.FormData) > 0 {
		r.SetFormData(req.FormData)
	}
	for _, file := range req.Files {
		r.SetFileReader(file.Field, file.Filename, bytes.NewReader(file.Data))
	}

	res, err := r.Execute(req.Method, Prefix+req.Path)
	if err != nil {
		return nil, fmt.Errorf("%s %s failed: %w", req.Method, req.Path, err)
	}
	return res, nil
}

// handleError turns non-success responses into *auth.APIError. Without it
// resty reports them with a nil error.
func handleError(res *resty.Response, req Request) error {
	if res.IsSuccess() {
		return nil
	}

	apiErr := &auth.APIError{
		Status: res.StatusCode(),
		Method: req.Method,
		Path:   req.Path,
	}
	if failure, ok := res.Error().(*errorBody); ok && failure != nil {
		apiErr.Message = failure.Message
	}
	return apiErr
}
