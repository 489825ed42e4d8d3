// Package upstream talks to the recruiting API on behalf of the BFF.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/iam-recruit/dashboard/internal/metrics"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

const (
	RefreshPath = "/auth/refresh"
	LogoutPath  = "/auth/logout"

	DefaultTimeout = 30 * time.Second
)

// Request is one forwarded call. Body is sent as-is with ContentType so
// multipart uploads keep their boundary.
type Request struct {
	Method      string
	Path        string
	Query       url.Values
	Token       string
	Body        []byte
	ContentType string
}

// Response is a fully buffered upstream response.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// TokenPair is the token payload of the auth endpoints. Both access token
// spellings are accepted.
type TokenPair struct {
	AccessToken      string `json:"access_token"`
	AccessTokenCamel string `json:"accessToken"`
	RefreshToken     string `json:"refresh_token"`
	IsNewAccount     bool   `json:"is_new_account"`
}

// Access returns whichever access token field was set.
func (t TokenPair) Access() string {
	if t.AccessToken != "" {
		return t.AccessToken
	}
	return t.AccessTokenCamel
}

// Tokens decodes the body as a TokenPair.
func (r *Response) Tokens() (TokenPair, error) {
	var t TokenPair
	if err := json.Unmarshal(r.Body, &t); err != nil {
		return TokenPair{}, fmt.Errorf("failed to decode token payload: %w", err)
	}
	return t, nil
}

// Detail returns the error detail of a non-2xx body, or nil.
func (r *Response) Detail() json.RawMessage {
	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(r.Body, &body); err != nil {
		return nil
	}
	return body.Detail
}

type Client struct {
	http      *resty.Client
	metrics   *metrics.Metrics
	refreshes singleflight.Group
}

// New creates a client for the API at baseURL. m may be nil.
func New(baseURL string, m *metrics.Metrics) *Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(DefaultTimeout).
		SetHeader("Accept", "application/json").
		// Shared by every user; upstream cookies must not leak between them.
		SetCookieJar(nil)

	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		m.UpstreamRequest(res.Request.Method, res.StatusCode(), res.Time())
		return nil
	})
	client.OnError(func(req *resty.Request, err error) {
		m.UpstreamRequest(req.Method, 0, time.Since(req.Time))
	})

	return &Client{http: client, metrics: m}
}

// Do forwards req and buffers the response. Non-2xx statuses are returned
// as a Response, not an error.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	r := c.http.R().SetContext(ctx)
	if req.Token != "" {
		r.SetAuthToken(req.Token)
	}
	if len(req.Query) > 0 {
		r.SetQueryParamsFromValues(req.Query)
	}
	if req.Body != nil {
		contentType := req.ContentType
		if contentType == "" {
			contentType = "application/json"
		}
		r.SetHeader("Content-Type", contentType).SetBody(req.Body)
	}

	res, err := r.Execute(req.Method, req.Path)
	if err != nil {
		return nil, fmt.Errorf("%s %s failed: %w", req.Method, req.Path, err)
	}

	return &Response{
		Status: res.StatusCode(),
		Header: res.Header(),
		Body:   res.Body(),
	}, nil
}

// PostJSON marshals body and posts it to path.
func (c *Client) PostJSON(ctx context.Context, path string, body any) (*Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: payload})
}

// Refresh exchanges refreshToken for a new token pair. Concurrent calls
// with the same refresh token share one upstream request, since the API
// rotates the refresh token and a second exchange would be rejected.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*Response, error) {
	v, err, shared := c.refreshes.Do(refreshToken, func() (any, error) {
		return c.PostJSON(context.WithoutCancel(ctx), RefreshPath, map[string]string{"refresh_token": refreshToken})
	})
	if err != nil {
		c.metrics.Refresh("bff", "failed")
		return nil, err
	}

	res := v.(*Response)
	switch {
	case res.OK():
		c.metrics.Refresh("bff", "ok")
	case res.Status == http.StatusUnauthorized:
		c.metrics.Refresh("bff", "unauthorized")
	default:
		c.metrics.Refresh("bff", "failed")
	}
	if shared {
		log.Debug().Int("status", res.Status).Msg("shared in-flight upstream refresh")
	}
	return res, nil
}

// Logout revokes refreshToken upstream.
func (c *Client) Logout(ctx context.Context, refreshToken string) error {
	res, err := c.PostJSON(ctx, LogoutPath, map[string]string{"refresh_token": refreshToken})
	if err != nil {
		return err
	}
	if !res.OK() {
		return fmt.Errorf("logout failed with status %d", res.Status)
	}
	return nil
}
