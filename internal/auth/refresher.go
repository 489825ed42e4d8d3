package auth

import (
	"context"
	"net/http"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

// RefreshResult is the outcome of one refresh call. An empty Token means no
// token was issued; Unauthorized is set only when the refresh credential
// itself was rejected.
type RefreshResult struct {
	Token        string
	Unauthorized bool
}

// Refresher exchanges the refresh cookie for a new access token.
type Refresher interface {
	Refresh(ctx context.Context) RefreshResult
}

// HTTPRefresher posts to the refresh endpoint. The cookie rides along in the
// client's jar.
type HTTPRefresher struct {
	client *resty.Client
}

var _ Refresher = (*HTTPRefresher)(nil)

func NewRefresher(client *resty.Client) *HTTPRefresher {
	return &HTTPRefresher{client: client}
}

// Refresh never fails; transport errors look like a plain failed refresh.
func (r *HTTPRefresher) Refresh(ctx context.Context) RefreshResult {
	var body struct {
		AccessToken string `json:"accessToken"`
	}

	res, err := r.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetResult(&body).
		Post(RefreshPath)
	if err != nil {
		log.Warn().Err(err).Msg("token refresh request failed")
		return RefreshResult{}
	}
	if !res.IsSuccess() {
		unauthorized := res.StatusCode() == http.StatusUnauthorized
		log.Info().Int("status", res.StatusCode()).Bool("unauthorized", unauthorized).Msg("token refresh rejected")
		return RefreshResult{Unauthorized: unauthorized}
	}

	return RefreshResult{Token: body.AccessToken}
}
