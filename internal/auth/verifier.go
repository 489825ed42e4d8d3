package auth

import (
	"context"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

// VerificationResult is the outcome of one verify call.
type VerificationResult struct {
	IsValid bool
	// IsNewAccount is nil when the server did not say.
	IsNewAccount *bool
}

// Verifier checks whether an access token is still accepted.
type Verifier interface {
	Verify(ctx context.Context, token string) VerificationResult
}

// HTTPVerifier calls the /me endpoint.
type HTTPVerifier struct {
	client *resty.Client
}

var _ Verifier = (*HTTPVerifier)(nil)

func NewVerifier(client *resty.Client) *HTTPVerifier {
	return &HTTPVerifier{client: client}
}

// Verify never fails; any problem makes the token invalid.
func (v *HTTPVerifier) Verify(ctx context.Context, token string) VerificationResult {
	var me struct {
		IsNewAccount *bool `json:"is_new_account"`
	}

	res, err := v.client.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetResult(&me).
		Get(MePath)
	if err != nil {
		log.Debug().Err(err).Msg("token verification request failed")
		return VerificationResult{}
	}
	if !res.IsSuccess() {
		log.Debug().Int("status", res.StatusCode()).Msg("token rejected by /me")
		return VerificationResult{}
	}

	return VerificationResult{IsValid: true, IsNewAccount: me.IsNewAccount}
}
