package auth

import (
	"context"
	"errors"
)

// Notice is a user-visible message raised by the session core.
type Notice struct {
	Title       string
	Description string
}

// SessionExpiredNotice is shown when the refresh credential was rejected.
var SessionExpiredNotice = Notice{
	Title:       "Sesión expirada",
	Description: "Por favor, inicia sesión nuevamente",
}

// BootstrapResult tells the caller what to do after checking the session
// for the page at path.
type BootstrapResult struct {
	// Token is the valid access token, or "" when not authenticated.
	Token string
	// Redirect is the route to navigate to, or "" to stay.
	Redirect string
	// Notice is set only when the session expired.
	Notice *Notice
}

// Bootstrap checks the session when a private page is shown. Anonymous
// clients are sent to login silently; expired sessions get a notice too.
// Clients already on an auth page are never redirected.
func Bootstrap(ctx context.Context, tokens TokenSource, store *Store, path string) (BootstrapResult, error) {
	token, err := tokens.EnsureValidToken(ctx)
	if err != nil && !errors.Is(err, ErrSessionExpired) {
		return BootstrapResult{}, err
	}
	if err == nil && token != "" {
		return BootstrapResult{Token: token}, nil
	}

	store.ClearAuth()

	var res BootstrapResult
	if errors.Is(err, ErrSessionExpired) {
		notice := SessionExpiredNotice
		res.Notice = &notice
	}
	if path != LoginRoute && path != RegisterRoute {
		res.Redirect = LoginRoute
	}
	return res, nil
}
