package bff

import (
	"net/http"
	"time"
)

const (
	RefreshCookie     = "refreshToken"
	AuthSuccessCookie = "auth-success"

	refreshMaxAge      = 7 * 24 * time.Hour
	refreshMaxAgeShort = time.Hour
	authSuccessMaxAge  = 10 * time.Second
)

type cookiePolicy struct {
	secure bool
}

func (p cookiePolicy) setRefresh(w http.ResponseWriter, value string, maxAge time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   p.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// setAuthSuccess sets the short-lived, script-readable marker the pages
// use to detect a fresh registration.
func (p cookiePolicy) setAuthSuccess(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     AuthSuccessCookie,
		Value:    "true",
		Path:     "/",
		MaxAge:   int(authSuccessMaxAge.Seconds()),
		Secure:   p.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (p cookiePolicy) expireRefresh(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   p.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func refreshTokenFromCookie(r *http.Request) (string, bool) {
	c, err := r.Cookie(RefreshCookie)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

// refreshTokenFromSetCookie finds a refresh cookie the API set directly.
func refreshTokenFromSetCookie(h http.Header) (string, bool) {
	for _, c := range (&http.Response{Header: h}).Cookies() {
		if c.Name == RefreshCookie && c.Value != "" {
			return c.Value, true
		}
	}
	return "", false
}
