package auth

import (
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// BFF endpoints used by the session core.
const (
	MePath       = "/api/auth/me"
	RefreshPath  = "/api/auth/refresh"
	LogoutPath   = "/api/auth/logout"
	LoginPath    = "/api/auth/login"
	GooglePath   = "/api/auth/google"
	RegisterPath = "/api/auth/register"
)

// Page routes the session core redirects to.
const (
	LoginRoute    = "/iniciar-sesion"
	RegisterRoute = "/registrarse"
	LandingRoute  = "/vacantes"
)

// DefaultRequestTimeout bounds a single HTTP call. One authenticated fetch
// can take up to six calls in the worst case.
const DefaultRequestTimeout = 15 * time.Second

// NewHTTPClient creates the credential-bearing client shared by the
// verifier, refresher and fetch wrapper. The jar owns the refresh cookie;
// nothing in this module reads it.
func NewHTTPClient(baseURL string, jar http.CookieJar) *resty.Client {
	c := resty.New().
		SetDebug(false).
		SetBaseURL(baseURL).
		SetTimeout(DefaultRequestTimeout).
		SetHeaders(map[string]string{
			"Accept":     "application/json",
			"User-Agent": "recruitctl/1.0",
		})
	if jar != nil {
		c.SetCookieJar(jar)
	}
	return c
}

// messageBody is the error shape returned by the BFF.
type messageBody struct {
	Message string `json:"message"`
}
