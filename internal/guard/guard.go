// Package guard redirects page requests before rendering based on the
// presence of the refresh cookie. Validity is not checked here; the token
// coordinator does that downstream.
package guard

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/iam-recruit/dashboard/internal/metrics"
	"github.com/rs/zerolog/log"
)

// Decision is the outcome of Decide.
type Decision int

const (
	Pass Decision = iota
	RedirectToLogin
	RedirectToLanding
)

func (d Decision) String() string {
	switch d {
	case RedirectToLogin:
		return "login"
	case RedirectToLanding:
		return "landing"
	default:
		return "pass"
	}
}

type Config struct {
	APIPrefix      string
	PrivatePrefix  []string
	PublicPrefix   []string
	LoginRoute     string
	LandingRoute   string
	CookieName     string
	StaticPrefixes []string
	StaticSuffixes []string
}

// DefaultConfig is the dashboard's route table.
func DefaultConfig() Config {
	return Config{
		APIPrefix:      "/api",
		PrivatePrefix:  []string{"/inicio", "/vacantes", "/postulaciones", "/settings"},
		PublicPrefix:   []string{"/iniciar-sesion", "/registrarse"},
		LoginRoute:     "/iniciar-sesion",
		LandingRoute:   "/vacantes",
		CookieName:     "refreshToken",
		StaticPrefixes: []string{"/_next/static", "/_next/image", "/favicon.ico"},
		StaticSuffixes: []string{".svg", ".png", ".jpg", ".jpeg", ".gif", ".webp"},
	}
}

// Decide applies the rules in order. hasCookie reports whether the refresh
// cookie is present.
func (c Config) Decide(path string, hasCookie bool) Decision {
	if hasPrefix(path, c.APIPrefix) || c.isStatic(path) {
		return Pass
	}
	if !hasCookie && c.matchAny(path, c.PrivatePrefix) {
		return RedirectToLogin
	}
	if hasCookie && c.matchAny(path, c.PublicPrefix) {
		return RedirectToLanding
	}
	return Pass
}

func (c Config) isStatic(path string) bool {
	for _, p := range c.StaticPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	lower := strings.ToLower(path)
	for _, s := range c.StaticSuffixes {
		if strings.HasSuffix(lower, s) {
			return true
		}
	}
	return false
}

func (c Config) matchAny(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if hasPrefix(path, p) {
			return true
		}
	}
	return false
}

// hasPrefix matches whole path segments, so "/apis" is not under "/api".
func hasPrefix(path, prefix string) bool {
	if prefix == "" || !strings.HasPrefix(path, prefix) {
		return false
	}
	return len(path) == len(prefix) || path[len(prefix)] == '/' || strings.HasSuffix(prefix, "/")
}

// Middleware returns the guard as net/http middleware. m may be nil.
func Middleware(cfg Config, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			decision := cfg.Decide(path, hasCookie(r, cfg.CookieName))
			m.GuardDecision(decision.String())

			switch decision {
			case RedirectToLogin:
				target := cfg.LoginRoute + "?" + url.Values{"redirect": {path}}.Encode()
				log.Debug().Str("path", path).Str("target", target).Msg("guard: private route without session")
				http.Redirect(w, r, target, http.StatusTemporaryRedirect)
			case RedirectToLanding:
				log.Debug().Str("path", path).Msg("guard: public route with session")
				http.Redirect(w, r, cfg.LandingRoute, http.StatusTemporaryRedirect)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

func hasCookie(r *http.Request, name string) bool {
	c, err := r.Cookie(name)
	return err == nil && c.Value != ""
}
