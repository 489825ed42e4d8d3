package guard

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func serve(t *testing.T, path string, withCookie bool) *httptest.ResponseRecorder {
	t.Helper()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, path, nil)
	if withCookie {
		req.AddCookie(&http.Cookie{Name: "refreshToken", Value: "r1"})
	}
	rec := httptest.NewRecorder()
	Middleware(DefaultConfig(), nil)(next).ServeHTTP(rec, req)
	return rec
}

func TestMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		cookie     bool
		wantStatus int
		wantTarget string
	}{
		{"private without cookie", "/vacantes", false, http.StatusTemporaryRedirect, "/iniciar-sesion?redirect=%2Fvacantes"},
		{"nested private without cookie", "/vacantes/j1/postulaciones", false, http.StatusTemporaryRedirect, "/iniciar-sesion?redirect=%2Fvacantes%2Fj1%2Fpostulaciones"},
		{"private with cookie", "/vacantes", true, http.StatusOK, ""},
		{"login with cookie", "/iniciar-sesion", true, http.StatusTemporaryRedirect, "/vacantes"},
		{"register with cookie", "/registrarse", true, http.StatusTemporaryRedirect, "/vacantes"},
		{"login without cookie", "/iniciar-sesion", false, http.StatusOK, ""},
		{"api without cookie", "/api/anything", false, http.StatusOK, ""},
		{"api with cookie", "/api/auth/refresh", true, http.StatusOK, ""},
		{"static asset", "/_next/static/chunk.js", false, http.StatusOK, ""},
		{"image under private prefix", "/vacantes/logo.png", false, http.StatusOK, ""},
		{"unlisted route", "/", false, http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, tt.path, tt.cookie)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantTarget, rec.Header().Get("Location"))
		})
	}
}

func TestDecide_SegmentBoundaries(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, Pass, cfg.Decide("/vacantesx", false))
	assert.Equal(t, RedirectToLogin, cfg.Decide("/inicio", false))
	assert.Equal(t, Pass, cfg.Decide("/apis", false))
}

func TestDecide_PrivatePages(t *testing.T) {
	cfg := DefaultConfig()

	for _, path := range []string{"/inicio", "/vacantes/j1/candidatos", "/postulaciones", "/postulaciones/a1", "/settings"} {
		assert.Equal(t, RedirectToLogin, cfg.Decide(path, false), path)
		assert.Equal(t, Pass, cfg.Decide(path, true), path)
	}
	assert.Equal(t, Pass, cfg.Decide("/configuracion", false))
}

func TestMiddleware_EmptyCookieCountsAsMissing(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	req := httptest.NewRequest(http.MethodGet, "/settings", nil)
	req.AddCookie(&http.Cookie{Name: "refreshToken", Value: ""})
	rec := httptest.NewRecorder()

	Middleware(DefaultConfig(), nil)(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
}
