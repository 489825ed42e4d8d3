// Package bff is the backend-for-frontend: it owns the refresh cookie,
// proxies /api calls to the recruiting API, and gates page routes.
package bff

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/iam-recruit/dashboard/internal/guard"
	"github.com/iam-recruit/dashboard/internal/metrics"
	"github.com/iam-recruit/dashboard/internal/upstream"
	"github.com/rs/zerolog/log"
)

type Options struct {
	// API is nil when API_URL is not configured; /api routes then answer 500.
	API           *upstream.Client
	SecureCookies bool
	Guard         guard.Config
	Metrics       *metrics.Metrics
	// Pages serves everything outside /api. Optional.
	Pages http.Handler
}

type Server struct {
	api     *upstream.Client
	cookies cookiePolicy
	guard   guard.Config
	metrics *metrics.Metrics
	pages   http.Handler
}

func New(opts Options) *Server {
	return &Server{
		api:     opts.API,
		cookies: cookiePolicy{secure: opts.SecureCookies},
		guard:   opts.Guard,
		metrics: opts.Metrics,
		pages:   opts.Pages,
	}
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(guard.Middleware(s.guard, s.metrics))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(s.requireAPI)

		r.Post("/auth/login", s.handleLogin)
		r.Post("/auth/google", s.handleGoogle)
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/refresh", s.handleRefresh)
		r.Post("/auth/logout", s.handleLogout)
		r.Get("/auth/me", s.handleMe)

		r.Get("/*", s.handleProxy)
		r.Post("/*", s.handleProxy)
		r.Put("/*", s.handleProxy)
		r.Patch("/*", s.handleProxy)
		r.Delete("/*", s.handleProxy)
	})

	if s.pages != nil {
		r.Handle("/*", s.pages)
	}
	return r
}

func (s *Server) requireAPI(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.api == nil {
			log.Error().Msg("API_URL is not configured")
			writeMessage(w, http.StatusInternalServerError, msgServerConfig)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			log.Info().
				Str("requestId", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Msg("request")
		}()
		next.ServeHTTP(ww, r)
	})
}
