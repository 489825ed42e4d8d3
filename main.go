package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/iam-recruit/dashboard/internal/bff"
	"github.com/iam-recruit/dashboard/internal/config"
	"github.com/iam-recruit/dashboard/internal/guard"
	"github.com/iam-recruit/dashboard/internal/metrics"
	"github.com/iam-recruit/dashboard/internal/upstream"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	config.LoadEnvFile()
	cfg := config.LoadServer()
	zerolog.SetGlobalLevel(cfg.Level())

	// JOURNAL_STREAM is set by systemd; keep plain JSON lines there.
	if _, underSystemd := os.LookupEnv("JOURNAL_STREAM"); !underSystemd {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// A missing API_URL is not fatal: /api answers 500 so the pages still load.
	if missing := cfg.Missing(); len(missing) > 0 {
		log.Error().Str("missing", strings.Join(missing, ", ")).Msg("required config is not set")
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	var api *upstream.Client
	if cfg.APIURL != "" {
		api = upstream.New(cfg.APIURL, m)
	}

	var pages http.Handler
	if cfg.WebRoot != "" {
		pages = http.FileServer(http.Dir(cfg.WebRoot))
	}

	server := bff.New(bff.Options{
		API:           api,
		SecureCookies: cfg.Production(),
		Guard:         guard.DefaultConfig(),
		Metrics:       m,
		Pages:         pages,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return serve(ctx, "bff", &http.Server{
			Addr:              cfg.ListenAddr,
			Handler:           server.Routes(),
			ReadHeaderTimeout: 10 * time.Second,
		})
	})

	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler(reg))
		g.Go(func() error {
			return serve(ctx, "metrics", &http.Server{
				Addr:              cfg.MetricsAddr,
				Handler:           mux,
				ReadHeaderTimeout: 10 * time.Second,
			})
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("shutdown with error")
		os.Exit(1)
	}
	log.Info().Msg("shutdown complete")
}

// serve runs srv until ctx is cancelled, then shuts it down gracefully.
func serve(ctx context.Context, name string, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("server", name).Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Str("server", name).Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
