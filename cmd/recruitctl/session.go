package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/iam-recruit/dashboard/internal/api"
	"github.com/iam-recruit/dashboard/internal/auth"
	"github.com/iam-recruit/dashboard/internal/config"
	"github.com/iam-recruit/dashboard/internal/recruit"
	"github.com/iam-recruit/dashboard/internal/storage"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// session wires the auth core against the BFF for one CLI invocation.
type session struct {
	db          *storage.SQLiteStore
	store       *auth.Store
	coordinator *auth.Coordinator
	account     *auth.Account
	recruit     *recruit.Client
}

func openSession(tab string) (*session, error) {
	config.LoadEnvFile()
	cfg := config.LoadCLI()

	zerolog.SetGlobalLevel(cfg.Level())
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if missing := cfg.Missing(); len(missing) > 0 {
		return nil, fmt.Errorf("missing required config: %s (run \"recruitctl setup\")", strings.Join(missing, ", "))
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	db, err := storage.NewSQLiteStore(cfg.DBPath, cfg.TokenKey)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}

	client := auth.NewHTTPClient(cfg.BFFURL, storage.NewJar(db))
	store := auth.NewStore(storage.NewTabMarker(db, tab))
	refresher := auth.NewRefresher(client)
	coordinator := auth.NewCoordinator(store, auth.NewVerifier(client), refresher, nil)
	fetcher := api.NewFetcher(client, coordinator, refresher, store, nil)

	log.Debug().Str("bff", cfg.BFFURL).Str("db", cfg.DBPath).Str("tab", tab).Msg("session opened")

	return &session{
		db:          db,
		store:       store,
		coordinator: coordinator,
		account:     auth.NewAccount(client, store),
		recruit:     recruit.NewClient(fetcher),
	}, nil
}

func (s *session) Close() error {
	return s.db.Close()
}

// withSession opens a session for one command.
func withSession(tab *string, fn func(ctx context.Context, s *session) error) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		s, err := openSession(*tab)
		if err != nil {
			return err
		}
		defer s.Close()
		return fn(ctx, s)
	}
}
