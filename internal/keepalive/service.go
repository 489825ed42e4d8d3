// Package keepalive keeps a long-lived session warm by running the token
// coordinator on a fixed interval.
package keepalive

import (
	"context"
	"errors"
	"time"

	"github.com/iam-recruit/dashboard/internal/auth"
	"github.com/rs/zerolog/log"
)

// DefaultInterval stays under the access token lifetime.
const DefaultInterval = 10 * time.Minute

type Service struct {
	tokens   auth.TokenSource
	interval time.Duration

	// OnExpired is called once when the refresh credential is rejected.
	OnExpired func()
}

func NewService(tokens auth.TokenSource, interval time.Duration) *Service {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Service{tokens: tokens, interval: interval}
}

// Run checks the session immediately and then on every tick. It blocks
// until ctx is cancelled or the session expires, in which case it returns
// auth.ErrSessionExpired.
func (s *Service) Run(ctx context.Context) error {
	log.Info().Dur("interval", s.interval).Msg("starting session keep-alive")

	if err := s.check(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("stopping session keep-alive")
			return ctx.Err()
		case <-ticker.C:
			if err := s.check(ctx); err != nil {
				return err
			}
		}
	}
}

func (s *Service) check(ctx context.Context) error {
	token, err := s.tokens.EnsureValidToken(ctx)
	switch {
	case errors.Is(err, auth.ErrSessionExpired):
		log.Warn().Msg("session expired, stopping keep-alive")
		if s.OnExpired != nil {
			s.OnExpired()
		}
		return err
	case err != nil:
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Error().Err(err).Msg("session check failed")
	case token == "":
		log.Warn().Msg("no session, will retry on next tick")
	default:
		log.Debug().Msg("session is valid")
	}
	return nil
}
