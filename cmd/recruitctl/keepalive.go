package main

import (
	"context"
	"errors"
	"time"

	"github.com/iam-recruit/dashboard/internal/auth"
	"github.com/iam-recruit/dashboard/internal/keepalive"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func keepaliveCmd(tab *string) *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "keepalive",
		Short: "Keep the session warm until interrupted",
		Long: formatText(`
			Re-validate the session on a fixed interval so the refresh cookie
			never goes stale. Exits when the session expires.
		`),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(tab, func(ctx context.Context, s *session) error {
				unsubscribe := s.store.Subscribe(func(st auth.State) {
					log.Debug().Bool("authenticated", st.AccessToken != "").Msg("session state changed")
				})
				defer unsubscribe()

				svc := keepalive.NewService(s.coordinator, interval)
				svc.OnExpired = s.store.ClearAuth

				err := svc.Run(ctx)
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			})(cmd.Context())
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", keepalive.DefaultInterval, "check interval")
	return cmd
}
