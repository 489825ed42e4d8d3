// Command recruitctl is a terminal client for the recruiting dashboard. It
// keeps the refresh cookie in an encrypted local database and re-establishes
// the access token on every run.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/iam-recruit/dashboard/internal/auth"
	"github.com/spf13/cobra"
)

func main() {
	var tab string

	rootCmd := &cobra.Command{
		Use:           "recruitctl",
		Short:         "Manage job postings and applications from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&tab, "tab", "cli", "session tab id; tabs keep separate new-account state")

	rootCmd.AddCommand(
		loginCmd(&tab),
		registerCmd(&tab),
		logoutCmd(&tab),
		whoamiCmd(&tab),
		jobsCmd(&tab),
		applicationsCmd(&tab),
		candidatesCmd(&tab),
		confirmationsCmd(&tab),
		keepaliveCmd(&tab),
		setupCmd(),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, describeError(err))
		cancel()
		os.Exit(1)
	}
}

// describeError turns session failures into the messages the dashboard shows.
func describeError(err error) string {
	var apiErr *auth.APIError
	switch {
	case errors.Is(err, auth.ErrSessionExpired):
		return formatText(`
			%s
			%s. Run "recruitctl login".
		`, auth.SessionExpiredNotice.Title, auth.SessionExpiredNotice.Description)
	case errors.Is(err, auth.ErrUnauthorized):
		return `Not logged in. Run "recruitctl login".`
	case errors.As(err, &apiErr) && apiErr.Message != "":
		return "Error: " + apiErr.Message
	default:
		return "Error: " + err.Error()
	}
}
