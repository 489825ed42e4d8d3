package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/iam-recruit/dashboard/internal/auth"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func loginCmd(tab *string) *cobra.Command {
	var email, googleToken string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password, or a Google ID token",
		Long: formatText(`
			Sign in to the dashboard. The password is read from the first line
			of stdin, prompted for on a terminal, or taken from RECRUIT_PASSWORD.
		`),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(tab, func(ctx context.Context, s *session) error {
				var err error
				if googleToken != "" {
					err = s.account.LoginWithGoogle(ctx, googleToken)
				} else {
					if email == "" {
						return errors.New("--email or --google-token is required")
					}
					password, perr := readPassword()
					if perr != nil {
						return perr
					}
					err = s.account.Login(ctx, email, password)
				}
				if err != nil {
					return err
				}
				return printWelcome(ctx, s)
			})(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&googleToken, "google-token", "", "Google ID token")
	return cmd
}

func registerCmd(tab *string) *cobra.Command {
	var req auth.RegisterRequest

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a company account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(tab, func(ctx context.Context, s *session) error {
				if req.CompanyName == "" || req.Email == "" {
					return errors.New("--company and --email are required")
				}
				password, err := readPassword()
				if err != nil {
					return err
				}
				req.Password = password
				if err := s.account.Register(ctx, req); err != nil {
					return err
				}
				return printWelcome(ctx, s)
			})(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&req.CompanyName, "company", "", "company name")
	cmd.Flags().StringVar(&req.Email, "email", "", "account email")
	return cmd
}

func logoutCmd(tab *string) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(tab, func(ctx context.Context, s *session) error {
				s.account.Logout(ctx)
				fmt.Println("Sesión cerrada exitosamente")
				return nil
			})(cmd.Context())
		},
	}
}

func whoamiCmd(tab *string) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(tab, func(ctx context.Context, s *session) error {
				res, err := auth.Bootstrap(ctx, s.coordinator, s.store, "/inicio")
				if err != nil {
					return err
				}
				if res.Notice != nil {
					return auth.ErrSessionExpired
				}
				if res.Token == "" {
					return auth.ErrUnauthorized
				}

				me, err := s.recruit.Me(ctx)
				if err != nil {
					return err
				}
				fmt.Println(me.Email)
				if s.store.IsNewAccount() {
					fmt.Println(mutedStyle.Render(`New account: create your first job with "recruitctl jobs create".`))
				}
				return nil
			})(cmd.Context())
		},
	}
}

func printWelcome(ctx context.Context, s *session) error {
	me, err := s.recruit.Me(ctx)
	if err != nil {
		return err
	}
	fmt.Println(successStyle.Render("✓ Signed in as " + me.Email))
	return nil
}

func readPassword() (string, error) {
	if p := os.Getenv("RECRUIT_PASSWORD"); p != "" {
		return p, nil
	}
	fmt.Fprint(os.Stderr, "Password: ")
	if term.IsTerminal(int(os.Stdin.Fd())) {
		b, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(b), nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
