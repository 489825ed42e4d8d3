package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/go-resty/resty/v2"
	"github.com/iam-recruit/dashboard/internal/config"
	"github.com/spf13/cobra"
)

func setupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Write the recruitctl config file",
		Long: formatText(`
			Ask for the dashboard address and write it to the config file
			together with a generated session key. An existing key is kept
			so stored sessions stay readable.
		`),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isInteractiveTerminal() {
				return errors.New("setup needs an interactive terminal; set RECRUIT_BFF_URL and RECRUIT_TOKEN_KEY instead")
			}
			return runSetupWizard(cmd.Context())
		},
	}
}

func runSetupWizard(ctx context.Context) error {
	config.LoadEnvFile()
	cfg := config.LoadCLI()

	fmt.Println()
	fmt.Println(titleStyle.Render("IAM Recruit - Setup"))
	fmt.Println()

	bffURL := cfg.BFFURL
	rotate := false

	fields := []huh.Field{
		huh.NewInput().
			Title("Dashboard URL").
			Description("Address of the dashboard server, e.g. https://recruit.example.com").
			Value(&bffURL).
			Validate(func(s string) error {
				if s == "" {
					return errors.New("URL is required")
				}
				return checkDashboard(ctx, s)
			}),
	}
	if cfg.TokenKey != "" {
		fields = append(fields, huh.NewConfirm().
			Title("Generate a new session key?").
			Description("Stored sessions become unreadable and you will need to log in again.").
			Value(&rotate))
	}

	form := huh.NewForm(huh.NewGroup(fields...)).WithTheme(huh.ThemeBase16())
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println("\nSetup cancelled.")
			return nil
		}
		return err
	}

	values := map[string]string{"RECRUIT_BFF_URL": bffURL}
	if cfg.TokenKey == "" || rotate {
		key, err := config.GenerateTokenKey()
		if err != nil {
			return err
		}
		values["RECRUIT_TOKEN_KEY"] = key
		if rotate {
			// The old key cannot open the existing database.
			if err := os.Remove(cfg.DBPath); err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("failed to remove old session store: %w", err)
			}
		}
	}

	path, err := config.SaveEnvFile(values)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(successStyle.Render("✓ Configuration saved"))
	fmt.Println(mutedStyle.Render("  " + path))
	fmt.Println()
	return nil
}

// checkDashboard pings the server's health route.
func checkDashboard(ctx context.Context, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("must be an absolute http(s) URL")
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	res, err := resty.New().R().SetContext(ctx).Get(u.JoinPath("/healthz").String())
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return errors.New("connection timed out")
		}
		return errors.New("connection failed")
	}
	if !res.IsSuccess() {
		return fmt.Errorf("unexpected response (HTTP %d)", res.StatusCode())
	}
	return nil
}
