package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/iam-recruit/dashboard/internal/recruit"
	"github.com/spf13/cobra"
)

func applicationsCmd(tab *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "applications",
		Aliases: []string{"apps"},
		Short:   "Review applications and upload CVs",
	}
	cmd.AddCommand(
		applicationsListCmd(tab),
		applicationsShowCmd(tab),
		applicationsStatusCmd(tab),
		applicationsUploadCmd(tab),
	)
	return cmd
}

func applicationsListCmd(tab *string) *cobra.Command {
	var opts recruit.ApplicationsOptions
	var status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List applications",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Status = recruit.ApplicationStatus(status)
			if opts.Status != "" && !opts.Status.Valid() {
				return fmt.Errorf("unknown status %q", status)
			}
			return withSession(tab, func(ctx context.Context, s *session) error {
				apps, err := s.recruit.ListApplications(ctx, opts)
				if err != nil {
					return err
				}
				if len(apps) == 0 {
					fmt.Println(mutedStyle.Render("No hay aplicaciones."))
					return nil
				}

				tw := newTable(os.Stdout, "ID", "CANDIDATE", "STATUS", "SCORE", "APPLIED")
				for _, a := range apps {
					row(tw, a.ID, candidateName(a.Candidate), a.Status.Label(), score(a.AIScore), a.AppliedAt)
				}
				return tw.Flush()
			})(cmd.Context())
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.JobID, "job", "", "filter by job id")
	f.StringVar(&status, "status", "", "filter by status")
	f.IntVar(&opts.Skip, "skip", 0, "number of applications to skip")
	f.IntVar(&opts.Limit, "limit", 0, "maximum number of applications")
	f.StringVar(&opts.OrderBy, "order-by", "", "sort field, e.g. ai_score or applied_at")
	f.StringVar(&opts.OrderDirection, "order", "", "asc or desc")
	return cmd
}

func applicationsShowCmd(tab *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show <application-id>",
		Short: "Show an application with its AI evaluation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(tab, func(ctx context.Context, s *session) error {
				app, err := s.recruit.GetApplication(ctx, args[0])
				if err != nil {
					return err
				}
				printApplication(app)
				return nil
			})(cmd.Context())
		},
	}
}

func applicationsStatusCmd(tab *string) *cobra.Command {
	var names []string
	for _, s := range []recruit.ApplicationStatus{
		recruit.ApplicationApplied,
		recruit.ApplicationInReview,
		recruit.ApplicationInterviewing,
		recruit.ApplicationOffered,
		recruit.ApplicationHired,
		recruit.ApplicationRejected,
		recruit.ApplicationWithdrawn,
	} {
		names = append(names, string(s))
	}

	return &cobra.Command{
		Use:       "status <application-id> <status>",
		Short:     "Move an application to another stage",
		Long:      "Move an application to another stage. Valid stages: " + strings.Join(names, ", ") + ".",
		Args:      cobra.ExactArgs(2),
		ValidArgs: names,
		RunE: func(cmd *cobra.Command, args []string) error {
			status := recruit.ApplicationStatus(args[1])
			if !status.Valid() {
				return fmt.Errorf("unknown status %q; valid: %s", args[1], strings.Join(names, ", "))
			}
			return withSession(tab, func(ctx context.Context, s *session) error {
				app, err := s.recruit.UpdateApplicationStatus(ctx, args[0], status)
				if err != nil {
					return err
				}
				fmt.Println(successStyle.Render("✓ Estatus actualizado: " + app.Status.Label()))
				return nil
			})(cmd.Context())
		},
	}
}

func applicationsUploadCmd(tab *string) *cobra.Command {
	var jobID string

	cmd := &cobra.Command{
		Use:   "upload <cv-file>",
		Short: "Upload a CV to a job and print its evaluation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if jobID == "" {
				return fmt.Errorf("--job is required")
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read CV: %w", err)
			}
			return withSession(tab, func(ctx context.Context, s *session) error {
				app, err := s.recruit.UploadApplication(ctx, jobID, filepath.Base(args[0]), data)
				if err != nil {
					return err
				}
				printApplication(app)
				return nil
			})(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&jobID, "job", "", "job id to apply to")
	return cmd
}

func printApplication(app *recruit.Application) {
	fmt.Println(titleStyle.Render(candidateName(app.Candidate)))
	if app.Candidate != nil {
		fmt.Printf("Correo:   %s\n", app.Candidate.Email)
		fmt.Printf("Teléfono: %s\n", orDash(app.Candidate.Phone))
	}
	fmt.Printf("Estado:   %s\n", app.Status.Label())
	fmt.Printf("Puntaje:  %s\n", score(app.AIScore))
	if app.AIRecommendation != nil {
		fmt.Printf("Veredicto: %s\n", *app.AIRecommendation)
	}
	if app.AISummary != nil && *app.AISummary != "" {
		fmt.Println()
		fmt.Println(*app.AISummary)
	}
	fmt.Print(bulletList("Fortalezas", app.AIStrengths))
	fmt.Print(bulletList("Debilidades", app.AIWeaknesses))
	fmt.Print(bulletList("Requisitos faltantes", app.AIMissingRequirements))
}

func candidatesCmd(tab *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "candidates [candidate-id]",
		Short: "List candidates, or show one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(tab, func(ctx context.Context, s *session) error {
				if len(args) == 1 {
					c, err := s.recruit.GetCandidate(ctx, args[0])
					if err != nil {
						return err
					}
					fmt.Println(titleStyle.Render(orDash(c.FirstName) + " " + orDash(c.LastName)))
					fmt.Printf("Correo:    %s\n", c.Email)
					fmt.Printf("Teléfono:  %s\n", orDash(c.Phone))
					fmt.Printf("Ubicación: %s, %s\n", orDash(c.Location), orDash(c.Country))
					fmt.Printf("LinkedIn:  %s\n", orDash(c.LinkedInURL))
					fmt.Printf("GitHub:    %s\n", orDash(c.GithubURL))
					return nil
				}

				candidates, err := s.recruit.ListCandidates(ctx)
				if err != nil {
					return err
				}
				tw := newTable(os.Stdout, "ID", "NAME", "EMAIL", "COUNTRY")
				for _, c := range candidates {
					row(tw, c.ID, orDash(c.FirstName)+" "+orDash(c.LastName), c.Email, orDash(c.Country))
				}
				return tw.Flush()
			})(cmd.Context())
		},
	}
	return cmd
}

func confirmationsCmd(tab *string) *cobra.Command {
	return &cobra.Command{
		Use:   "confirmations",
		Short: "List pending forwarding confirmations from mail providers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(tab, func(ctx context.Context, s *session) error {
				confirmations, err := s.recruit.ForwardingConfirmations(ctx)
				if err != nil {
					return err
				}
				tw := newTable(os.Stdout, "PROVIDER", "JOB", "RECEIVED", "URL")
				for _, c := range confirmations {
					job := "-"
					if c.Job != nil {
						job = c.Job.Role
					}
					row(tw, c.Provider, job, c.ReceivedAt, c.ConfirmationURL)
				}
				return tw.Flush()
			})(cmd.Context())
		},
	}
}
