package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/iam-recruit/dashboard/internal/recruit"
	"github.com/spf13/cobra"
)

func jobsCmd(tab *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List and manage job postings",
	}
	cmd.AddCommand(
		jobsListCmd(tab),
		jobsShowCmd(tab),
		jobsCreateCmd(tab),
		jobsForwardingCmd(tab),
		areasCmd(tab),
	)
	return cmd
}

func jobsListCmd(tab *string) *cobra.Command {
	var opts recruit.JobsOptions
	var status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List job postings",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Status = recruit.JobStatus(status)
			return withSession(tab, func(ctx context.Context, s *session) error {
				jobs, err := s.recruit.ListJobs(ctx, opts)
				if err != nil {
					return err
				}
				if len(jobs) == 0 {
					fmt.Println(mutedStyle.Render("No hay vacantes."))
					return nil
				}

				tw := newTable(os.Stdout, "ID", "ROLE", "AREA", "STATUS")
				for _, j := range jobs {
					row(tw, j.ID, j.Role, j.AreaName, jobStatusLabel(j.Status))
				}
				return tw.Flush()
			})(cmd.Context())
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of jobs")
	cmd.Flags().StringVar(&status, "status", "", "filter by status (open, draft, closed)")
	cmd.Flags().StringVar(&opts.AreaID, "area", "", "filter by area id")
	return cmd
}

func jobsShowCmd(tab *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show <job-id>",
		Short: "Show a job posting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(tab, func(ctx context.Context, s *session) error {
				job, err := s.recruit.GetJob(ctx, args[0])
				if err != nil {
					return err
				}

				fmt.Println(titleStyle.Render(job.Role))
				fmt.Printf("Área:        %s\n", job.AreaName)
				fmt.Printf("Estado:      %s\n", jobStatusLabel(job.Status))
				fmt.Printf("Experiencia: %d años\n", job.MinExperienceYears)
				fmt.Printf("Educación:   %s\n", job.MinEducation)
				fmt.Printf("Ubicación:   %s (%s, %s)\n", job.LocationType, orDash(job.LocationCity), orDash(job.LocationCountry))
				if job.EmailIngestToken.Token != "" {
					fmt.Printf("Ingesta:     %s\n", job.EmailIngestToken.Token)
				}
				if job.Observations != nil && *job.Observations != "" {
					fmt.Printf("Notas:       %s\n", *job.Observations)
				}
				fmt.Print(bulletList("Habilidades", job.RequiredSkills))
				return nil
			})(cmd.Context())
		},
	}
}

func jobsCreateCmd(tab *string) *cobra.Command {
	var in recruit.JobInput
	var status string
	var salaryMin, salaryMax float64

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a job posting",
		RunE: func(cmd *cobra.Command, args []string) error {
			if in.Role == "" || in.Area == "" {
				return errors.New("--role and --area are required")
			}
			in.Status = recruit.JobStatus(status)
			if cmd.Flags().Changed("salary-min") {
				in.SalaryMin = &salaryMin
			}
			if cmd.Flags().Changed("salary-max") {
				in.SalaryMax = &salaryMax
			}
			for i, skill := range in.RequiredSkills {
				in.RequiredSkills[i] = strings.TrimSpace(skill)
			}

			return withSession(tab, func(ctx context.Context, s *session) error {
				job, err := s.recruit.CreateJob(ctx, in)
				if err != nil {
					return err
				}
				fmt.Println(successStyle.Render("✓ Vacante creada"))
				fmt.Println(mutedStyle.Render("  " + job.ID))
				return nil
			})(cmd.Context())
		},
	}

	f := cmd.Flags()
	f.StringVar(&in.Role, "role", "", "job title")
	f.StringVar(&in.Area, "area", "", "area key")
	f.IntVar(&in.MinExperienceYears, "experience", 0, "minimum years of experience")
	f.StringVar(&in.MinEducation, "education", "", "minimum education")
	f.StringSliceVar(&in.RequiredSkills, "skill", nil, "required skill (repeatable)")
	f.StringVar(&in.LocationType, "location-type", "remote", "remote, hybrid or on_site")
	f.StringVar(&in.LocationCountry, "country", "", "location country")
	f.StringVar(&in.LocationCity, "city", "", "location city")
	f.Float64Var(&salaryMin, "salary-min", 0, "minimum salary")
	f.Float64Var(&salaryMax, "salary-max", 0, "maximum salary")
	f.StringVar(&in.Observations, "notes", "", "observations")
	f.StringVar(&status, "status", string(recruit.JobStatusDraft), "open, draft or closed")
	f.IntVar(&in.AIStrictMode, "strict", 0, "AI evaluation strictness")
	return cmd
}

func jobsForwardingCmd(tab *string) *cobra.Command {
	var sendTest bool

	cmd := &cobra.Command{
		Use:   "forwarding <job-id>",
		Short: "Check email forwarding for a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(tab, func(ctx context.Context, s *session) error {
				if sendTest {
					if err := s.recruit.TestEmailForwarding(ctx, args[0]); err != nil {
						return err
					}
					fmt.Println(successStyle.Render("✓ Correo de prueba enviado"))
				}

				status, err := s.recruit.EmailForwardingStatus(ctx, args[0])
				if err != nil {
					return err
				}
				if status.Verified() {
					fmt.Println(successStyle.Render("✓ Reenvío verificado"))
					return nil
				}
				fmt.Println(warnStyle.Render("Reenvío pendiente de confirmación"))
				if status.ConfirmationURL != "" {
					fmt.Printf("%s: %s\n", status.Provider, status.ConfirmationURL)
				}
				return nil
			})(cmd.Context())
		},
	}

	cmd.Flags().BoolVar(&sendTest, "test", false, "send a test email first")
	return cmd
}

func areasCmd(tab *string) *cobra.Command {
	var activeOnly bool

	cmd := &cobra.Command{
		Use:   "areas",
		Short: "List job areas",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(tab, func(ctx context.Context, s *session) error {
				areas, err := s.recruit.ListJobAreas(ctx, activeOnly)
				if err != nil {
					return err
				}

				tw := newTable(os.Stdout, "ID", "KEY", "NAME", "ACTIVE")
				for _, a := range areas {
					active := "no"
					if a.IsActive {
						active = "yes"
					}
					row(tw, a.ID, a.Key, a.Name, active)
				}
				return tw.Flush()
			})(cmd.Context())
		},
	}

	cmd.Flags().BoolVar(&activeOnly, "active", false, "only active areas")
	cmd.AddCommand(areasSaveCmd(tab), areasDeleteCmd(tab))
	return cmd
}

func areasSaveCmd(tab *string) *cobra.Command {
	var in recruit.JobAreaInput
	var id string
	var active bool

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Create an area, or update it when --id is given",
		RunE: func(cmd *cobra.Command, args []string) error {
			if in.Name == "" {
				return errors.New("--name is required")
			}
			if cmd.Flags().Changed("active") {
				in.IsActive = &active
			}
			return withSession(tab, func(ctx context.Context, s *session) error {
				area, err := s.recruit.SaveJobArea(ctx, id, in)
				if err != nil {
					return err
				}
				fmt.Println(successStyle.Render("✓ Área guardada"))
				fmt.Println(mutedStyle.Render("  " + area.ID))
				return nil
			})(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "area id to update")
	cmd.Flags().StringVar(&in.Name, "name", "", "area name")
	cmd.Flags().StringVar(&in.Color, "color", "", "display color")
	cmd.Flags().BoolVar(&active, "active", true, "whether the area is active")
	return cmd
}

func areasDeleteCmd(tab *string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <area-id>",
		Short: "Delete a job area",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(tab, func(ctx context.Context, s *session) error {
				if err := s.recruit.DeleteJobArea(ctx, args[0]); err != nil {
					return err
				}
				fmt.Println(successStyle.Render("✓ Área eliminada"))
				return nil
			})(cmd.Context())
		},
	}
}
