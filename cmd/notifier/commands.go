package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"classroom-notifier/internal/app"
	"classroom-notifier/internal/messaging"
	"classroom-notifier/internal/search"
	"classroom-notifier/internal/service"
	"classroom-notifier/internal/sweep"
)

const dayLayout = "2006-01-02"

func sweepCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run one reminder and new-content sweep over all users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				report, err := a.Service.Sweep(ctx)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), report)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "users=%d courses=%d reminders=%d new_content=%d errors=%d skipped=%d took=%s\n",
					report.Users, report.Courses, report.RemindersSent, report.NewContentSent,
					report.Errors, len(report.SkippedUsers), report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output the sweep report as JSON")
	return cmd
}

func searchCmd() *cobra.Command {
	var (
		kind     string
		course   string
		from     string
		to       string
		keywords []string
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "search <user-id> [free text...]",
		Short: "Query a user's indexed content",
		Long: `Query a user's indexed content.

With flags the filter is built directly; otherwise the remaining arguments
are read as free text.

Examples:
  notifier search u1 homework due this week
  notifier search u1 --type assignment --from 2024-05-01 --to 2024-05-07
  notifier search u1 --course physics --keyword vectors --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				req := service.SearchRequest{UserID: args[0], Query: strings.Join(args[1:], " ")}
				if kind != "" || course != "" || from != "" || to != "" || len(keywords) > 0 {
					filter, err := buildFilter(kind, course, from, to, keywords, a.Search.Location())
					if err != nil {
						return err
					}
					req.Filter = &filter
				}

				resp, err := a.Service.Search(ctx, req)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), struct {
						Count   int           `json:"count"`
						Filter  search.Filter `json:"filter"`
						Results any           `json:"results"`
					}{len(resp.Records), resp.Filter, resp.Records})
				}
				fmt.Fprintln(cmd.OutOrStdout(), messaging.PlainText(resp.Text))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&kind, "type", "t", "", "assignment, announcement or material")
	cmd.Flags().StringVarP(&course, "course", "c", "", "course name substring")
	cmd.Flags().StringVar(&from, "from", "", "first day, YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "last day, YYYY-MM-DD")
	cmd.Flags().StringSliceVarP(&keywords, "keyword", "k", nil, "keywords, any of which must match")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

// buildFilter turns CLI flags into a filter. Day bounds are inclusive and
// read in loc.
func buildFilter(kind, course, from, to string, keywords []string, loc *time.Location) (search.Filter, error) {
	filter := search.Filter{Type: kind, Course: course, Keywords: keywords}
	if from == "" && to == "" {
		return filter, nil
	}

	filter.DateRange = &search.DateRange{}
	if from != "" {
		start, err := time.ParseInLocation(dayLayout, from, loc)
		if err != nil {
			return search.Filter{}, fmt.Errorf("invalid --from %q: %w", from, err)
		}
		filter.DateRange.From = &start
	}
	if to != "" {
		day, err := time.ParseInLocation(dayLayout, to, loc)
		if err != nil {
			return search.Filter{}, fmt.Errorf("invalid --to %q: %w", to, err)
		}
		end := day.AddDate(0, 0, 1).Add(-time.Nanosecond)
		filter.DateRange.To = &end
	}
	return filter, nil
}

func syncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync <user-id>",
		Short: "Index every course of a registered user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				stats, err := a.Service.SyncUser(ctx, args[0])
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), stats)
			})
		},
	}
}

func registerCmd() *cobra.Command {
	var (
		credential string
		name       string
	)
	cmd := &cobra.Command{
		Use:   "register <user-id> <handle>",
		Short: "Register a user and the messaging handle reminders go to",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				user, err := a.Service.RegisterUser(ctx, service.RegisterRequest{
					ID:            args[0],
					Handle:        args[1],
					DisplayName:   name,
					CredentialRef: credential,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "registered %s -> %s\n", user.ID, user.Handle)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&credential, "credential", "", "content-source credential reference")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	return cmd
}

func scheduleCmd() *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Show the next sweep times for SWEEP_CRON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			schedule, err := sweep.ParseSchedule(cfg.SweepCron)
			if err != nil {
				return err
			}
			next := time.Now().UTC()
			for i := 0; i < count; i++ {
				next = schedule.Next(next)
				fmt.Fprintln(cmd.OutOrStdout(), next.Format(time.RFC3339))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 5, "number of runs to show")
	return cmd
}
