package sweep

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/robfig/cron/v3"

	"classroom-notifier/internal/contextutil"
)

// SweepFunc runs one sweep.
type SweepFunc func(ctx context.Context) (Report, error)

// ParseSchedule parses a standard five-field cron expression.
func ParseSchedule(expr string) (cron.Schedule, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	schedule, err := parser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return schedule, nil
}

// Scheduler triggers sweeps on a cron schedule.
type Scheduler struct {
	scheduler gocron.Scheduler
	schedule  cron.Schedule
	expr      string
	run       SweepFunc
	logger    *slog.Logger
}

// NewScheduler creates a scheduler that calls run on every tick of expr, in UTC.
func NewScheduler(expr string, run SweepFunc) (*Scheduler, error) {
	schedule, err := ParseSchedule(expr)
	if err != nil {
		return nil, err
	}

	scheduler, err := gocron.NewScheduler(
		gocron.WithLocation(time.UTC),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &Scheduler{
		scheduler: scheduler,
		schedule:  schedule,
		expr:      expr,
		run:       run,
		logger:    slog.Default(),
	}, nil
}

// Start registers the sweep job and starts ticking. Sweeps run with ctx, so
// cancelling it stops a running sweep between units.
func (s *Scheduler) Start(ctx context.Context) error {
	logger := contextutil.LoggerOr(ctx, s.logger)

	_, err := s.scheduler.NewJob(
		gocron.CronJob(s.expr, false),
		gocron.NewTask(func() {
			s.tick(ctx)
		}),
		gocron.WithName("sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to create sweep job: %w", err)
	}

	s.scheduler.Start()
	logger.InfoContext(ctx, "sweep scheduler started", "cron", s.expr, "next_run", s.NextRun(time.Now()))
	return nil
}

func (s *Scheduler) tick(ctx context.Context) {
	logger := contextutil.LoggerOr(ctx, s.logger)

	report, err := s.run(ctx)
	switch {
	case errors.Is(err, ErrSweepInProgress):
		logger.InfoContext(ctx, "previous sweep still running, skipping tick")
	case err != nil:
		logger.ErrorContext(ctx, "scheduled sweep failed", "error", err)
	default:
		logger.DebugContext(ctx, "scheduled sweep finished", "reminders", report.RemindersSent, "new_content", report.NewContentSent)
	}
}

// NextRun returns the first tick after now.
func (s *Scheduler) NextRun(now time.Time) time.Time {
	return s.schedule.Next(now.UTC())
}

// Stop waits for a running sweep and stops the scheduler.
func (s *Scheduler) Stop() error {
	return s.scheduler.Shutdown()
}
