// Package sweep runs the periodic reminder and new-content pass over every
// registered user.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"classroom-notifier/internal/classroom"
	"classroom-notifier/internal/content"
	"classroom-notifier/internal/contextutil"
	"classroom-notifier/internal/metrics"
	"classroom-notifier/internal/storage"
)

// UserLister enumerates registered users.
type UserLister interface {
	List(ctx context.Context) ([]storage.User, error)
}

// CourseLister lists a user's courses.
type CourseLister interface {
	ListCourses(ctx context.Context, user storage.User) ([]content.Course, error)
}

// CourseIndexer fetches and indexes course content.
type CourseIndexer interface {
	IndexCourse(ctx context.Context, user storage.User, course content.Course, kinds ...content.Kind) ([]content.Record, error)
}

// ReminderChecker sends due-date reminders for a batch of records.
type ReminderChecker interface {
	CheckRecords(ctx context.Context, user storage.User, records []content.Record, now time.Time) (int, error)
}

// NewContentChecker announces content published since the last sweep.
type NewContentChecker interface {
	SweepCourse(ctx context.Context, user storage.User, course content.Course, now time.Time) (int, error)
}

// Options tune a Runner.
type Options struct {
	// Concurrency bounds how many users are processed at once.
	Concurrency int
	// CallTimeout bounds each call to list courses.
	CallTimeout time.Duration
	// UnitTimeout bounds the work for one course.
	UnitTimeout time.Duration
	// MaxDuration bounds the whole sweep; it should not exceed the run-lock TTL.
	MaxDuration time.Duration
}

// Report summarizes one sweep.
type Report struct {
	StartedAt      time.Time `json:"startedAt"`
	FinishedAt     time.Time `json:"finishedAt"`
	Users          int       `json:"users"`
	Courses        int       `json:"courses"`
	RemindersSent  int       `json:"remindersSent"`
	NewContentSent int       `json:"newContentSent"`
	Errors         int       `json:"errors"`
	// SkippedUsers lists users whose credential was missing or rejected.
	SkippedUsers []string `json:"skippedUsers"`
}

// Runner executes sweeps.
type Runner struct {
	users      UserLister
	courses    CourseLister
	indexer    CourseIndexer
	reminders  ReminderChecker
	newContent NewContentChecker
	locker     Locker
	metrics    *metrics.Metrics
	opts       Options
	now        func() time.Time
	logger     *slog.Logger
}

// NewRunner creates a sweep runner. A nil locker uses a LocalLocker.
func NewRunner(
	users UserLister,
	courses CourseLister,
	indexer CourseIndexer,
	reminders ReminderChecker,
	newContent NewContentChecker,
	locker Locker,
	m *metrics.Metrics,
	opts Options,
) *Runner {
	if locker == nil {
		locker = NewLocalLocker()
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	return &Runner{
		users:      users,
		courses:    courses,
		indexer:    indexer,
		reminders:  reminders,
		newContent: newContent,
		locker:     locker,
		metrics:    m,
		opts:       opts,
		now:        time.Now,
		logger:     slog.Default(),
	}
}

// RunSweep processes every registered user once. Failures of single users or
// courses are logged, counted in the report and skipped. It fails with
// ErrSweepInProgress when another sweep holds the run-lock.
func (r *Runner) RunSweep(ctx context.Context) (Report, error) {
	logger := contextutil.LoggerOr(ctx, r.logger)
	start := r.now()
	report := Report{StartedAt: start, SkippedUsers: []string{}}

	release, err := r.locker.Acquire(ctx)
	if err != nil {
		if errors.Is(err, ErrSweepInProgress) {
			r.metrics.SweepFinished("busy", 0, start)
		} else {
			r.metrics.SweepFinished("error", 0, start)
		}
		return report, err
	}
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := release(releaseCtx); err != nil {
			logger.WarnContext(ctx, "failed to release run-lock", "error", err)
		}
	}()

	ctx, cancel := contextutil.WithTimeout(ctx, r.opts.MaxDuration)
	defer cancel()

	users, err := r.users.List(ctx)
	if err != nil {
		r.metrics.SweepFinished("error", r.now().Sub(start), r.now())
		return report, fmt.Errorf("failed to list users: %w", err)
	}

	logger.InfoContext(ctx, "starting sweep", "users", len(users), "concurrency", r.opts.Concurrency)

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(r.opts.Concurrency)
	for _, user := range users {
		if ctx.Err() != nil {
			break
		}
		user := user
		g.Go(func() error {
			part := r.sweepUser(ctx, user, start)
			mu.Lock()
			report.merge(part)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	report.FinishedAt = r.now()
	took := report.FinishedAt.Sub(start)
	if err := ctx.Err(); err != nil {
		r.metrics.SweepFinished("error", took, report.FinishedAt)
		logger.WarnContext(ctx, "sweep cut short", "error", err, "users", report.Users)
		return report, err
	}

	r.metrics.SweepFinished("ok", took, report.FinishedAt)
	logger.InfoContext(ctx, "sweep completed",
		"users", report.Users,
		"courses", report.Courses,
		"reminders", report.RemindersSent,
		"new_content", report.NewContentSent,
		"errors", report.Errors,
		"skipped_users", len(report.SkippedUsers),
		"duration", took,
	)
	return report, nil
}

// sweepUser runs every course of one user in turn.
func (r *Runner) sweepUser(ctx context.Context, user storage.User, now time.Time) Report {
	logger := contextutil.LoggerOr(ctx, r.logger).With("user_id", user.ID)
	ctx = contextutil.WithLogger(ctx, logger)
	part := Report{Users: 1}

	skip := func(err error) Report {
		logger.WarnContext(ctx, "skipping user", "error", err)
		r.metrics.UserSkipped()
		part.SkippedUsers = append(part.SkippedUsers, user.ID)
		return part
	}

	callCtx, cancel := contextutil.WithTimeout(ctx, r.opts.CallTimeout)
	courses, err := r.courses.ListCourses(callCtx, user)
	cancel()
	if err != nil {
		if errors.Is(err, classroom.ErrMissingCredential) {
			return skip(err)
		}
		logger.ErrorContext(ctx, "failed to list courses", "error", err)
		part.Errors++
		return part
	}

	for _, course := range courses {
		if ctx.Err() != nil {
			return part
		}
		if err := r.sweepCourse(ctx, user, course, now, &part); err != nil {
			return skip(err)
		}
	}
	return part
}

// sweepCourse runs reminders then the new-content check for one course. It
// returns an error only when the user's credential was rejected.
func (r *Runner) sweepCourse(ctx context.Context, user storage.User, course content.Course, now time.Time, part *Report) error {
	logger := contextutil.LoggerFromContext(ctx).With("course_id", course.ID)
	ctx, cancel := contextutil.WithTimeout(contextutil.WithLogger(ctx, logger), r.opts.UnitTimeout)
	defer cancel()

	part.Courses++

	assignments, err := r.indexer.IndexCourse(ctx, user, course, content.KindAssignment)
	switch {
	case errors.Is(err, classroom.ErrMissingCredential):
		return err
	case err != nil:
		part.Errors++
		logger.ErrorContext(ctx, "failed to fetch assignments", "error", err)
	default:
		sent, err := r.reminders.CheckRecords(ctx, user, assignments, now)
		part.RemindersSent += sent
		if errors.Is(err, classroom.ErrMissingCredential) {
			return err
		}
		if err != nil {
			part.Errors++
			logger.ErrorContext(ctx, "reminder check failed", "error", err)
		}
	}

	sent, err := r.newContent.SweepCourse(ctx, user, course, now)
	part.NewContentSent += sent
	switch {
	case errors.Is(err, classroom.ErrMissingCredential):
		return err
	case err != nil:
		part.Errors++
		logger.ErrorContext(ctx, "new content check failed", "error", err)
	}
	return nil
}

func (r *Report) merge(o Report) {
	r.Users += o.Users
	r.Courses += o.Courses
	r.RemindersSent += o.RemindersSent
	r.NewContentSent += o.NewContentSent
	r.Errors += o.Errors
	r.SkippedUsers = append(r.SkippedUsers, o.SkippedUsers...)
}
