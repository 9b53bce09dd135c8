package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"classroom-notifier/internal/classroom"
	"classroom-notifier/internal/content"
	"classroom-notifier/internal/contextutil"
	"classroom-notifier/internal/messaging"
	"classroom-notifier/internal/metrics"
	"classroom-notifier/internal/storage"
)

// LedgerStore reads and extends the per item and user reminder ledger.
type LedgerStore interface {
	Ledger(ctx context.Context, itemID, userID string) ([]string, error)
	RecordSent(ctx context.Context, itemID, userID, label string) error
}

// SubmissionChecker reports whether a user turned in an assignment.
type SubmissionChecker interface {
	IsSubmitted(ctx context.Context, user storage.User, courseID, itemID string) (bool, error)
}

// Engine checks assignments against a Policy and delivers reminders.
type Engine struct {
	policy      Policy
	ledger      LedgerStore
	submissions SubmissionChecker
	messenger   messaging.Messenger
	metrics     *metrics.Metrics
	callTimeout time.Duration
	logger      *slog.Logger
}

// NewEngine creates a reminder engine. callTimeout bounds each call to the
// content source and the messenger; zero means no bound.
func NewEngine(policy Policy, ledger LedgerStore, submissions SubmissionChecker, messenger messaging.Messenger, m *metrics.Metrics, callTimeout time.Duration) *Engine {
	return &Engine{
		policy:      policy,
		ledger:      ledger,
		submissions: submissions,
		messenger:   messenger,
		metrics:     m,
		callTimeout: callTimeout,
		logger:      slog.Default(),
	}
}

// Policy returns the policy the engine decides with.
func (e *Engine) Policy() Policy {
	return e.policy
}

// CheckItem sends at most one reminder for rec. The ledger is written only
// after the message was delivered, so a failed send is retried next sweep.
func (e *Engine) CheckItem(ctx context.Context, user storage.User, rec content.Record, now time.Time) (Decision, error) {
	if rec.Type != content.KindAssignment {
		return Decision{Outcome: OutcomeIgnored}, nil
	}
	due, ok := rec.DueAt(e.policy.location())
	if !ok {
		return Decision{Outcome: OutcomeIgnored}, nil
	}

	ledger, err := e.ledger.Ledger(ctx, rec.ID, user.ID)
	if err != nil {
		return Decision{}, fmt.Errorf("failed to load ledger: %w", err)
	}

	decision := Decide(e.policy, ledger, due, now)
	if decision.Outcome != OutcomeSend {
		return decision, nil
	}

	submitted, err := e.isSubmitted(ctx, user, rec)
	if err != nil {
		return Decision{}, fmt.Errorf("failed to check submission: %w", err)
	}
	if submitted {
		decision.Outcome = OutcomeSubmitted
		return decision, nil
	}

	if err := e.send(ctx, user.Handle, messaging.FormatReminder(rec, decision.Label, due)); err != nil {
		e.metrics.DeliveryError()
		return Decision{}, fmt.Errorf("failed to send reminder: %w", err)
	}
	e.metrics.ReminderSent(decision.Label)

	if err := e.ledger.RecordSent(ctx, rec.ID, user.ID, decision.Label); err != nil {
		return decision, fmt.Errorf("reminder sent but not recorded, it may repeat: %w", err)
	}
	return decision, nil
}

// CheckRecords runs CheckItem over records and returns how many reminders
// went out. Item failures are logged and skipped; a rejected credential
// stops the run for this user.
func (e *Engine) CheckRecords(ctx context.Context, user storage.User, records []content.Record, now time.Time) (int, error) {
	logger := contextutil.LoggerOr(ctx, e.logger)

	sent := 0
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return sent, err
		}

		decision, err := e.CheckItem(ctx, user, rec, now)
		if decision.Outcome == OutcomeSend {
			sent++
			logger.InfoContext(ctx, "reminder sent", "item_id", rec.ID, "threshold", decision.Label, "until", decision.Until)
		}
		if err != nil {
			if errors.Is(err, classroom.ErrMissingCredential) {
				return sent, err
			}
			logger.ErrorContext(ctx, "reminder check failed", "item_id", rec.ID, "error", err)
		}
	}
	return sent, nil
}

func (e *Engine) isSubmitted(ctx context.Context, user storage.User, rec content.Record) (bool, error) {
	callCtx, cancel := contextutil.WithTimeout(ctx, e.callTimeout)
	defer cancel()
	return e.submissions.IsSubmitted(callCtx, user, rec.CourseID, rec.ID)
}

func (e *Engine) send(ctx context.Context, handle, text string) error {
	callCtx, cancel := contextutil.WithTimeout(ctx, e.callTimeout)
	defer cancel()
	return e.messenger.Send(callCtx, handle, text)
}
