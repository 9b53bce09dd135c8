package reminder

import (
	"slices"
	"time"
)

// Outcome is what a reminder check concluded for one item.
type Outcome string

const (
	// OutcomeSend means the threshold in the decision is due.
	OutcomeSend Outcome = "send"
	// OutcomeNotDue means the due time is beyond the largest threshold.
	OutcomeNotDue Outcome = "not_due"
	// OutcomeExpired means the due time has passed.
	OutcomeExpired Outcome = "expired"
	// OutcomeNothingPending means every reached threshold is already in the ledger.
	OutcomeNothingPending Outcome = "nothing_pending"
	// OutcomeSubmitted means the user already turned the work in.
	OutcomeSubmitted Outcome = "submitted"
	// OutcomeIgnored means the record is not an assignment with a due date.
	OutcomeIgnored Outcome = "ignored"
)

// Decision is the result of Decide.
type Decision struct {
	Outcome Outcome
	// Threshold and Label are set when Outcome is OutcomeSend.
	Threshold time.Duration
	Label     string
	// Until is the time left before the due time.
	Until time.Duration
}

// Decide picks the reminder to send for an item due at due, given the labels
// already in its ledger. It scans thresholds largest first and returns the
// first reached one that has not been sent, so at most one reminder is chosen
// per call. A threshold skipped over between two calls is not sent later.
func Decide(policy Policy, ledger []string, due, now time.Time) Decision {
	until := due.Sub(now)
	d := Decision{Until: until}

	switch {
	case until < 0:
		d.Outcome = OutcomeExpired
		return d
	case until > policy.Max()+policy.Grace:
		d.Outcome = OutcomeNotDue
		return d
	}

	for _, threshold := range policy.Thresholds {
		if until > threshold {
			continue
		}
		label := Label(threshold)
		if slices.Contains(ledger, label) {
			continue
		}
		d.Outcome = OutcomeSend
		d.Threshold = threshold
		d.Label = label
		return d
	}

	d.Outcome = OutcomeNothingPending
	return d
}
