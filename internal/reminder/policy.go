// Package reminder decides when due-date reminders go out and sends them.
package reminder

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidPolicy is returned for unusable threshold configurations.
var ErrInvalidPolicy = errors.New("invalid reminder policy")

const (
	PolicyNameStandard = "standard"
	PolicyNameLegacy   = "legacy"
)

// Policy is the threshold set and time base reminders are computed with.
type Policy struct {
	Name string
	// Thresholds are the lead times before the due time, largest first.
	Thresholds []time.Duration
	// Grace extends the not-due cutoff past the largest threshold. It does
	// not move the thresholds themselves.
	Grace time.Duration
	// Location resolves due dates and times that carry no zone.
	Location *time.Location
}

// PolicyStandard reminds 24, 12, 6, 2 and 1 hours before the due time, in UTC.
func PolicyStandard() Policy {
	return Policy{
		Name:       PolicyNameStandard,
		Thresholds: hours(24, 12, 6, 2, 1),
		Location:   time.UTC,
	}
}

// PolicyLegacy reminds 24, 12, 6 and 2 hours before the due time, in UTC.
// Pair it with a fixed-offset Location to reproduce local-offset deployments.
func PolicyLegacy() Policy {
	return Policy{
		Name:       PolicyNameLegacy,
		Thresholds: hours(24, 12, 6, 2),
		Location:   time.UTC,
	}
}

// PolicyByName returns a built-in policy.
func PolicyByName(name string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", PolicyNameStandard:
		return PolicyStandard(), nil
	case PolicyNameLegacy:
		return PolicyLegacy(), nil
	}
	return Policy{}, fmt.Errorf("%w: unknown policy %q", ErrInvalidPolicy, name)
}

// NewPolicy builds a custom policy. Thresholds are sorted largest first and
// duplicates removed.
func NewPolicy(name string, thresholds []time.Duration, grace time.Duration, loc *time.Location) (Policy, error) {
	if len(thresholds) == 0 {
		return Policy{}, fmt.Errorf("%w: no thresholds", ErrInvalidPolicy)
	}
	if grace < 0 {
		return Policy{}, fmt.Errorf("%w: negative grace %s", ErrInvalidPolicy, grace)
	}
	sorted := slices.Clone(thresholds)
	for _, d := range sorted {
		if d <= 0 {
			return Policy{}, fmt.Errorf("%w: threshold %s must be positive", ErrInvalidPolicy, d)
		}
	}
	slices.Sort(sorted)
	slices.Reverse(sorted)
	sorted = slices.Compact(sorted)

	if loc == nil {
		loc = time.UTC
	}
	return Policy{Name: name, Thresholds: sorted, Grace: grace, Location: loc}, nil
}

// ParseThresholds parses a comma-separated list. Bare numbers are hours;
// anything else must be a Go duration such as 90m.
func ParseThresholds(s string) ([]time.Duration, error) {
	var out []time.Duration
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if n, err := strconv.ParseFloat(part, 64); err == nil {
			out = append(out, time.Duration(n*float64(time.Hour)))
			continue
		}
		d, err := time.ParseDuration(part)
		if err != nil {
			return nil, fmt.Errorf("%w: threshold %q", ErrInvalidPolicy, part)
		}
		out = append(out, d)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no thresholds in %q", ErrInvalidPolicy, s)
	}
	return out, nil
}

// Max is the largest threshold.
func (p Policy) Max() time.Duration {
	if len(p.Thresholds) == 0 {
		return 0
	}
	return p.Thresholds[0]
}

func (p Policy) location() *time.Location {
	if p.Location == nil {
		return time.UTC
	}
	return p.Location
}

// Label is the ledger entry for a threshold: "24h", or "90m" for partial hours.
func Label(d time.Duration) string {
	if d%time.Hour == 0 {
		return fmt.Sprintf("%dh", d/time.Hour)
	}
	return fmt.Sprintf("%dm", d/time.Minute)
}

func hours(hs ...int) []time.Duration {
	out := make([]time.Duration, len(hs))
	for i, h := range hs {
		out[i] = time.Duration(h) * time.Hour
	}
	return out
}
