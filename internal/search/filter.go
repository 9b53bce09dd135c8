// Package search answers filtered keyword queries over a user's indexed records.
package search

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"classroom-notifier/internal/content"
)

// ErrInvalidFilter is returned for filters that can never be satisfied.
var ErrInvalidFilter = errors.New("invalid filter")

// Filter selects records. Every field is optional; set fields are AND-combined.
type Filter struct {
	// Type matches the record type exactly, ignoring case.
	Type string `json:"type,omitempty"`
	// Course matches a substring of the course name, ignoring case.
	Course    string     `json:"course,omitempty"`
	DateRange *DateRange `json:"dateRange,omitempty"`
	// Keywords match when any one of them occurs in the record text.
	Keywords []string `json:"keywords,omitempty"`
}

// DateRange is an inclusive time range. A nil bound is open.
type DateRange struct {
	From *time.Time `json:"from,omitempty"`
	To   *time.Time `json:"to,omitempty"`
}

// Validate rejects unknown types and reversed ranges.
func (f Filter) Validate() error {
	if t := strings.TrimSpace(f.Type); t != "" {
		if _, ok := content.ParseKind(t); !ok {
			return fmt.Errorf("%w: unknown type %q", ErrInvalidFilter, t)
		}
	}
	if r := f.DateRange; r != nil && r.From != nil && r.To != nil && r.From.After(*r.To) {
		return fmt.Errorf("%w: range starts after it ends", ErrInvalidFilter)
	}
	return nil
}

// Match reports whether rec passes every set criterion. Due dates are
// resolved in loc.
func (f Filter) Match(rec content.Record, loc *time.Location) bool {
	if t := strings.TrimSpace(f.Type); t != "" && !strings.EqualFold(t, string(rec.Type)) {
		return false
	}
	if c := strings.TrimSpace(f.Course); c != "" && !strings.Contains(strings.ToLower(rec.CourseName), strings.ToLower(c)) {
		return false
	}
	if f.DateRange != nil && !f.DateRange.contains(rec, loc) {
		return false
	}
	if tokens := f.keywords(); len(tokens) > 0 && !containsAny(searchText(rec), tokens) {
		return false
	}
	return true
}

func (f Filter) keywords() []string {
	tokens := make([]string, 0, len(f.Keywords))
	for _, k := range f.Keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			tokens = append(tokens, k)
		}
	}
	return tokens
}

// contains tests the due timestamp when there is one, else the creation time.
func (r *DateRange) contains(rec content.Record, loc *time.Location) bool {
	at, ok := rec.DueAt(loc)
	if !ok {
		if rec.CreatedTime.IsZero() {
			return false
		}
		at = rec.CreatedTime
	}
	if r.From != nil && at.Before(*r.From) {
		return false
	}
	if r.To != nil && at.After(*r.To) {
		return false
	}
	return true
}

func searchText(rec content.Record) string {
	return strings.ToLower(rec.Title + " " + rec.Description + " " + strings.Join(rec.Keywords, " "))
}

func containsAny(text string, tokens []string) bool {
	for _, token := range tokens {
		if strings.Contains(text, token) {
			return true
		}
	}
	return false
}

// Dedup drops records whose link, or (id, title) when there is no link, was
// already seen. The first occurrence wins and order is kept.
func Dedup(records []content.Record) []content.Record {
	seen := make(map[string]struct{}, len(records))
	out := make([]content.Record, 0, len(records))
	for _, rec := range records {
		key := "id:" + rec.ID + "\x00" + rec.Title
		if rec.Link != "" {
			key = "link:" + rec.Link
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, rec)
	}
	return out
}
