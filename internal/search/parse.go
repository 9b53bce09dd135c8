package search

import (
	"slices"
	"strings"
	"time"
	"unicode"

	"classroom-notifier/internal/content"
)

// typeWords map request words to the record type they ask for.
var typeWords = map[string]content.Kind{
	"assignment":    content.KindAssignment,
	"assignments":   content.KindAssignment,
	"homework":      content.KindAssignment,
	"homeworks":     content.KindAssignment,
	"hw":            content.KindAssignment,
	"coursework":    content.KindAssignment,
	"material":      content.KindMaterial,
	"materials":     content.KindMaterial,
	"slides":        content.KindMaterial,
	"announcement":  content.KindAnnouncement,
	"announcements": content.KindAnnouncement,
}

// ParseText builds a Filter from a free-text request such as
// "homework due tomorrow about vectors". It recognizes type words, the
// phrases today, tomorrow, this week and next week, and keeps the remaining content
// words as keywords. Course names are not recognized.
func ParseText(text string, now time.Time, loc *time.Location) Filter {
	if loc == nil {
		loc = time.UTC
	}
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	var filter Filter
	for _, w := range words {
		if kind, ok := typeWords[w]; ok && filter.Type == "" {
			filter.Type = string(kind)
		}
	}

	today := startOfDay(now, loc)
	switch {
	case slices.Contains(words, "today"):
		filter.DateRange = dayRange(today, 1)
	case slices.Contains(words, "tomorrow"):
		filter.DateRange = dayRange(today.AddDate(0, 0, 1), 1)
	case followedBy(words, "next", "week"):
		filter.DateRange = dayRange(today.AddDate(0, 0, 7), 7)
	case slices.Contains(words, "week"):
		filter.DateRange = dayRange(today, 7)
	}

	for _, k := range content.ExtractQueryKeywords(text) {
		if _, isType := typeWords[k]; !isType {
			filter.Keywords = append(filter.Keywords, k)
		}
	}
	return filter
}

func followedBy(words []string, first, second string) bool {
	for i := 0; i+1 < len(words); i++ {
		if words[i] == first && words[i+1] == second {
			return true
		}
	}
	return false
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// dayRange covers days whole days starting at start.
func dayRange(start time.Time, days int) *DateRange {
	end := start.AddDate(0, 0, days).Add(-time.Nanosecond)
	return &DateRange{From: &start, To: &end}
}
