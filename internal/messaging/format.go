package messaging

import (
	"fmt"
	"strings"
	"time"

	"classroom-notifier/internal/content"
)

const (
	// maxListed bounds how many search results go into one message.
	maxListed = 10
	// maxAnnouncementText bounds the announcement body quoted in a notification.
	maxAnnouncementText = 500

	dueLayout = "Mon 02 Jan 15:04 MST"
)

// FormatReminder renders a due-date reminder for the threshold label.
func FormatReminder(rec content.Record, label string, due time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Reminder: **%s** (%s) is due within %s, at %s.", rec.Title, rec.CourseName, label, due.Format(dueLayout))
	writeLink(&b, rec.Link)
	return b.String()
}

// FormatNewMaterial renders a new-material alert.
func FormatNewMaterial(rec content.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "New material in %s: **%s**", rec.CourseName, rec.Title)
	writeLink(&b, rec.Link)
	return b.String()
}

// FormatNewAnnouncement renders a new-announcement alert quoting its text.
func FormatNewAnnouncement(rec content.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "New announcement in %s:\n\n%s", rec.CourseName, truncate(rec.Description, maxAnnouncementText))
	writeLink(&b, rec.Link)
	return b.String()
}

// FormatNewContent picks the phrasing for rec's kind.
func FormatNewContent(rec content.Record) string {
	if rec.Type == content.KindAnnouncement {
		return FormatNewAnnouncement(rec)
	}
	return FormatNewMaterial(rec)
}

// FormatSearchResults renders a numbered list of matches.
func FormatSearchResults(records []content.Record, loc *time.Location) string {
	if len(records) == 0 {
		return "No matching items found."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d item(s):\n", len(records))
	for i, rec := range records {
		if i == maxListed {
			fmt.Fprintf(&b, "\n...and %d more.", len(records)-maxListed)
			break
		}
		fmt.Fprintf(&b, "\n%d. [%s] **%s** (%s)", i+1, rec.Type, rec.Title, rec.CourseName)
		if due, ok := rec.DueAt(loc); ok {
			fmt.Fprintf(&b, ", due %s", due.Format(dueLayout))
		}
		if rec.Link != "" {
			fmt.Fprintf(&b, "\n   %s", rec.Link)
		}
	}
	return b.String()
}

// PlainText drops the bold markers the templates emit, for recipients that
// do not render markdown.
func PlainText(text string) string {
	return strings.ReplaceAll(text, "**", "")
}

func writeLink(b *strings.Builder, link string) {
	if link != "" {
		b.WriteString("\n")
		b.WriteString(link)
	}
}

func truncate(s string, limit int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "…"
}
