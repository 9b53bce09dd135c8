package content

import (
	"strings"
	"time"
	"unicode/utf8"
)

const (
	untitledAssignment   = "Untitled"
	untitledAnnouncement = "Untitled Announcement"
	untitledMaterial     = "Untitled Material"

	// announcementTitleRunes bounds the title derived from announcement text.
	announcementTitleRunes = 100
)

// Normalize maps a raw source item into the canonical record for userID.
// Missing optional fields never cause a failure; they are left empty.
func Normalize(userID string, course Course, item SourceItem) Record {
	rec := Record{
		UserID:     userID,
		CourseID:   course.ID,
		CourseName: course.Name,
	}

	switch it := item.(type) {
	case Assignment:
		rec.ID = it.ID
		rec.Type = KindAssignment
		rec.Title = orDefault(it.Title, untitledAssignment)
		rec.Description = it.Description
		rec.CreatedTime = it.CreationTime
		rec.UpdateTime = firstSet(it.UpdateTime, it.CreationTime)
		rec.DueDate = it.DueDate
		rec.DueTime = it.DueTime
		rec.Link = orDefault(it.Link, it.AlternateLink)
		rec.Raw = it.Raw
	case Announcement:
		rec.ID = it.ID
		rec.Type = KindAnnouncement
		rec.Title = orDefault(announcementTitle(it.Text), untitledAnnouncement)
		rec.Description = it.Text
		rec.CreatedTime = it.CreationTime
		rec.UpdateTime = firstSet(it.UpdateTime, it.CreationTime)
		rec.Link = orDefault(it.Link, it.AlternateLink)
		rec.Raw = it.Raw
	case Material:
		rec.ID = it.ID
		rec.Type = KindMaterial
		rec.Title = orDefault(it.Title, untitledMaterial)
		rec.Description = it.Description
		rec.CreatedTime = firstSet(it.UpdateTime, it.CreationTime)
		rec.UpdateTime = rec.CreatedTime
		rec.Link = orDefault(it.Link, it.AlternateLink)
		rec.Raw = it.Raw
	}

	rec.Keywords = ExtractKeywords(rec.Title, rec.Description)
	return rec
}

// announcementTitle uses the first non-blank line of the text, trimmed to
// announcementTitleRunes.
func announcementTitle(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if utf8.RuneCountInString(line) > announcementTitleRunes {
			runes := []rune(line)
			line = string(runes[:announcementTitleRunes]) + "…"
		}
		return line
	}
	return ""
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func firstSet(times ...time.Time) time.Time {
	for _, t := range times {
		if !t.IsZero() {
			return t
		}
	}
	return time.Time{}
}
