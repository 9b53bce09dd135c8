package content

import (
	"encoding/json"
	"time"
)

// SourceItem is one raw item as delivered by the content source.
// The set of implementations is closed: Assignment, Announcement and Material.
type SourceItem interface {
	Kind() Kind
	ItemID() string
	sourceItem()
}

// Assignment is a piece of course work with an optional due date.
type Assignment struct {
	ID            string
	Title         string
	Description   string
	DueDate       *Date
	DueTime       *TimeOfDay
	CreationTime  time.Time
	UpdateTime    time.Time
	Link          string
	AlternateLink string
	Raw           json.RawMessage
}

// Announcement is a free-text course stream post.
type Announcement struct {
	ID            string
	Text          string
	CreationTime  time.Time
	UpdateTime    time.Time
	Link          string
	AlternateLink string
	Raw           json.RawMessage
}

// Material is a course work material such as slides or a reading.
type Material struct {
	ID            string
	Title         string
	Description   string
	CreationTime  time.Time
	UpdateTime    time.Time
	Link          string
	AlternateLink string
	Raw           json.RawMessage
}

func (Assignment) Kind() Kind { return KindAssignment }
func (a Assignment) ItemID() string { return a.ID }
func (Assignment) sourceItem() {}

func (Announcement) Kind() Kind { return KindAnnouncement }
func (a Announcement) ItemID() string { return a.ID }
func (Announcement) sourceItem() {}

func (Material) Kind() Kind { return KindMaterial }
func (m Material) ItemID() string { return m.ID }
func (Material) sourceItem() {}
