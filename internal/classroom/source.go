// Package classroom talks to the external course content source.
package classroom

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_source.go -package=mocks classroom-notifier/internal/classroom Source

import (
	"context"
	"errors"

	"classroom-notifier/internal/content"
	"classroom-notifier/internal/storage"
)

var (
	// ErrMissingCredential means the user has no usable credential. The user
	// should be skipped until they sign in again.
	ErrMissingCredential = errors.New("missing or rejected credential")
	// ErrUnavailable wraps transport failures and unexpected responses.
	ErrUnavailable = errors.New("content source unavailable")
)

// Source lists a user's courses and course content.
type Source interface {
	// ListCourses returns the courses the user is enrolled in.
	ListCourses(ctx context.Context, user storage.User) ([]content.Course, error)
	// ListItems returns every item of the given kind in a course.
	ListItems(ctx context.Context, user storage.User, courseID string, kind content.Kind) ([]content.SourceItem, error)
	// IsSubmitted reports whether the user has turned in the assignment.
	IsSubmitted(ctx context.Context, user storage.User, courseID, itemID string) (bool, error)
}
