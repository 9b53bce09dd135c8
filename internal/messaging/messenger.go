// Package messaging delivers notification text to users and formats it.
package messaging

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_messenger.go -package=mocks classroom-notifier/internal/messaging Messenger

import (
	"context"
	"errors"
	"log/slog"

	"classroom-notifier/internal/contextutil"
)

// ErrDeliveryFailed is returned when a message could not be delivered.
var ErrDeliveryFailed = errors.New("message delivery failed")

// Messenger pushes text to an opaque recipient handle.
type Messenger interface {
	Send(ctx context.Context, handle, text string) error
}

// LogMessenger writes messages to the log instead of delivering them.
// It is used when no messaging endpoint is configured.
type LogMessenger struct {
	logger *slog.Logger
}

// NewLogMessenger creates a messenger that only logs.
func NewLogMessenger() *LogMessenger {
	return &LogMessenger{logger: slog.Default()}
}

// Send logs the message at info level.
func (m *LogMessenger) Send(ctx context.Context, handle, text string) error {
	contextutil.LoggerOr(ctx, m.logger).InfoContext(ctx, "message", "to", handle, "text", text)
	return nil
}
