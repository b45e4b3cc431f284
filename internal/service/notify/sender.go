package notify

import (
	"context"

	"modmarket/internal/model"
)

// Sender delivers a notification over one side channel. Senders are
// best-effort: a failed delivery is logged and dropped, never retried
// against the durable record.
type Sender interface {
	// Name identifies the channel (also the circuit breaker key)
	Name() string

	// Enabled reports whether the user opted in and has the channel set up
	Enabled(u *model.User) bool

	// Send delivers the notification
	Send(ctx context.Context, u *model.User, title, body string) error
}
