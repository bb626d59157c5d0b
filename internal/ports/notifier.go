package ports

import "context"

// Notifier publishes session lifecycle events (session completed, long-break
// reminders) to an external topic. Best effort: callers log and continue on
// failure.
type Notifier interface {
	Publish(ctx context.Context, topic string, payload []byte) error
}
