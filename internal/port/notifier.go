package port

import "context"

// Notifier delivers user-facing messages. Delivery is fire-and-forget.
type Notifier interface {
	Success(ctx context.Context, message string)
	Error(ctx context.Context, message string)
}
