// Package notify delivers cart notifications to logs and to NATS.
package notify

import (
	"context"
	"log/slog"

	"github.com/rl1809/storefront-cart/internal/port"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

func deliver(ctx context.Context, n port.Notifier, level Level, message string) {
	if level == LevelSuccess {
		n.Success(ctx, message)
		return
	}
	n.Error(ctx, message)
}

// LogNotifier writes notifications to the service log.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With("component", "notify")}
}

func (n *LogNotifier) Success(ctx context.Context, message string) {
	n.logger.InfoContext(ctx, "Notification", "kind", LevelSuccess, "message", message)
}

func (n *LogNotifier) Error(ctx context.Context, message string) {
	n.logger.WarnContext(ctx, "Notification", "kind", LevelError, "message", message)
}

// Fanout forwards every notification to all of its targets.
type Fanout []port.Notifier

func (f Fanout) Success(ctx context.Context, message string) {
	for _, n := range f {
		n.Success(ctx, message)
	}
}

func (f Fanout) Error(ctx context.Context, message string) {
	for _, n := range f {
		n.Error(ctx, message)
	}
}
