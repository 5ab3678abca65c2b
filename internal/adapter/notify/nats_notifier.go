package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Event is the payload published for every notification.
type Event struct {
	ID        uuid.UUID `json:"id"`
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Publisher is the subset of jetstream.JetStream the notifier uses.
type Publisher interface {
	Publish(ctx context.Context, subject string, payload []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// NATSNotifier publishes notifications to a JetStream subject for the storefront to show.
type NATSNotifier struct {
	js      Publisher
	subject string
	logger  *slog.Logger
}

func NewNATSNotifier(js Publisher, subject string, logger *slog.Logger) *NATSNotifier {
	return &NATSNotifier{
		js:      js,
		subject: subject,
		logger:  logger.With("component", "notify", "subject", subject),
	}
}

func (n *NATSNotifier) Success(ctx context.Context, message string) {
	n.publish(ctx, LevelSuccess, message)
}

func (n *NATSNotifier) Error(ctx context.Context, message string) {
	n.publish(ctx, LevelError, message)
}

func (n *NATSNotifier) publish(ctx context.Context, level Level, message string) {
	evt := Event{
		ID:        uuid.New(),
		Level:     level,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
	data, err := json.Marshal(evt)
	if err != nil {
		n.logger.ErrorContext(ctx, "Failed to encode notification", "error", err)
		return
	}
	if _, err := n.js.Publish(ctx, n.subject, data, jetstream.WithMsgID(evt.ID.String())); err != nil {
		n.logger.WarnContext(ctx, "Failed to publish notification", "id", evt.ID, "error", err)
	}
}

// Connect opens a NATS connection and makes sure a stream captures subject.
func Connect(ctx context.Context, url, subject string, timeout time.Duration) (*nats.Conn, jetstream.JetStream, error) {
	nc, err := nats.Connect(url, nats.Timeout(timeout))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}
	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     "CART_NOTIFICATIONS",
		Subjects: []string{subject},
		MaxAge:   24 * time.Hour,
	})
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("failed to ensure notification stream: %w", err)
	}
	return nc, js, nil
}
