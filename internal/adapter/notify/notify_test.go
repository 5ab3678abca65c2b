package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type recorded struct {
	level   Level
	message string
	ctxErr  error
}

type recordingNotifier struct {
	mu    sync.Mutex
	got   []recorded
	block chan struct{}
}

func (r *recordingNotifier) Success(ctx context.Context, message string) {
	r.record(ctx, LevelSuccess, message)
}

func (r *recordingNotifier) Error(ctx context.Context, message string) {
	r.record(ctx, LevelError, message)
}

func (r *recordingNotifier) record(ctx context.Context, level Level, message string) {
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, recorded{level: level, message: message, ctxErr: ctx.Err()})
}

func (r *recordingNotifier) messages() []recorded {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recorded(nil), r.got...)
}

func TestDispatcher_DeliversAndDrainsOnClose(t *testing.T) {
	next := &recordingNotifier{}
	d := NewDispatcher(next, 1, 16, discard)

	ctx, cancel := context.WithCancel(context.Background())
	d.Success(ctx, "added")
	d.Error(ctx, "out of stock")
	// the request finishing must not cancel delivery
	cancel()

	d.Close()

	got := next.messages()
	require.Len(t, got, 2)
	assert.Equal(t, recorded{level: LevelSuccess, message: "added"}, got[0])
	assert.Equal(t, recorded{level: LevelError, message: "out of stock"}, got[1])
}

func TestDispatcher_FullQueueDoesNotBlock(t *testing.T) {
	next := &recordingNotifier{block: make(chan struct{})}
	d := NewDispatcher(next, 1, 1, discard)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			d.Error(context.Background(), "failure")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("enqueue blocked on a full queue")
	}

	close(next.block)
	d.Close()
	got := next.messages()
	assert.GreaterOrEqual(t, len(got), 1)
	assert.LessOrEqual(t, len(got), 2)
}

func TestDispatcher_AfterClose(t *testing.T) {
	next := &recordingNotifier{}
	d := NewDispatcher(next, 2, 4, discard)
	d.Close()
	d.Close()

	d.Success(context.Background(), "late")
	assert.Empty(t, next.messages())
}

func TestFanout(t *testing.T) {
	a, b := &recordingNotifier{}, &recordingNotifier{}
	f := Fanout{a, b}

	f.Success(context.Background(), "ok")
	f.Error(context.Background(), "bad")

	for _, n := range []*recordingNotifier{a, b} {
		got := n.messages()
		require.Len(t, got, 2)
		assert.Equal(t, LevelSuccess, got[0].level)
		assert.Equal(t, LevelError, got[1].level)
	}
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(slog.New(slog.NewJSONHandler(&buf, nil)))

	n.Error(context.Background(), "Requested amount is out of stock")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "WARN", rec["level"])
	assert.Equal(t, "error", rec["kind"])
	assert.Equal(t, "Requested amount is out of stock", rec["message"])
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, subject string, payload []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
	args := m.Called(ctx, subject, payload)
	ack, _ := args.Get(0).(*jetstream.PubAck)
	return ack, args.Error(1)
}

func TestNATSNotifier_Publishes(t *testing.T) {
	testCases := []struct {
		name    string
		notify  func(n *NATSNotifier)
		level   Level
		message string
		err     error
	}{
		{
			name:    "success",
			notify:  func(n *NATSNotifier) { n.Success(context.Background(), "Product added to cart") },
			level:   LevelSuccess,
			message: "Product added to cart",
		},
		{
			name:    "error",
			notify:  func(n *NATSNotifier) { n.Error(context.Background(), "Product is not in the cart") },
			level:   LevelError,
			message: "Product is not in the cart",
		},
		{
			name:    "publish failure is swallowed",
			notify:  func(n *NATSNotifier) { n.Error(context.Background(), "boom") },
			level:   LevelError,
			message: "boom",
			err:     errors.New("no responders"),
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			pub := new(mockPublisher)
			var payload []byte
			pub.On("Publish", mock.Anything, "storefront.cart.notifications", mock.Anything).
				Run(func(args mock.Arguments) { payload = args.Get(2).([]byte) }).
				Return(&jetstream.PubAck{Stream: "CART_NOTIFICATIONS"}, tc.err).Once()
			n := NewNATSNotifier(pub, "storefront.cart.notifications", discard)

			// when
			tc.notify(n)

			// then
			pub.AssertExpectations(t)
			var evt Event
			require.NoError(t, json.Unmarshal(payload, &evt))
			assert.Equal(t, tc.level, evt.Level)
			assert.Equal(t, tc.message, evt.Message)
			assert.NotEqual(t, uuid.Nil, evt.ID)
			assert.False(t, evt.CreatedAt.IsZero())
		})
	}
}
