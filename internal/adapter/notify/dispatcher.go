package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/rl1809/storefront-cart/internal/port"
)

const deliveryTimeout = 5 * time.Second

type job struct {
	ctx     context.Context
	level   Level
	message string
}

// Dispatcher hands notifications to a pool of workers so callers never wait on
// the underlying channel. When the queue is full the notification is dropped.
type Dispatcher struct {
	next   port.Notifier
	queue  chan job
	logger *slog.Logger
	wg     sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

func NewDispatcher(next port.Notifier, workers, queueSize int, logger *slog.Logger) *Dispatcher {
	d := &Dispatcher{
		next:   next,
		queue:  make(chan job, queueSize),
		logger: logger.With("component", "notify"),
	}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go func(id int) {
			defer d.wg.Done()
			d.workerLoop(id)
		}(i)
	}
	return d
}

func (d *Dispatcher) Success(ctx context.Context, message string) {
	d.enqueue(ctx, LevelSuccess, message)
}

func (d *Dispatcher) Error(ctx context.Context, message string) {
	d.enqueue(ctx, LevelError, message)
}

func (d *Dispatcher) enqueue(ctx context.Context, level Level, message string) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.logger.WarnContext(ctx, "Notification after shutdown dropped", "kind", level, "message", message)
		return
	}

	select {
	case d.queue <- job{ctx: context.WithoutCancel(ctx), level: level, message: message}:
	default:
		d.logger.WarnContext(ctx, "Notification queue full, dropping", "kind", level, "message", message)
	}
}

func (d *Dispatcher) workerLoop(id int) {
	for j := range d.queue {
		ctx, cancel := context.WithTimeout(j.ctx, deliveryTimeout)
		deliver(ctx, d.next, j.level, j.message)
		cancel()
		d.logger.DebugContext(j.ctx, "Notification delivered", "worker", id, "kind", j.level)
	}
}

// Close stops accepting notifications and waits until queued ones are delivered.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
}
