package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/legal-aid-service/internal/events"
)

// NotificationWorker moves event delivery off the request path. It wraps a
// dispatcher: Publish enqueues, background goroutines run the subscribers.
type NotificationWorker struct {
	inner   events.Dispatcher
	queue   chan events.Event
	workers int
	logger  *zap.Logger

	wg      sync.WaitGroup
	mu      sync.RWMutex
	started bool
	closed  bool
}

// NewNotificationWorker wraps inner with a queue of size buffer drained by workers goroutines.
func NewNotificationWorker(inner events.Dispatcher, buffer, workers int, logger *zap.Logger) *NotificationWorker {
	if buffer <= 0 {
		buffer = 256
	}
	if workers <= 0 {
		workers = 1
	}
	return &NotificationWorker{
		inner:   inner,
		queue:   make(chan events.Event, buffer),
		workers: workers,
		logger:  logger,
	}
}

// Subscribe registers handler on the wrapped dispatcher.
func (w *NotificationWorker) Subscribe(eventType events.EventType, handler events.EventHandler) {
	w.inner.Subscribe(eventType, handler)
}

// Publish queues the event. Before Start, after Stop, or when the queue is
// full the event is delivered inline so nothing is dropped.
func (w *NotificationWorker) Publish(ctx context.Context, event events.Event) error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if !w.started || w.closed {
		return w.inner.Publish(ctx, event)
	}
	select {
	case w.queue <- event:
		return nil
	default:
		w.logger.Warn("notification queue full, delivering inline", zap.String("event_type", string(event.Type)))
		return w.inner.Publish(ctx, event)
	}
}

// Start launches the delivery goroutines.
func (w *NotificationWorker) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return
	}
	w.started = true
	for i := 0; i < w.workers; i++ {
		w.wg.Add(1)
		go w.run()
	}
}

// Stop closes the queue and waits until queued events are delivered or ctx ends.
func (w *NotificationWorker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.started || w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.queue)
	w.mu.Unlock()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *NotificationWorker) run() {
	defer w.wg.Done()
	for event := range w.queue {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := w.inner.Publish(ctx, event); err != nil {
			w.logger.Error("notification delivery failed",
				zap.String("event_type", string(event.Type)),
				zap.String("entity_id", event.EntityID),
				zap.Error(err))
		}
		cancel()
	}
}
