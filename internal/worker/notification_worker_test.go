package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/legal-aid-service/internal/events"
)

type recorder struct {
	mu  sync.Mutex
	ids []string
}

func (r *recorder) handle(_ context.Context, ev events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, ev.EntityID)
	return nil
}

func (r *recorder) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ids...)
}

func TestNotificationWorker_InlineBeforeStart(t *testing.T) {
	rec := &recorder{}
	w := NewNotificationWorker(events.NewInMemoryDispatcher(), 4, 1, zap.NewNop())
	w.Subscribe(events.EventCaseRegistered, rec.handle)

	require.NoError(t, w.Publish(context.Background(), events.New(events.EventCaseRegistered, "c1", nil, nil)))
	assert.Equal(t, []string{"c1"}, rec.seen())
}

func TestNotificationWorker_StopDrainsQueue(t *testing.T) {
	rec := &recorder{}
	w := NewNotificationWorker(events.NewInMemoryDispatcher(), 16, 2, zap.NewNop())
	w.Subscribe(events.EventPaymentUpdated, rec.handle)
	w.Start()

	for _, id := range []string{"p1", "p2", "p3"} {
		require.NoError(t, w.Publish(context.Background(), events.New(events.EventPaymentUpdated, id, nil, nil)))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, w.Stop(ctx))
	assert.ElementsMatch(t, []string{"p1", "p2", "p3"}, rec.seen())

	require.NoError(t, w.Publish(context.Background(), events.New(events.EventPaymentUpdated, "p4", nil, nil)))
	assert.Contains(t, rec.seen(), "p4")
}

func TestNotificationWorker_FullQueueDeliversInline(t *testing.T) {
	block := make(chan struct{})
	rec := &recorder{}
	inner := events.NewInMemoryDispatcher()
	inner.Subscribe(events.EventAppealUpdated, func(ctx context.Context, ev events.Event) error {
		if ev.EntityID == "slow" {
			<-block
		}
		return rec.handle(ctx, ev)
	})
	w := NewNotificationWorker(inner, 1, 1, zap.NewNop())
	w.Start()

	require.NoError(t, w.Publish(context.Background(), events.New(events.EventAppealUpdated, "slow", nil, nil)))
	require.Eventually(t, func() bool { return len(w.queue) == 0 }, time.Second, 5*time.Millisecond)
	require.NoError(t, w.Publish(context.Background(), events.New(events.EventAppealUpdated, "queued", nil, nil)))
	require.NoError(t, w.Publish(context.Background(), events.New(events.EventAppealUpdated, "inline", nil, nil)))
	assert.Equal(t, []string{"inline"}, rec.seen())

	close(block)
	require.NoError(t, w.Stop(context.Background()))
	assert.ElementsMatch(t, []string{"inline", "slow", "queued"}, rec.seen())
}
