package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ReminderSender sends reminders for upcoming appointments.
type ReminderSender interface {
	SendDueReminders(ctx context.Context) (int, error)
}

// ReminderWorker periodically sweeps for appointments that need a reminder.
type ReminderWorker struct {
	sender   ReminderSender
	interval time.Duration
	logger   *zap.Logger

	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// NewReminderWorker creates a worker. Call Start to begin sweeping.
func NewReminderWorker(sender ReminderSender, interval time.Duration, logger *zap.Logger) *ReminderWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &ReminderWorker{
		sender:   sender,
		interval: interval,
		logger:   logger,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start runs an immediate sweep and then one per interval until ctx ends or Stop is called.
func (w *ReminderWorker) Start(ctx context.Context) {
	go w.run(ctx)
}

// Stop ends the loop and waits for an in-flight sweep to finish.
func (w *ReminderWorker) Stop() {
	w.once.Do(func() { close(w.stop) })
	<-w.done
}

func (w *ReminderWorker) run(ctx context.Context) {
	defer close(w.done)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *ReminderWorker) sweep(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, w.interval)
	defer cancel()

	sent, err := w.sender.SendDueReminders(sweepCtx)
	if err != nil {
		w.logger.Error("appointment reminder sweep failed", zap.Error(err))
		return
	}
	if sent > 0 {
		w.logger.Info("appointment reminders sent", zap.Int("count", sent))
	}
}
