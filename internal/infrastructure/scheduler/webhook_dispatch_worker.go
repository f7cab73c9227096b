package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/inkwell/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// DeliveryProcessor works the due slice of the webhook delivery queue
type DeliveryProcessor interface {
	ProcessDue(ctx context.Context, limit int) (int, error)
}

// WebhookDispatchWorker drains due webhook deliveries on a fixed interval.
// Failed deliveries re-enter the queue with their backoff applied, so the
// worker naturally picks them up again when they come due.
type WebhookDispatchWorker struct {
	processor DeliveryProcessor
	interval  time.Duration
	batch     int
	logger    *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWebhookDispatchWorker creates a new dispatch worker
func NewWebhookDispatchWorker(processor DeliveryProcessor, cfg config.WebhookConfig, logger *zap.Logger) *WebhookDispatchWorker {
	return &WebhookDispatchWorker{
		processor: processor,
		interval:  cfg.DispatchInterval,
		batch:     cfg.DispatchBatch,
		logger:    logger,
	}
}

// Start starts the dispatch loop
func (w *WebhookDispatchWorker) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.wg.Add(1)
	go w.runLoop(ctx)

	w.logger.Info("Webhook dispatch worker started",
		zap.Duration("interval", w.interval),
		zap.Int("batch", w.batch),
	)

	return nil
}

// Stop stops the dispatch loop
func (w *WebhookDispatchWorker) Stop(ctx context.Context) error {
	if w.cancel != nil {
		w.cancel()
	}

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("Webhook dispatch worker stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *WebhookDispatchWorker) runLoop(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			attempted, err := w.processor.ProcessDue(ctx, w.batch)
			if err != nil {
				w.logger.Error("Webhook dispatch sweep failed", zap.Error(err))
				continue
			}
			if attempted > 0 {
				w.logger.Debug("Webhook deliveries attempted", zap.Int("count", attempted))
			}
		}
	}
}
