package outbox

import (
	"context"
	"fmt"
	"time"

	"receiptflow/pkg/logger"
)

// RelayConfig tunes delivery.
type RelayConfig struct {
	BatchSize  int
	MaxRetries int

	// Lease is how long a claimed message stays hidden from other relays.
	Lease time.Duration

	// Backoff returns the delay before attempt retry+1. Defaults to retry+1 minutes.
	Backoff func(retry int) time.Duration
}

// Relay reads pending messages and hands them to a Handler.
type Relay struct {
	store   Store
	handler Handler
	cfg     RelayConfig
	now     func() time.Time
}

func NewRelay(store Store, handler Handler, cfg RelayConfig) *Relay {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 5
	}
	if cfg.Lease <= 0 {
		cfg.Lease = 5 * time.Minute
	}
	if cfg.Backoff == nil {
		cfg.Backoff = func(retry int) time.Duration { return time.Duration(retry+1) * time.Minute }
	}
	return &Relay{store: store, handler: handler, cfg: cfg, now: time.Now}
}

// ProcessBatch delivers one batch of due messages and returns how many succeeded.
func (r *Relay) ProcessBatch(ctx context.Context) (int, error) {
	messages, err := r.store.Claim(ctx, r.cfg.BatchSize, r.cfg.Lease)
	if err != nil {
		return 0, fmt.Errorf("claim outbox messages: %w", err)
	}

	processed := 0
	for i := range messages {
		if err := r.processMessage(ctx, &messages[i]); err != nil {
			logger.Warn(ctx, "outbox delivery failed",
				"message_id", messages[i].ID,
				"event_type", messages[i].EventType,
				"retry_count", messages[i].RetryCount,
				"error", err,
			)
			continue
		}
		processed++
	}
	return processed, nil
}

func (r *Relay) processMessage(ctx context.Context, msg *Message) error {
	if err := r.handler.Handle(ctx, msg); err != nil {
		dead := msg.RetryCount+1 >= r.cfg.MaxRetries
		next := r.now().Add(r.cfg.Backoff(msg.RetryCount)).UTC()
		if updErr := r.store.MarkFailed(ctx, msg.ID, err.Error(), next, dead); updErr != nil {
			return fmt.Errorf("record failure: %w (delivery error: %v)", updErr, err)
		}
		return err
	}
	return r.store.MarkPublished(ctx, msg.ID)
}

// Run polls until ctx is done. Dead messages are moved to the DLQ every cleanup interval.
func (r *Relay) Run(ctx context.Context, interval, cleanup time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	cleanupTicker := time.NewTicker(cleanup)
	defer cleanupTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := r.ProcessBatch(ctx)
			if err != nil {
				logger.Error(ctx, "outbox batch failed", "error", err)
				continue
			}
			if n > 0 {
				logger.Debug(ctx, "outbox batch delivered", "count", n)
			}
		case <-cleanupTicker.C:
			moved, err := r.store.MoveToDLQ(ctx)
			if err != nil {
				logger.Error(ctx, "move to dlq failed", "error", err)
				continue
			}
			if moved > 0 {
				logger.Warn(ctx, "outbox messages moved to dlq", "count", moved)
			}
		}
	}
}
