package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"

	"receiptflow/internal/core/id"
	"receiptflow/internal/infrastructure/outbox"
)

const outboxColumns = `id, aggregate_type, aggregate_id, event_type, payload, status,
	retry_count, last_error, next_retry_at, created_at, published_at`

// OutboxStore implements outbox.Store on sys_outbox and sys_outbox_dlq.
type OutboxStore struct {
	txManager *TxManager
}

func NewOutboxStore(txManager *TxManager) *OutboxStore {
	return &OutboxStore{txManager: txManager}
}

// Append writes msg within the current transaction.
// It must be called inside a transaction so the message commits with the change.
func (s *OutboxStore) Append(ctx context.Context, msg outbox.Message) error {
	t := s.txManager.GetTx(ctx)
	if t == nil {
		return errors.New("outbox append requires transaction context")
	}
	if msg.Status == "" {
		msg.Status = outbox.StatusPending
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	_, err := t.Exec(ctx, `
		INSERT INTO sys_outbox (id, aggregate_type, aggregate_id, event_type, payload, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, msg.ID, msg.AggregateType, msg.AggregateID, msg.EventType, msg.Payload, msg.Status, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert outbox message: %w", err)
	}
	return nil
}

// Claim leases due messages: next_retry_at is pushed to now()+lease so that
// concurrent relays skip them, and the lock is released as soon as the
// statement finishes.
func (s *OutboxStore) Claim(ctx context.Context, limit int, lease time.Duration) ([]outbox.Message, error) {
	var messages []outbox.Message
	err := pgxscan.Select(ctx, s.txManager.GetQuerier(ctx), &messages, `
		UPDATE sys_outbox
		SET next_retry_at = NOW() + make_interval(secs => $3)
		WHERE id IN (
			SELECT id FROM sys_outbox
			WHERE status = $1
			  AND (next_retry_at IS NULL OR next_retry_at <= NOW())
			ORDER BY created_at
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)
		RETURNING `+outboxColumns,
		outbox.StatusPending, limit, lease.Seconds())
	if err != nil {
		return nil, fmt.Errorf("claim outbox messages: %w", err)
	}
	return messages, nil
}

func (s *OutboxStore) MarkPublished(ctx context.Context, msgID id.ID) error {
	_, err := s.txManager.GetQuerier(ctx).Exec(ctx, `
		UPDATE sys_outbox
		SET status = $1, published_at = NOW(), next_retry_at = NULL
		WHERE id = $2
	`, outbox.StatusPublished, msgID)
	if err != nil {
		return fmt.Errorf("mark outbox message published: %w", err)
	}
	return nil
}

func (s *OutboxStore) MarkFailed(ctx context.Context, msgID id.ID, lastError string, nextRetryAt time.Time, dead bool) error {
	_, err := s.txManager.GetQuerier(ctx).Exec(ctx, `
		UPDATE sys_outbox
		SET retry_count = retry_count + 1,
		    last_error = $1,
		    next_retry_at = $2,
		    status = CASE WHEN $3::boolean THEN $4 ELSE status END
		WHERE id = $5
	`, lastError, nextRetryAt, dead, outbox.StatusFailed, msgID)
	if err != nil {
		return fmt.Errorf("mark outbox message failed: %w", err)
	}
	return nil
}

func (s *OutboxStore) MoveToDLQ(ctx context.Context) (int64, error) {
	result, err := s.txManager.GetQuerier(ctx).Exec(ctx, `
		WITH moved AS (
			DELETE FROM sys_outbox
			WHERE status = $1
			RETURNING `+outboxColumns+`
		)
		INSERT INTO sys_outbox_dlq (`+outboxColumns+`, failed_at, failure_reason)
		SELECT `+outboxColumns+`, NOW(), last_error FROM moved
	`, outbox.StatusFailed)
	if err != nil {
		return 0, fmt.Errorf("move to DLQ: %w", err)
	}
	return result.RowsAffected(), nil
}

var _ outbox.Store = (*OutboxStore)(nil)
