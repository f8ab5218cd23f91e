// Package outbox implements the transactional outbox: events are stored in the
// same transaction as the change that caused them and delivered later by the relay.
package outbox

import (
	"context"
	"time"

	"receiptflow/internal/core/id"
)

// Status represents the state of an outbox message.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPublished Status = "published"
	StatusFailed    Status = "failed"
)

// Message is one stored event.
type Message struct {
	ID            id.ID      `db:"id" json:"id"`
	AggregateType string     `db:"aggregate_type" json:"aggregateType"`
	AggregateID   id.ID      `db:"aggregate_id" json:"aggregateId"`
	EventType     string     `db:"event_type" json:"eventType"`
	Payload       []byte     `db:"payload" json:"payload"`
	Status        Status     `db:"status" json:"status"`
	RetryCount    int        `db:"retry_count" json:"retryCount"`
	LastError     *string    `db:"last_error" json:"lastError,omitempty"`
	NextRetryAt   *time.Time `db:"next_retry_at" json:"nextRetryAt,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"createdAt"`
	PublishedAt   *time.Time `db:"published_at" json:"publishedAt,omitempty"`
}

// Store persists outbox messages.
type Store interface {
	// Append stores a pending message in the transaction carried by ctx.
	Append(ctx context.Context, msg Message) error

	// Claim returns up to limit due pending messages and hides them from other
	// claimers until lease expires.
	Claim(ctx context.Context, limit int, lease time.Duration) ([]Message, error)

	MarkPublished(ctx context.Context, msgID id.ID) error

	// MarkFailed records a failed attempt. dead marks the message as failed for good.
	MarkFailed(ctx context.Context, msgID id.ID, lastError string, nextRetryAt time.Time, dead bool) error

	// MoveToDLQ moves failed messages to the dead letter store.
	MoveToDLQ(ctx context.Context) (int64, error)
}

// Handler delivers a message. A returned error schedules a retry.
type Handler interface {
	Handle(ctx context.Context, msg *Message) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, msg *Message) error

func (f HandlerFunc) Handle(ctx context.Context, msg *Message) error { return f(ctx, msg) }
