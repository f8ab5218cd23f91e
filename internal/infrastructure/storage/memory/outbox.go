package memory

import (
	"context"
	"time"

	"receiptflow/internal/core/id"
	"receiptflow/internal/infrastructure/outbox"
)

// OutboxStore implements outbox.Store.
type OutboxStore struct {
	s   *Store
	now func() time.Time
}

func NewOutboxStore(s *Store) *OutboxStore {
	return &OutboxStore{s: s, now: time.Now}
}

// Append requires a transaction, like the postgres outbox.
func (o *OutboxStore) Append(ctx context.Context, msg outbox.Message) error {
	if !o.s.inTx(ctx) {
		return ErrNoTransaction
	}
	if err := o.s.outboxFault(); err != nil {
		return err
	}
	if msg.Status == "" {
		msg.Status = outbox.StatusPending
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = o.now().UTC()
	}
	return o.s.write(ctx, func(st *state) error {
		st.outbox = append(st.outbox, msg)
		return nil
	})
}

func (o *OutboxStore) Claim(ctx context.Context, limit int, lease time.Duration) ([]outbox.Message, error) {
	now := o.now().UTC()
	var out []outbox.Message
	err := o.s.write(ctx, func(st *state) error {
		for i := range st.outbox {
			if len(out) >= limit {
				break
			}
			m := &st.outbox[i]
			if m.Status != outbox.StatusPending {
				continue
			}
			if m.NextRetryAt != nil && m.NextRetryAt.After(now) {
				continue
			}
			until := now.Add(lease)
			m.NextRetryAt = &until
			out = append(out, *m)
		}
		return nil
	})
	return out, err
}

func (o *OutboxStore) MarkPublished(ctx context.Context, msgID id.ID) error {
	now := o.now().UTC()
	return o.s.write(ctx, func(st *state) error {
		if m := findMessage(st, msgID); m != nil {
			m.Status = outbox.StatusPublished
			m.PublishedAt = &now
		}
		return nil
	})
}

func (o *OutboxStore) MarkFailed(ctx context.Context, msgID id.ID, lastError string, nextRetryAt time.Time, dead bool) error {
	return o.s.write(ctx, func(st *state) error {
		m := findMessage(st, msgID)
		if m == nil {
			return nil
		}
		m.RetryCount++
		m.LastError = &lastError
		m.NextRetryAt = &nextRetryAt
		if dead {
			m.Status = outbox.StatusFailed
		}
		return nil
	})
}

func (o *OutboxStore) MoveToDLQ(ctx context.Context) (int64, error) {
	var moved int64
	err := o.s.write(ctx, func(st *state) error {
		kept := st.outbox[:0]
		for _, m := range st.outbox {
			if m.Status == outbox.StatusFailed {
				st.dlq = append(st.dlq, m)
				moved++
				continue
			}
			kept = append(kept, m)
		}
		st.outbox = kept
		return nil
	})
	return moved, err
}

// Messages returns a copy of the outbox table.
func (o *OutboxStore) Messages() []outbox.Message {
	var out []outbox.Message
	_ = o.s.read(func(st *state) error {
		out = append([]outbox.Message(nil), st.outbox...)
		return nil
	})
	return out
}

// DeadLetters returns a copy of the dead letter table.
func (o *OutboxStore) DeadLetters() []outbox.Message {
	var out []outbox.Message
	_ = o.s.read(func(st *state) error {
		out = append([]outbox.Message(nil), st.dlq...)
		return nil
	})
	return out
}

func findMessage(st *state, msgID id.ID) *outbox.Message {
	for i := range st.outbox {
		if st.outbox[i].ID == msgID {
			return &st.outbox[i]
		}
	}
	return nil
}

var _ outbox.Store = (*OutboxStore)(nil)
