package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"receiptflow/internal/core/id"
	"receiptflow/internal/domain/documents/goods_receipt"
)

// EventSupplierNotification is the event type of supplier notification requests.
const EventSupplierNotification = "SupplierNotificationRequested"

// Publisher turns domain notifications into outbox messages.
type Publisher struct {
	store Store
}

func NewPublisher(store Store) *Publisher {
	return &Publisher{store: store}
}

// NotifySupplier implements goods_receipt.Notifier.
func (p *Publisher) NotifySupplier(ctx context.Context, n goods_receipt.SupplierNotification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	return p.store.Append(ctx, Message{
		ID:            id.New(),
		AggregateType: goods_receipt.DocumentType,
		AggregateID:   n.ReceiptID,
		EventType:     EventSupplierNotification,
		Payload:       payload,
		Status:        StatusPending,
		CreatedAt:     time.Now().UTC(),
	})
}

// DecodeSupplierNotification reads the payload of a supplier notification message.
func DecodeSupplierNotification(msg *Message) (goods_receipt.SupplierNotification, error) {
	var n goods_receipt.SupplierNotification
	if msg.EventType != EventSupplierNotification {
		return n, fmt.Errorf("unexpected event type %q", msg.EventType)
	}
	if err := json.Unmarshal(msg.Payload, &n); err != nil {
		return n, fmt.Errorf("decode notification: %w", err)
	}
	return n, nil
}

var _ goods_receipt.Notifier = (*Publisher)(nil)
