package mail

import (
	"context"
	"fmt"
	"strings"

	"receiptflow/internal/core/id"
	"receiptflow/internal/domain/catalogs/supplier"
	"receiptflow/internal/domain/documents/goods_receipt"
	"receiptflow/internal/infrastructure/outbox"
	"receiptflow/pkg/logger"
)

// SupplierLookup finds the supplier a notification is addressed to.
type SupplierLookup interface {
	GetByID(ctx context.Context, supplierID id.ID) (*supplier.Supplier, error)
}

// NotificationHandler turns supplier notification messages into emails.
// It implements outbox.Handler.
type NotificationHandler struct {
	suppliers SupplierLookup
	sender    Sender
}

func NewNotificationHandler(suppliers SupplierLookup, sender Sender) *NotificationHandler {
	return &NotificationHandler{suppliers: suppliers, sender: sender}
}

func (h *NotificationHandler) Handle(ctx context.Context, msg *outbox.Message) error {
	n, err := outbox.DecodeSupplierNotification(msg)
	if err != nil {
		return err
	}

	s, err := h.suppliers.GetByID(ctx, n.SupplierID)
	if err != nil {
		return fmt.Errorf("load supplier %s: %w", n.SupplierID, err)
	}
	if s.Email == "" {
		// Nothing to deliver; retrying will not help.
		logger.Warn(ctx, "supplier has no email, notification dropped",
			"supplier_id", s.ID,
			"receipt_id", n.ReceiptID,
		)
		return nil
	}

	return h.sender.Send(ctx, Compose(s, n))
}

// Compose renders the email for a notification.
func Compose(s *supplier.Supplier, n goods_receipt.SupplierNotification) Message {
	var subject string
	switch n.Reason {
	case goods_receipt.NotifyUpdated:
		subject = fmt.Sprintf("Goods receipt %s was updated", n.ReceiptNumber)
	case goods_receipt.NotifyResend:
		subject = fmt.Sprintf("Reminder: please confirm goods receipt %s", n.ReceiptNumber)
	default:
		subject = fmt.Sprintf("Please confirm goods receipt %s", n.ReceiptNumber)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", s.Name)
	fmt.Fprintf(&b, "goods receipt %s awaits your confirmation.\n\n", n.ReceiptNumber)
	fmt.Fprintf(&b, "Lines: %d\n", n.LineCount)
	fmt.Fprintf(&b, "Total amount: %s\n", n.TotalAmount)
	fmt.Fprintf(&b, "Receipt id: %s\n", n.ReceiptID)

	return Message{To: s.Email, Subject: subject, Body: b.String()}
}

var _ outbox.Handler = (*NotificationHandler)(nil)
