package outbox_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"receiptflow/internal/core/id"
	"receiptflow/internal/domain/documents/goods_receipt"
	"receiptflow/internal/infrastructure/outbox"
	"receiptflow/internal/infrastructure/storage/memory"
)

func enqueue(t *testing.T, store *memory.Store, pub *outbox.Publisher) goods_receipt.SupplierNotification {
	t.Helper()
	n := goods_receipt.SupplierNotification{
		ReceiptID:     id.New(),
		ReceiptNumber: "GR-2025-00001",
		SupplierID:    id.New(),
		Reason:        goods_receipt.NotifyApproved,
		TotalAmount:   "5000",
		LineCount:     1,
	}
	require.NoError(t, store.RunInTransaction(context.Background(), func(ctx context.Context) error {
		return pub.NotifySupplier(ctx, n)
	}))
	return n
}

func TestRelay_DeliversAndMarksPublished(t *testing.T) {
	store := memory.NewStore()
	box := memory.NewOutboxStore(store)
	sent := enqueue(t, store, outbox.NewPublisher(box))

	var got []goods_receipt.SupplierNotification
	relay := outbox.NewRelay(box, outbox.HandlerFunc(func(_ context.Context, msg *outbox.Message) error {
		n, err := outbox.DecodeSupplierNotification(msg)
		if err != nil {
			return err
		}
		got = append(got, n)
		return nil
	}), outbox.RelayConfig{})

	n, err := relay.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []goods_receipt.SupplierNotification{sent}, got)

	msgs := box.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, outbox.StatusPublished, msgs[0].Status)
	assert.NotNil(t, msgs[0].PublishedAt)

	n, err = relay.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRelay_RetriesThenDeadLetters(t *testing.T) {
	store := memory.NewStore()
	box := memory.NewOutboxStore(store)
	enqueue(t, store, outbox.NewPublisher(box))

	attempts := 0
	relay := outbox.NewRelay(box, outbox.HandlerFunc(func(context.Context, *outbox.Message) error {
		attempts++
		return errors.New("smtp unavailable")
	}), outbox.RelayConfig{
		MaxRetries: 2,
		Backoff:    func(int) time.Duration { return -time.Second },
	})

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := relay.ProcessBatch(ctx)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, attempts)

	msgs := box.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, outbox.StatusFailed, msgs[0].Status)
	assert.Equal(t, 2, msgs[0].RetryCount)

	moved, err := box.MoveToDLQ(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, moved)
}

func TestDecodeSupplierNotification_WrongEvent(t *testing.T) {
	_, err := outbox.DecodeSupplierNotification(&outbox.Message{EventType: "Other"})
	assert.Error(t, err)
}
