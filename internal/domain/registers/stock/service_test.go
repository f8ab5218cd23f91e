package stock_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"receiptflow/internal/core/apperror"
	"receiptflow/internal/core/entity"
	"receiptflow/internal/core/id"
	"receiptflow/internal/core/types"
	"receiptflow/internal/domain/registers/stock"
	"receiptflow/internal/infrastructure/storage/memory"
)

func newService() (*stock.Service, *memory.Store) {
	store := memory.NewStore()
	return stock.NewService(memory.NewStockRepo(store), store), store
}

func TestReceive_AggregatesPerProduct(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	doc, p1, p2 := id.New(), id.New(), id.New()

	err := svc.Receive(ctx, doc, "GoodsReceipt", []stock.ReceiptLine{
		{ProductID: p1, Quantity: types.MustDecimal("3")},
		{ProductID: p2, Quantity: types.MustDecimal("2")},
		{ProductID: p1, Quantity: types.MustDecimal("1.5")},
	})
	require.NoError(t, err)

	b1, err := svc.GetBalance(ctx, p1)
	require.NoError(t, err)
	assert.Equal(t, "4.5", b1.Quantity.String())

	movements, err := svc.GetMovements(ctx, doc)
	require.NoError(t, err)
	assert.Len(t, movements, 2)
	for _, m := range movements {
		assert.Equal(t, entity.RecordTypeReceipt, m.RecordType)
		assert.Equal(t, "GoodsReceipt", m.RecorderType)
	}

	history, err := svc.GetMovementHistory(ctx, p2, stock.MovementFilter{})
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "2", history[0].Quantity.String())
}

func TestReceive_OncePerRecorder(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	doc, p := id.New(), id.New()
	lines := []stock.ReceiptLine{{ProductID: p, Quantity: types.MustDecimal("1")}}

	require.NoError(t, svc.Receive(ctx, doc, "GoodsReceipt", lines))
	err := svc.Receive(ctx, doc, "GoodsReceipt", lines)
	assert.True(t, apperror.IsInvalidState(err), err)

	bal, _ := svc.GetBalance(ctx, p)
	assert.Equal(t, "1", bal.Quantity.String())
}

func TestReceive_AllOrNothing(t *testing.T) {
	svc, store := newService()
	ctx := context.Background()
	doc, p1, p2 := id.New(), id.New(), id.New()
	store.FailStockOn(p1, errors.New("row locked"))
	store.FailStockOn(p2, errors.New("row locked"))

	err := svc.Receive(ctx, doc, "GoodsReceipt", []stock.ReceiptLine{
		{ProductID: p1, Quantity: types.MustDecimal("1")},
		{ProductID: p2, Quantity: types.MustDecimal("1")},
	})
	require.Error(t, err)

	movements, _ := svc.GetMovements(ctx, doc)
	assert.Empty(t, movements)
	b1, _ := svc.GetBalance(ctx, p1)
	b2, _ := svc.GetBalance(ctx, p2)
	assert.True(t, b1.Quantity.IsZero())
	assert.True(t, b2.Quantity.IsZero())
}

func TestReceive_Validation(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	tests := []struct {
		name  string
		lines []stock.ReceiptLine
	}{
		{"empty", nil},
		{"no product", []stock.ReceiptLine{{Quantity: types.MustDecimal("1")}}},
		{"zero quantity", []stock.ReceiptLine{{ProductID: id.New(), Quantity: types.MustDecimal("0")}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Receive(ctx, id.New(), "GoodsReceipt", tt.lines)
			appErr, ok := apperror.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, apperror.CodeValidation, appErr.Code)
		})
	}
}
