// Package stock provides the stock register: per-product balances and the
// immutable movements that explain them.
package stock

import (
	"context"
	"time"

	"receiptflow/internal/core/entity"
	"receiptflow/internal/core/id"
	"receiptflow/internal/core/types"
)

// Repository defines operations for the stock register.
type Repository interface {
	// CreateMovements batch inserts movements.
	CreateMovements(ctx context.Context, movements []entity.StockMovement) error

	// GetMovementsByRecorder retrieves all movements written by a document.
	GetMovementsByRecorder(ctx context.Context, recorderID id.ID) ([]entity.StockMovement, error)

	// GetMovementHistory returns movements of a product, newest first.
	GetMovementHistory(ctx context.Context, productID id.ID, filter MovementFilter) ([]entity.StockMovement, error)

	// IncreaseBalance adds qty to the product balance, creating the row if absent.
	IncreaseBalance(ctx context.Context, productID id.ID, qty types.Quantity) error

	// GetBalance returns the current balance; a product never received has a zero balance.
	GetBalance(ctx context.Context, productID id.ID) (entity.StockBalance, error)
}

// MovementFilter for filtering movement history.
type MovementFilter struct {
	RecordType *entity.RecordType
	FromDate   *time.Time
	ToDate     *time.Time
	Limit      int
	Offset     int
}
