package goods_receipt

import (
	"context"

	"receiptflow/internal/core/id"
	"receiptflow/internal/domain"
)

// Repository defines persistence for goods receipts.
// GetByID and GetForUpdate return the receipt with its lines.
type Repository interface {
	Create(ctx context.Context, doc *GoodsReceipt) error
	GetByID(ctx context.Context, docID id.ID) (*GoodsReceipt, error)

	// GetForUpdate loads the receipt holding an exclusive lock until the transaction ends.
	GetForUpdate(ctx context.Context, docID id.ID) (*GoodsReceipt, error)

	// Update stores header fields if doc.Version is still current and bumps it,
	// otherwise returns CONCURRENT_MODIFICATION.
	Update(ctx context.Context, doc *GoodsReceipt) error

	// Delete removes the receipt and its lines.
	Delete(ctx context.Context, docID id.ID) error

	SaveLines(ctx context.Context, docID id.ID, lines []Line) error

	// List returns receipts without lines.
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*GoodsReceipt], error)
}

// ListFilter for filtering goods receipts.
type ListFilter struct {
	domain.ListFilter

	Status     *Status
	SupplierID *id.ID
	CreatedBy  string
}
