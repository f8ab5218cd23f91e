package entity

import (
	"time"

	"receiptflow/internal/core/id"
	"receiptflow/internal/core/types"
)

// RecordType defines movement direction for the stock register.
type RecordType string

const (
	RecordTypeReceipt RecordType = "receipt"
	RecordTypeExpense RecordType = "expense"
)

// StockMovement is an immutable record of a stock change caused by a document.
type StockMovement struct {
	LineID       id.ID          `db:"line_id" json:"lineId"`
	RecorderID   id.ID          `db:"recorder_id" json:"recorderId"`
	RecorderType string         `db:"recorder_type" json:"recorderType"`
	RecordType   RecordType     `db:"record_type" json:"recordType"`
	ProductID    id.ID          `db:"product_id" json:"productId"`
	Quantity     types.Quantity `db:"quantity" json:"quantity"`
	CreatedAt    time.Time      `db:"created_at" json:"createdAt"`
}

// NewStockMovement creates a movement with a generated line id.
func NewStockMovement(recorderID id.ID, recorderType string, recordType RecordType, productID id.ID, qty types.Quantity) StockMovement {
	return StockMovement{
		LineID:       id.New(),
		RecorderID:   recorderID,
		RecorderType: recorderType,
		RecordType:   recordType,
		ProductID:    productID,
		Quantity:     qty,
		CreatedAt:    time.Now().UTC(),
	}
}

// SignedQuantity returns quantity with sign based on record type.
func (m *StockMovement) SignedQuantity() types.Quantity {
	if m.RecordType == RecordTypeExpense {
		return m.Quantity.Neg()
	}
	return m.Quantity
}

// StockBalance is the current on-hand quantity of a product.
type StockBalance struct {
	ProductID id.ID          `db:"product_id" json:"productId"`
	Quantity  types.Quantity `db:"quantity" json:"quantity"`
	UpdatedAt time.Time      `db:"updated_at" json:"updatedAt"`
}
