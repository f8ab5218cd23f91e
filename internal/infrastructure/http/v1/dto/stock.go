package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"receiptflow/internal/core/entity"
)

// StockBalanceResponse represents stock balance in API responses.
type StockBalanceResponse struct {
	ProductID string          `json:"productId"`
	Quantity  decimal.Decimal `json:"quantity"`
	UpdatedAt *time.Time      `json:"updatedAt,omitempty"`
}

// FromStockBalance converts entity to response DTO.
// A product never received has no timestamp.
func FromStockBalance(b entity.StockBalance) StockBalanceResponse {
	var updated *time.Time
	if !b.UpdatedAt.IsZero() {
		val := b.UpdatedAt
		updated = &val
	}
	return StockBalanceResponse{
		ProductID: b.ProductID.String(),
		Quantity:  b.Quantity,
		UpdatedAt: updated,
	}
}

// StockMovementResponse represents stock movement in API responses.
type StockMovementResponse struct {
	LineID       string          `json:"lineId"`
	RecorderID   string          `json:"recorderId"`
	RecorderType string          `json:"recorderType"`
	RecordType   string          `json:"recordType"`
	ProductID    string          `json:"productId"`
	Quantity     decimal.Decimal `json:"quantity"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// FromStockMovement converts entity to response DTO.
func FromStockMovement(m entity.StockMovement) StockMovementResponse {
	return StockMovementResponse{
		LineID:       m.LineID.String(),
		RecorderID:   m.RecorderID.String(),
		RecorderType: m.RecorderType,
		RecordType:   string(m.RecordType),
		ProductID:    m.ProductID.String(),
		Quantity:     m.Quantity,
		CreatedAt:    m.CreatedAt,
	}
}
