package stock

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"receiptflow/internal/core/apperror"
	"receiptflow/internal/core/entity"
	"receiptflow/internal/core/id"
	"receiptflow/internal/core/tx"
	"receiptflow/internal/core/types"
	"receiptflow/pkg/logger"
)

// ReceiptLine is one product quantity entering stock.
type ReceiptLine struct {
	ProductID id.ID
	Quantity  types.Quantity
}

// Service provides business operations for the stock register.
type Service struct {
	repo      Repository
	txManager tx.Manager
}

// NewService creates a new stock register service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
	}
}

// Receive increments stock for every line of a document and records the movements.
// All lines are applied or none; when called inside a transaction it joins it.
// A recorder can receive only once.
func (s *Service) Receive(ctx context.Context, recorderID id.ID, recorderType string, lines []ReceiptLine) error {
	if len(lines) == 0 {
		return apperror.NewValidation("nothing to receive")
	}
	for i, l := range lines {
		if id.IsNil(l.ProductID) {
			return apperror.NewValidation(fmt.Sprintf("line %d: product is required", i+1))
		}
		if !l.Quantity.IsPositive() {
			return apperror.NewValidation(fmt.Sprintf("line %d: quantity must be positive", i+1))
		}
	}

	totals := aggregate(lines)

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.repo.GetMovementsByRecorder(ctx, recorderID)
		if err != nil {
			return fmt.Errorf("check existing movements: %w", err)
		}
		if len(existing) > 0 {
			return apperror.NewInvalidState("stock was already received for this document").
				WithDetail("recorder_id", recorderID.String())
		}

		movements := make([]entity.StockMovement, 0, len(totals))
		for _, t := range totals {
			movements = append(movements,
				entity.NewStockMovement(recorderID, recorderType, entity.RecordTypeReceipt, t.ProductID, t.Quantity))
		}
		if err := s.repo.CreateMovements(ctx, movements); err != nil {
			return fmt.Errorf("create movements: %w", err)
		}

		// Balances are locked in product id order.
		for _, t := range totals {
			if err := s.repo.IncreaseBalance(ctx, t.ProductID, t.Quantity); err != nil {
				return fmt.Errorf("increase balance of %s: %w", t.ProductID, err)
			}
		}

		logger.Info(ctx, "stock received",
			"recorder_id", recorderID,
			"products", len(totals),
		)
		return nil
	})
}

// GetBalance returns the on-hand quantity of a product.
func (s *Service) GetBalance(ctx context.Context, productID id.ID) (entity.StockBalance, error) {
	return s.repo.GetBalance(ctx, productID)
}

// GetMovements returns the stock movements written by a document.
func (s *Service) GetMovements(ctx context.Context, recorderID id.ID) ([]entity.StockMovement, error) {
	return s.repo.GetMovementsByRecorder(ctx, recorderID)
}

// GetMovementHistory returns the movements of a product.
func (s *Service) GetMovementHistory(ctx context.Context, productID id.ID, filter MovementFilter) ([]entity.StockMovement, error) {
	if filter.Limit <= 0 || filter.Limit > 500 {
		filter.Limit = 100
	}
	return s.repo.GetMovementHistory(ctx, productID, filter)
}

// aggregate sums quantities per product and orders the result by product id.
func aggregate(lines []ReceiptLine) []ReceiptLine {
	byProduct := make(map[id.ID]types.Quantity, len(lines))
	for _, l := range lines {
		byProduct[l.ProductID] = byProduct[l.ProductID].Add(l.Quantity)
	}

	out := make([]ReceiptLine, 0, len(byProduct))
	for pid, qty := range byProduct {
		out = append(out, ReceiptLine{ProductID: pid, Quantity: qty})
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].ProductID[:], out[j].ProductID[:]) < 0
	})
	return out
}
