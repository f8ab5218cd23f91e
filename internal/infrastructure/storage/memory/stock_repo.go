package memory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"receiptflow/internal/core/entity"
	"receiptflow/internal/core/id"
	"receiptflow/internal/core/types"
	"receiptflow/internal/domain/registers/stock"
)

// StockRepo implements stock.Repository.
type StockRepo struct {
	s *Store
}

func NewStockRepo(s *Store) *StockRepo {
	return &StockRepo{s: s}
}

func (r *StockRepo) CreateMovements(ctx context.Context, movements []entity.StockMovement) error {
	return r.s.write(ctx, func(st *state) error {
		st.movements = append(st.movements, movements...)
		return nil
	})
}

func (r *StockRepo) GetMovementsByRecorder(ctx context.Context, recorderID id.ID) ([]entity.StockMovement, error) {
	var out []entity.StockMovement
	err := r.s.read(func(st *state) error {
		for _, m := range st.movements {
			if m.RecorderID == recorderID {
				out = append(out, m)
			}
		}
		return nil
	})
	return out, err
}

func (r *StockRepo) GetMovementHistory(ctx context.Context, productID id.ID, filter stock.MovementFilter) ([]entity.StockMovement, error) {
	var matched []entity.StockMovement
	err := r.s.read(func(st *state) error {
		for _, m := range st.movements {
			if m.ProductID != productID {
				continue
			}
			if filter.RecordType != nil && m.RecordType != *filter.RecordType {
				continue
			}
			if filter.FromDate != nil && m.CreatedAt.Before(*filter.FromDate) {
				continue
			}
			if filter.ToDate != nil && m.CreatedAt.After(*filter.ToDate) {
				continue
			}
			matched = append(matched, m)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	if filter.Offset >= len(matched) {
		return []entity.StockMovement{}, nil
	}
	matched = matched[filter.Offset:]
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

func (r *StockRepo) IncreaseBalance(ctx context.Context, productID id.ID, qty types.Quantity) error {
	if err := r.s.stockFault(productID); err != nil {
		return err
	}
	return r.s.write(ctx, func(st *state) error {
		bal, ok := st.balances[productID]
		if !ok {
			bal = entity.StockBalance{ProductID: productID, Quantity: decimal.Zero}
		}
		bal.Quantity = bal.Quantity.Add(qty)
		bal.UpdatedAt = time.Now().UTC()
		st.balances[productID] = bal
		return nil
	})
}

func (r *StockRepo) GetBalance(ctx context.Context, productID id.ID) (entity.StockBalance, error) {
	var out entity.StockBalance
	err := r.s.read(func(st *state) error {
		bal, ok := st.balances[productID]
		if !ok {
			bal = entity.StockBalance{ProductID: productID, Quantity: decimal.Zero}
		}
		out = bal
		return nil
	})
	return out, err
}

var _ stock.Repository = (*StockRepo)(nil)
