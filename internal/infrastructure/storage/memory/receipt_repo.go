package memory

import (
	"context"
	"sort"
	"strings"

	"receiptflow/internal/core/apperror"
	"receiptflow/internal/core/id"
	"receiptflow/internal/domain"
	"receiptflow/internal/domain/documents/goods_receipt"
)

// ReceiptRepo implements goods_receipt.Repository.
type ReceiptRepo struct {
	s *Store
}

func NewReceiptRepo(s *Store) *ReceiptRepo {
	return &ReceiptRepo{s: s}
}

func cloneReceipt(doc *goods_receipt.GoodsReceipt, withLines bool) *goods_receipt.GoodsReceipt {
	c := *doc
	if withLines {
		c.Lines = append([]goods_receipt.Line(nil), doc.Lines...)
	} else {
		c.Lines = nil
	}
	return &c
}

func (r *ReceiptRepo) Create(ctx context.Context, doc *goods_receipt.GoodsReceipt) error {
	return r.s.write(ctx, func(st *state) error {
		if _, ok := st.receipts[doc.ID]; ok {
			return apperror.NewDuplicate("goods_receipt", "id", doc.ID.String())
		}
		stored := cloneReceipt(doc, false)
		stored.Lines = []goods_receipt.Line{}
		st.receipts[doc.ID] = stored
		return nil
	})
}

func (r *ReceiptRepo) GetByID(ctx context.Context, docID id.ID) (*goods_receipt.GoodsReceipt, error) {
	var out *goods_receipt.GoodsReceipt
	err := r.s.read(func(st *state) error {
		doc, ok := st.receipts[docID]
		if !ok {
			return apperror.NewNotFound("goods_receipt", docID.String())
		}
		out = cloneReceipt(doc, true)
		return nil
	})
	return out, err
}

// GetForUpdate requires a transaction; transactions are serialized, so the
// document cannot change until the caller commits.
func (r *ReceiptRepo) GetForUpdate(ctx context.Context, docID id.ID) (*goods_receipt.GoodsReceipt, error) {
	if !r.s.inTx(ctx) {
		return nil, ErrNoTransaction
	}
	return r.GetByID(ctx, docID)
}

func (r *ReceiptRepo) Update(ctx context.Context, doc *goods_receipt.GoodsReceipt) error {
	return r.s.write(ctx, func(st *state) error {
		current, ok := st.receipts[doc.ID]
		if !ok {
			return apperror.NewNotFound("goods_receipt", doc.ID.String())
		}
		if current.Version != doc.Version {
			return apperror.NewConcurrentModification("goods_receipt", doc.ID.String())
		}

		doc.Version++
		stored := cloneReceipt(doc, false)
		stored.Lines = current.Lines
		st.receipts[doc.ID] = stored
		return nil
	})
}

func (r *ReceiptRepo) Delete(ctx context.Context, docID id.ID) error {
	return r.s.write(ctx, func(st *state) error {
		if _, ok := st.receipts[docID]; !ok {
			return apperror.NewNotFound("goods_receipt", docID.String())
		}
		delete(st.receipts, docID)
		return nil
	})
}

func (r *ReceiptRepo) SaveLines(ctx context.Context, docID id.ID, lines []goods_receipt.Line) error {
	return r.s.write(ctx, func(st *state) error {
		doc, ok := st.receipts[docID]
		if !ok {
			return apperror.NewNotFound("goods_receipt", docID.String())
		}
		doc.Lines = append([]goods_receipt.Line{}, lines...)
		return nil
	})
}

func (r *ReceiptRepo) List(ctx context.Context, filter goods_receipt.ListFilter) (domain.ListResult[*goods_receipt.GoodsReceipt], error) {
	filter.Normalize()
	res := domain.ListResult[*goods_receipt.GoodsReceipt]{
		Items:  []*goods_receipt.GoodsReceipt{},
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	err := r.s.read(func(st *state) error {
		var matched []*goods_receipt.GoodsReceipt
		for _, doc := range st.receipts {
			if matchReceipt(doc, filter) {
				matched = append(matched, doc)
			}
		}
		sortReceipts(matched, filter.OrderBy)

		res.TotalCount = int64(len(matched))
		for i := filter.Offset; i < len(matched) && len(res.Items) < filter.Limit; i++ {
			res.Items = append(res.Items, cloneReceipt(matched[i], false))
		}
		return nil
	})
	return res, err
}

func matchReceipt(doc *goods_receipt.GoodsReceipt, f goods_receipt.ListFilter) bool {
	if f.Status != nil && doc.Status != *f.Status {
		return false
	}
	if f.SupplierID != nil && doc.SupplierID != *f.SupplierID {
		return false
	}
	if f.CreatedBy != "" && doc.CreatedBy != f.CreatedBy {
		return false
	}
	if len(f.IDs) > 0 && !containsID(f.IDs, doc.ID) {
		return false
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(doc.Number), q) && !strings.Contains(strings.ToLower(doc.Notes), q) {
			return false
		}
	}
	return true
}

func sortReceipts(docs []*goods_receipt.GoodsReceipt, orderBy string) {
	desc := true
	field := "created_at"
	if orderBy != "" {
		desc = strings.HasPrefix(orderBy, "-")
		field = strings.TrimPrefix(orderBy, "-")
	}

	less := func(a, b *goods_receipt.GoodsReceipt) bool {
		switch field {
		case "number":
			return a.Number < b.Number
		case "updated_at":
			return a.UpdatedAt.Before(b.UpdatedAt)
		case "total_amount":
			return a.TotalAmount.LessThan(b.TotalAmount)
		default:
			if a.CreatedAt.Equal(b.CreatedAt) {
				return a.ID.String() < b.ID.String()
			}
			return a.CreatedAt.Before(b.CreatedAt)
		}
	}
	sort.SliceStable(docs, func(i, j int) bool {
		if desc {
			return less(docs[j], docs[i])
		}
		return less(docs[i], docs[j])
	})
}

func containsID(ids []id.ID, v id.ID) bool {
	for _, x := range ids {
		if x == v {
			return true
		}
	}
	return false
}

var _ goods_receipt.Repository = (*ReceiptRepo)(nil)
