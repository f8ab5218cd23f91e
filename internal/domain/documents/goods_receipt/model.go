// Package goods_receipt implements the goods receipt document and its approval workflow.
package goods_receipt

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"receiptflow/internal/core/apperror"
	"receiptflow/internal/core/entity"
	"receiptflow/internal/core/id"
	"receiptflow/internal/core/types"
	"receiptflow/internal/domain/registers/stock"
)

// DocumentType names goods receipts in the stock register and the audit trail.
const DocumentType = "GoodsReceipt"

// GoodsReceipt records goods coming in from a supplier.
type GoodsReceipt struct {
	entity.BaseDocument

	// Number is assigned on first submit and never changes afterwards.
	Number string `db:"number" json:"number,omitempty"`

	SupplierID id.ID `db:"supplier_id" json:"supplierId"`

	// Status is changed by the Engine only.
	Status Status `db:"status" json:"status"`

	Notes string `db:"notes" json:"notes,omitempty"`

	// DecisionNotes holds the reason given with the last Reject or Cancel.
	DecisionNotes string `db:"decision_notes" json:"decisionNotes,omitempty"`

	// SupplierReference is the supplier's own reference sent with the confirmation.
	SupplierReference string `db:"supplier_reference" json:"supplierReference,omitempty"`

	// TotalAmount is the sum of line amounts, kept in step with Lines.
	TotalAmount types.Money `db:"total_amount" json:"totalAmount"`

	Lines []Line `db:"-" json:"lines"`
}

// Line is one received product.
type Line struct {
	LineID    id.ID          `db:"line_id" json:"lineId"`
	LineNo    int            `db:"line_no" json:"lineNo"`
	ProductID id.ID          `db:"product_id" json:"productId"`
	Quantity  types.Quantity `db:"quantity" json:"quantity"`
	UnitPrice types.Money    `db:"unit_price" json:"unitPrice"`
	Amount    types.Money    `db:"amount" json:"amount"`
}

// LineInput is a line as supplied by a caller.
type LineInput struct {
	ProductID id.ID
	Quantity  types.Quantity
	UnitPrice types.Money
}

// NewGoodsReceipt creates a Draft owned by createdBy.
func NewGoodsReceipt(createdBy string, supplierID id.ID, notes string) *GoodsReceipt {
	return &GoodsReceipt{
		BaseDocument: entity.NewBaseDocument(createdBy),
		SupplierID:   supplierID,
		Status:       StatusDraft,
		Notes:        notes,
		TotalAmount:  decimal.Zero,
		Lines:        make([]Line, 0),
	}
}

// ReplaceLines swaps all lines and recomputes the total in one step.
// Lines may change only while the receipt is in Draft or Rejected.
func (g *GoodsReceipt) ReplaceLines(inputs []LineInput) error {
	if !g.Status.LinesEditable() {
		return apperror.NewInvalidState("line items cannot be changed in this status").
			WithDetail("status", string(g.Status))
	}

	lines := make([]Line, 0, len(inputs))
	for i, in := range inputs {
		if err := validateLineInput(i+1, in); err != nil {
			return err
		}
		lines = append(lines, Line{
			LineID:    id.New(),
			LineNo:    i + 1,
			ProductID: in.ProductID,
			Quantity:  in.Quantity,
			UnitPrice: in.UnitPrice,
			Amount:    types.LineAmount(in.Quantity, in.UnitPrice),
		})
	}

	g.Lines = lines
	g.recalculateTotals()
	return nil
}

// ChangeSupplier sets the supplier while the receipt is still editable.
func (g *GoodsReceipt) ChangeSupplier(supplierID id.ID) error {
	if !g.Status.LinesEditable() {
		return apperror.NewInvalidState("supplier cannot be changed in this status").
			WithDetail("status", string(g.Status))
	}
	g.SupplierID = supplierID
	return nil
}

func (g *GoodsReceipt) recalculateTotals() {
	total := decimal.Zero
	for _, l := range g.Lines {
		total = total.Add(l.Amount)
	}
	g.TotalAmount = total
}

// TotalsConsistent reports whether TotalAmount equals Σ quantity × unitPrice.
func (g *GoodsReceipt) TotalsConsistent() bool {
	total := decimal.Zero
	for _, l := range g.Lines {
		total = total.Add(types.LineAmount(l.Quantity, l.UnitPrice))
	}
	return total.Equal(g.TotalAmount)
}

// ProductIDs returns the distinct products referenced by the lines.
func (g *GoodsReceipt) ProductIDs() []id.ID {
	seen := make(map[id.ID]struct{}, len(g.Lines))
	out := make([]id.ID, 0, len(g.Lines))
	for _, l := range g.Lines {
		if _, ok := seen[l.ProductID]; ok {
			continue
		}
		seen[l.ProductID] = struct{}{}
		out = append(out, l.ProductID)
	}
	return out
}

// StockLines converts the lines into stock register receipts.
func (g *GoodsReceipt) StockLines() []stock.ReceiptLine {
	out := make([]stock.ReceiptLine, 0, len(g.Lines))
	for _, l := range g.Lines {
		out = append(out, stock.ReceiptLine{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	return out
}

// Validate implements entity.Validatable.
func (g *GoodsReceipt) Validate(ctx context.Context) error {
	if g.CreatedBy == "" {
		return apperror.NewValidation("creator is required").WithDetail("field", "createdBy")
	}
	if !g.Status.IsValid() {
		return apperror.NewValidation("unknown status").WithDetail("status", string(g.Status))
	}
	for i, l := range g.Lines {
		if err := validateLineInput(i+1, LineInput{ProductID: l.ProductID, Quantity: l.Quantity, UnitPrice: l.UnitPrice}); err != nil {
			return err
		}
	}
	if !g.TotalsConsistent() {
		return apperror.NewValidation("total amount does not match lines")
	}
	return nil
}

func (g *GoodsReceipt) transitionTo(s Status) {
	g.Status = s
}

func validateLineInput(lineNo int, in LineInput) error {
	if id.IsNil(in.ProductID) {
		return apperror.NewValidation(fmt.Sprintf("line %d: product is required", lineNo)).
			WithDetail("field", "lines").WithDetail("lineNo", lineNo)
	}
	if !in.Quantity.IsPositive() {
		return apperror.NewValidation(fmt.Sprintf("line %d: quantity must be positive", lineNo)).
			WithDetail("field", "lines").WithDetail("lineNo", lineNo)
	}
	if in.UnitPrice.IsNegative() {
		return apperror.NewValidation(fmt.Sprintf("line %d: unit price must not be negative", lineNo)).
			WithDetail("field", "lines").WithDetail("lineNo", lineNo)
	}
	return nil
}

var _ entity.Validatable = (*GoodsReceipt)(nil)
