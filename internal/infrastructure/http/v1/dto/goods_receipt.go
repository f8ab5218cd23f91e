package dto

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"receiptflow/internal/core/apperror"
	"receiptflow/internal/core/id"
	"receiptflow/internal/domain/audit"
	"receiptflow/internal/domain/documents/goods_receipt"
)

// --- Request DTOs ---

// CreateGoodsReceiptRequest represents a request to create a draft.
// The supplier may be chosen later, but must be set before submission.
type CreateGoodsReceiptRequest struct {
	SupplierID string                    `json:"supplierId,omitempty"`
	Notes      string                    `json:"notes,omitempty"`
	Lines      []GoodsReceiptLineRequest `json:"lines"`
}

// GoodsReceiptLineRequest represents a line in create/update request.
// Quantity and unitPrice accept JSON numbers or decimal strings.
type GoodsReceiptLineRequest struct {
	ProductID string          `json:"productId" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

func toLineInputs(lines []GoodsReceiptLineRequest) ([]goods_receipt.LineInput, error) {
	if lines == nil {
		return nil, nil
	}
	out := make([]goods_receipt.LineInput, 0, len(lines))
	for i, l := range lines {
		productID, err := id.Parse(l.ProductID)
		if err != nil {
			return nil, apperror.NewValidation(fmt.Sprintf("line %d: invalid productId format", i+1)).
				WithDetail("field", "lines").WithDetail("lineNo", i+1)
		}
		out = append(out, goods_receipt.LineInput{
			ProductID: productID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		})
	}
	return out, nil
}

// ToInput converts request to service input.
func (r *CreateGoodsReceiptRequest) ToInput() (goods_receipt.CreateInput, error) {
	supplierID := id.Nil()
	if r.SupplierID != "" {
		parsed, err := ParseID("supplierId", r.SupplierID)
		if err != nil {
			return goods_receipt.CreateInput{}, err
		}
		supplierID = parsed
	}
	lines, err := toLineInputs(r.Lines)
	if err != nil {
		return goods_receipt.CreateInput{}, err
	}
	return goods_receipt.CreateInput{SupplierID: supplierID, Notes: r.Notes, Lines: lines}, nil
}

// UpdateGoodsReceiptRequest edits a receipt. Absent fields are left unchanged;
// lines, when present, replace all existing lines.
type UpdateGoodsReceiptRequest struct {
	SupplierID *string                   `json:"supplierId,omitempty"`
	Notes      *string                   `json:"notes,omitempty"`
	Lines      []GoodsReceiptLineRequest `json:"lines,omitempty"`
	Version    int                       `json:"version,omitempty"`
}

// ToInput converts request to service input. ifMatch overrides the body version.
func (r *UpdateGoodsReceiptRequest) ToInput(ifMatch int) (goods_receipt.EditInput, error) {
	supplierID, err := ParseOptionalID("supplierId", r.SupplierID)
	if err != nil {
		return goods_receipt.EditInput{}, err
	}
	lines, err := toLineInputs(r.Lines)
	if err != nil {
		return goods_receipt.EditInput{}, err
	}
	version := r.Version
	if ifMatch > 0 {
		version = ifMatch
	}
	return goods_receipt.EditInput{
		SupplierID:      supplierID,
		Notes:           r.Notes,
		Lines:           lines,
		ExpectedVersion: version,
	}, nil
}

// DecisionRequest approves or rejects a receipt awaiting approval.
type DecisionRequest struct {
	Action string `json:"action" binding:"required"`
	Notes  string `json:"notes,omitempty"`
}

// ReasonRequest carries an optional free-text reason.
type ReasonRequest struct {
	Reason string `json:"reason,omitempty"`
}

// SupplierConfirmationRequest is the body of the supplier webhook.
type SupplierConfirmationRequest struct {
	Reference string `json:"reference" binding:"required"`
}

// --- Response DTOs ---

// GoodsReceiptResponse represents a goods receipt in API responses.
type GoodsReceiptResponse struct {
	ID                string                     `json:"id"`
	Number            string                     `json:"number,omitempty"`
	Status            string                     `json:"status"`
	SupplierID        string                     `json:"supplierId,omitempty"`
	Notes             string                     `json:"notes,omitempty"`
	DecisionNotes     string                     `json:"decisionNotes,omitempty"`
	SupplierReference string                     `json:"supplierReference,omitempty"`
	TotalAmount       decimal.Decimal            `json:"totalAmount"`
	Lines             []GoodsReceiptLineResponse `json:"lines,omitempty"`
	Version           int                        `json:"version"`
	CreatedBy         string                     `json:"createdBy"`
	UpdatedBy         string                     `json:"updatedBy,omitempty"`
	CreatedAt         time.Time                  `json:"createdAt"`
	UpdatedAt         time.Time                  `json:"updatedAt"`
	AllowedActions    []string                   `json:"allowedActions,omitempty"`
}

// GoodsReceiptLineResponse represents a line in API responses.
type GoodsReceiptLineResponse struct {
	LineID    string          `json:"lineId"`
	LineNo    int             `json:"lineNo"`
	ProductID string          `json:"productId"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Amount    decimal.Decimal `json:"amount"`
}

// FromGoodsReceipt converts entity to response DTO.
func FromGoodsReceipt(doc *goods_receipt.GoodsReceipt) GoodsReceiptResponse {
	resp := GoodsReceiptResponse{
		ID:                doc.ID.String(),
		Number:            doc.Number,
		Status:            string(doc.Status),
		Notes:             doc.Notes,
		DecisionNotes:     doc.DecisionNotes,
		SupplierReference: doc.SupplierReference,
		TotalAmount:       doc.TotalAmount,
		Version:           doc.Version,
		CreatedBy:         doc.CreatedBy,
		UpdatedBy:         doc.UpdatedBy,
		CreatedAt:         doc.CreatedAt,
		UpdatedAt:         doc.UpdatedAt,
	}
	if !id.IsNil(doc.SupplierID) {
		resp.SupplierID = doc.SupplierID.String()
	}
	for _, l := range doc.Lines {
		resp.Lines = append(resp.Lines, GoodsReceiptLineResponse{
			LineID:    l.LineID.String(),
			LineNo:    l.LineNo,
			ProductID: l.ProductID.String(),
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Amount:    l.Amount,
		})
	}
	return resp
}

// FromGoodsReceiptWithActions adds the caller's allowed actions.
func FromGoodsReceiptWithActions(doc *goods_receipt.GoodsReceipt, actions goods_receipt.ActionSet) GoodsReceiptResponse {
	resp := FromGoodsReceipt(doc)
	resp.AllowedActions = actionNames(actions)
	return resp
}

// AllowedActionsResponse lists what the caller may do with a receipt.
type AllowedActionsResponse struct {
	Status  string   `json:"status"`
	Actions []string `json:"actions"`
}

func NewAllowedActionsResponse(status goods_receipt.Status, actions goods_receipt.ActionSet) AllowedActionsResponse {
	return AllowedActionsResponse{Status: string(status), Actions: actionNames(actions)}
}

func actionNames(actions goods_receipt.ActionSet) []string {
	out := make([]string, 0)
	for _, a := range actions.Slice() {
		out = append(out, string(a))
	}
	return out
}

// FromAuditRecord converts an audit record to response DTO.
func FromAuditRecord(rec audit.Record) AuditResponse {
	resp := AuditResponse{
		ID:         rec.ID.String(),
		Action:     rec.Action,
		ActorID:    rec.ActorUserID,
		ActorRole:  rec.ActorRole,
		FromStatus: rec.FromStatus,
		ToStatus:   rec.ToStatus,
		Timestamp:  rec.CreatedAt,
	}
	if len(rec.Snapshot) > 0 {
		resp.Snapshot = json.RawMessage(rec.Snapshot)
	}
	return resp
}
