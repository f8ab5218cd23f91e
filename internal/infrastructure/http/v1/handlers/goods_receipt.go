package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"receiptflow/internal/core/apperror"
	"receiptflow/internal/core/id"
	"receiptflow/internal/core/security"
	"receiptflow/internal/domain"
	"receiptflow/internal/domain/documents/goods_receipt"
	"receiptflow/internal/infrastructure/http/v1/dto"
)

// GoodsReceiptHandler handles HTTP requests for goods receipts.
// Every state change is delegated to the service, which runs the workflow engine.
type GoodsReceiptHandler struct {
	*BaseHandler
	service *goods_receipt.Service
}

// NewGoodsReceiptHandler creates a new goods receipt handler.
func NewGoodsReceiptHandler(base *BaseHandler, service *goods_receipt.Service) *GoodsReceiptHandler {
	return &GoodsReceiptHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Create handles POST /goods-receipts
func (h *GoodsReceiptHandler) Create(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}

	var req dto.CreateGoodsReceiptRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	doc, err := h.service.Create(c.Request.Context(), actor, in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, h.withActions(doc, actor))
}

// List handles GET /goods-receipts
func (h *GoodsReceiptHandler) List(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}

	filter := goods_receipt.ListFilter{ListFilter: domain.DefaultListFilter()}
	filter.Search = c.Query("search")
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.OrderBy = c.DefaultQuery("orderBy", "-created_at")

	if v := c.Query("status"); v != "" {
		status, err := goods_receipt.ParseStatus(v)
		if err != nil {
			h.Error(c, apperror.NewValidation(err.Error()).WithDetail("field", "status"))
			return
		}
		filter.Status = &status
	}
	if v := c.Query("supplierId"); v != "" {
		supplierID, err := dto.ParseID("supplierId", v)
		if err != nil {
			h.Error(c, err)
			return
		}
		filter.SupplierID = &supplierID
	}
	switch v := c.Query("createdBy"); v {
	case "":
	case "me":
		filter.CreatedBy = actor.UserID
	default:
		filter.CreatedBy = v
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]dto.GoodsReceiptResponse, 0, len(result.Items))
	for _, doc := range result.Items {
		items = append(items, h.withActions(doc, actor))
	}
	h.OK(c, dto.ListResponse[dto.GoodsReceiptResponse]{
		Items:      items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// Get handles GET /goods-receipts/:id
func (h *GoodsReceiptHandler) Get(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	docID, ok := h.PathID(c)
	if !ok {
		return
	}

	doc, err := h.service.GetByID(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, h.withActions(doc, actor))
}

// Actions handles GET /goods-receipts/:id/actions
func (h *GoodsReceiptHandler) Actions(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	docID, ok := h.PathID(c)
	if !ok {
		return
	}

	doc, err := h.service.GetByID(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewAllowedActionsResponse(doc.Status,
		goods_receipt.AllowedActions(doc.Status, actor.Role, doc.IsCreatedBy(actor.UserID))))
}

// History handles GET /goods-receipts/:id/history
func (h *GoodsReceiptHandler) History(c *gin.Context) {
	docID, ok := h.PathID(c)
	if !ok {
		return
	}

	records, err := h.service.History(c.Request.Context(), docID, h.ParseIntQuery(c, "limit", 100))
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]dto.AuditResponse, 0, len(records))
	for _, rec := range records {
		items = append(items, dto.FromAuditRecord(rec))
	}
	h.OK(c, gin.H{"items": items})
}

// Submit handles POST /goods-receipts/:id/submit
func (h *GoodsReceiptHandler) Submit(c *gin.Context) {
	h.apply(c, h.service.Submit)
}

// Complete handles POST /goods-receipts/:id/complete
func (h *GoodsReceiptHandler) Complete(c *gin.Context) {
	h.apply(c, h.service.Complete)
}

// Resubmit handles POST /goods-receipts/:id/resubmit
func (h *GoodsReceiptHandler) Resubmit(c *gin.Context) {
	h.apply(c, h.service.Resubmit)
}

// ResendSupplierEmail handles POST /goods-receipts/:id/resend-supplier-email
func (h *GoodsReceiptHandler) ResendSupplierEmail(c *gin.Context) {
	h.apply(c, h.service.ResendSupplierNotification)
}

// Cancel handles POST /goods-receipts/:id/cancel
func (h *GoodsReceiptHandler) Cancel(c *gin.Context) {
	var req dto.ReasonRequest
	if !h.BindOptionalJSON(c, &req) {
		return
	}
	h.apply(c, func(ctx context.Context, docID id.ID, actor security.Actor) (*goods_receipt.GoodsReceipt, error) {
		return h.service.Cancel(ctx, docID, actor, req.Reason)
	})
}

// Decide handles POST /goods-receipts/:id/approve-reject
func (h *GoodsReceiptHandler) Decide(c *gin.Context) {
	var req dto.DecisionRequest
	if !h.BindJSON(c, &req) {
		return
	}
	action, err := goods_receipt.ParseAction(req.Action)
	if err != nil {
		h.Error(c, apperror.NewValidation(err.Error()).WithDetail("field", "action"))
		return
	}
	h.apply(c, func(ctx context.Context, docID id.ID, actor security.Actor) (*goods_receipt.GoodsReceipt, error) {
		return h.service.Decide(ctx, docID, actor, action, req.Notes)
	})
}

// Update handles PUT /goods-receipts/:id
// The expected version comes from If-Match or the body.
func (h *GoodsReceiptHandler) Update(c *gin.Context) {
	ifMatch, ok := h.IfMatch(c)
	if !ok {
		return
	}
	var req dto.UpdateGoodsReceiptRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput(ifMatch)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.apply(c, func(ctx context.Context, docID id.ID, actor security.Actor) (*goods_receipt.GoodsReceipt, error) {
		return h.service.Edit(ctx, docID, actor, in)
	})
}

// Delete handles DELETE /goods-receipts/:id
func (h *GoodsReceiptHandler) Delete(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	docID, ok := h.PathID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), docID, actor); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

type actionFunc func(ctx context.Context, docID id.ID, actor security.Actor) (*goods_receipt.GoodsReceipt, error)

// apply runs a workflow action on the :id receipt and writes the new state.
func (h *GoodsReceiptHandler) apply(c *gin.Context, fn actionFunc) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	docID, ok := h.PathID(c)
	if !ok {
		return
	}

	doc, err := fn(c.Request.Context(), docID, actor)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, h.withActions(doc, actor))
}

func (h *GoodsReceiptHandler) withActions(doc *goods_receipt.GoodsReceipt, actor security.Actor) dto.GoodsReceiptResponse {
	return dto.FromGoodsReceiptWithActions(doc,
		goods_receipt.AllowedActions(doc.Status, actor.Role, doc.IsCreatedBy(actor.UserID)))
}
