package handlers

import (
	"github.com/gin-gonic/gin"

	"receiptflow/internal/domain/documents/goods_receipt"
	"receiptflow/internal/infrastructure/http/v1/dto"
)

// SupplierWebhookHandler accepts confirmations sent by suppliers.
// The caller is authenticated by middleware.WebhookSecret, not by a user token.
type SupplierWebhookHandler struct {
	*BaseHandler
	service *goods_receipt.Service
}

func NewSupplierWebhookHandler(base *BaseHandler, service *goods_receipt.Service) *SupplierWebhookHandler {
	return &SupplierWebhookHandler{BaseHandler: base, service: service}
}

// Confirm handles POST /webhooks/supplier-confirmations/:id
func (h *SupplierWebhookHandler) Confirm(c *gin.Context) {
	docID, ok := h.PathID(c)
	if !ok {
		return
	}
	var req dto.SupplierConfirmationRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc, err := h.service.ConfirmBySupplier(c.Request.Context(), docID, req.Reference)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{
		"id":     doc.ID.String(),
		"status": string(doc.Status),
	})
}
