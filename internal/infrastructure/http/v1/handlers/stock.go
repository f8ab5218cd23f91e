package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"receiptflow/internal/core/apperror"
	"receiptflow/internal/core/entity"
	"receiptflow/internal/core/id"
	"receiptflow/internal/domain/registers/stock"
	"receiptflow/internal/infrastructure/http/v1/dto"
)

// StockReader is the read side of the stock register.
type StockReader interface {
	GetBalance(ctx context.Context, productID id.ID) (entity.StockBalance, error)
	GetMovementHistory(ctx context.Context, productID id.ID, filter stock.MovementFilter) ([]entity.StockMovement, error)
}

// StockHandler handles HTTP requests for the stock register.
type StockHandler struct {
	*BaseHandler
	stock  StockReader
	exists func(ctx context.Context, productID id.ID) (bool, error)
}

// NewStockHandler creates a new stock register handler.
// exists reports whether a product is in the directory.
func NewStockHandler(base *BaseHandler, reader StockReader, exists func(ctx context.Context, productID id.ID) (bool, error)) *StockHandler {
	return &StockHandler{
		BaseHandler: base,
		stock:       reader,
		exists:      exists,
	}
}

// ProductStock handles GET /products/:id/stock
// The response holds the balance and the most recent movements.
func (h *StockHandler) ProductStock(c *gin.Context) {
	ctx := c.Request.Context()

	productID, ok := h.PathID(c)
	if !ok {
		return
	}

	known, err := h.exists(ctx, productID)
	if err != nil {
		h.Error(c, err)
		return
	}
	if !known {
		h.Error(c, apperror.NewNotFound("product", productID.String()))
		return
	}

	filter := stock.MovementFilter{
		Limit:  h.ParseIntQuery(c, "limit", 20),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}
	if from := c.Query("from"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid from, expected RFC3339"))
			return
		}
		filter.FromDate = &t
	}

	balance, err := h.stock.GetBalance(ctx, productID)
	if err != nil {
		h.Error(c, err)
		return
	}
	movements, err := h.stock.GetMovementHistory(ctx, productID, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	resp := struct {
		dto.StockBalanceResponse
		Movements []dto.StockMovementResponse `json:"movements"`
	}{
		StockBalanceResponse: dto.FromStockBalance(balance),
		Movements:            make([]dto.StockMovementResponse, 0, len(movements)),
	}
	for _, m := range movements {
		resp.Movements = append(resp.Movements, dto.FromStockMovement(m))
	}
	h.OK(c, resp)
}
