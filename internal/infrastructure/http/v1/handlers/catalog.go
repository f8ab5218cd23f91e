package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"receiptflow/internal/core/entity"
	"receiptflow/internal/core/id"
	"receiptflow/internal/domain"
	"receiptflow/internal/infrastructure/http/v1/dto"
)

// CatalogService is the part of domain.CatalogService the handler needs.
type CatalogService[T entity.Validatable] interface {
	Create(ctx context.Context, e T) error
	GetByID(ctx context.Context, entityID id.ID) (T, error)
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[T], error)
}

// CatalogHandler provides generic HTTP handlers for directory entries.
type CatalogHandler[T entity.Validatable, CreateDTO any, RespDTO any] struct {
	*BaseHandler
	service      CatalogService[T]
	mapCreateDTO func(req CreateDTO) T
	mapToDTO     func(entity T) RespDTO
}

// CatalogHandlerConfig configures the catalog handler.
type CatalogHandlerConfig[T entity.Validatable, CreateDTO any, RespDTO any] struct {
	Service      CatalogService[T]
	MapCreateDTO func(req CreateDTO) T
	MapToDTO     func(entity T) RespDTO
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler[T entity.Validatable, CreateDTO any, RespDTO any](
	base *BaseHandler,
	cfg CatalogHandlerConfig[T, CreateDTO, RespDTO],
) *CatalogHandler[T, CreateDTO, RespDTO] {
	return &CatalogHandler[T, CreateDTO, RespDTO]{
		BaseHandler:  base,
		service:      cfg.Service,
		mapCreateDTO: cfg.MapCreateDTO,
		mapToDTO:     cfg.MapToDTO,
	}
}

// List handles GET /{entity} - list with filtering and pagination.
func (h *CatalogHandler[T, CreateDTO, RespDTO]) List(c *gin.Context) {
	filter := domain.DefaultListFilter()
	filter.Search = c.Query("search")
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.OrderBy = c.DefaultQuery("orderBy", "name")

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]RespDTO, 0, len(result.Items))
	for _, item := range result.Items {
		items = append(items, h.mapToDTO(item))
	}
	h.OK(c, dto.ListResponse[RespDTO]{
		Items:      items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// Get handles GET /{entity}/:id
func (h *CatalogHandler[T, CreateDTO, RespDTO]) Get(c *gin.Context) {
	entityID, ok := h.PathID(c)
	if !ok {
		return
	}

	e, err := h.service.GetByID(c.Request.Context(), entityID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, h.mapToDTO(e))
}

// Create handles POST /{entity}
func (h *CatalogHandler[T, CreateDTO, RespDTO]) Create(c *gin.Context) {
	var req CreateDTO
	if !h.BindJSON(c, &req) {
		return
	}

	e := h.mapCreateDTO(req)
	if err := h.service.Create(c.Request.Context(), e); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, h.mapToDTO(e))
}
