package v1

import (
	"github.com/gin-gonic/gin"

	"receiptflow/internal/core/security"
	"receiptflow/internal/infrastructure/http/v1/middleware"
)

// CatalogRouteHandler defines the interface for directory handlers.
type CatalogRouteHandler interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
}

// RegisterCatalogRoutes registers read routes for every user and the create
// route for the given roles.
//
// Usage:
//
//	RegisterCatalogRoutes(api.Group("/products"), productHandler, security.RoleAdmin, security.RoleManager)
func RegisterCatalogRoutes(group *gin.RouterGroup, handler CatalogRouteHandler, writers ...security.Role) {
	group.GET("", handler.List)
	group.GET("/:id", handler.Get)
	group.POST("", middleware.RequireRole(writers...), handler.Create)
}
