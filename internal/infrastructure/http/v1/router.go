// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"receiptflow/internal/core/security"
	"receiptflow/internal/domain/catalogs/product"
	"receiptflow/internal/domain/catalogs/supplier"
	"receiptflow/internal/domain/documents/goods_receipt"
	"receiptflow/internal/domain/registers/stock"
	"receiptflow/internal/infrastructure/http/v1/handlers"
	"receiptflow/internal/infrastructure/http/v1/middleware"
	"receiptflow/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator resolves the acting user from the bearer token
	JWTValidator middleware.JWTValidator

	// WebhookSecret protects the supplier confirmation endpoint; empty disables it
	WebhookSecret string

	// Storage is checked by the readiness probe
	Storage       handlers.Pinger
	StorageDriver string

	Receipts  *goods_receipt.Service
	Products  *product.Service
	Suppliers *supplier.Service
	Stock     *stock.Service

	// Debug switches gin to debug mode
	Debug bool
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.Storage, cfg.StorageDriver)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}

	base := handlers.NewBaseHandler()

	webhooks := router.Group("/webhooks")
	webhooks.Use(middleware.WebhookSecret(cfg.WebhookSecret))
	{
		h := handlers.NewSupplierWebhookHandler(base, cfg.Receipts)
		webhooks.POST("/supplier-confirmations/:id", h.Confirm)
	}

	api := router.Group("/api/v1")
	api.Use(middleware.Auth(cfg.JWTValidator))
	{
		registerReceiptRoutes(api.Group("/goods-receipts"), base, cfg)
		registerCatalogRoutes(api, base, cfg)
	}

	return router
}

func registerReceiptRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewGoodsReceiptHandler(base, cfg.Receipts)

	rg.POST("", h.Create)
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)
	rg.PUT("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)
	rg.GET("/:id/actions", h.Actions)
	rg.GET("/:id/history", h.History)

	rg.POST("/:id/submit", h.Submit)
	rg.POST("/:id/approve-reject", h.Decide)
	rg.POST("/:id/complete", h.Complete)
	rg.POST("/:id/cancel", h.Cancel)
	rg.POST("/:id/resubmit", h.Resubmit)
	rg.POST("/:id/resend-supplier-email", h.ResendSupplierEmail)
}

func registerCatalogRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	products := rg.Group("/products")
	RegisterCatalogRoutes(products, handlers.NewProductHandler(base, cfg.Products),
		security.RoleAdmin, security.RoleManager)

	stockHandler := handlers.NewStockHandler(base, cfg.Stock, cfg.Products.Exists)
	products.GET("/:id/stock", stockHandler.ProductStock)

	RegisterCatalogRoutes(rg.Group("/suppliers"), handlers.NewSupplierHandler(base, cfg.Suppliers),
		security.RoleAdmin, security.RoleManager)
}
