package product

import (
	"receiptflow/internal/core/tx"
	"receiptflow/internal/domain"
)

// Repository defines persistence for products.
type Repository interface {
	domain.CatalogRepository[*Product]
}

// Service provides the product directory.
type Service struct {
	*domain.CatalogService[*Product]
}

func NewService(repo Repository, txManager tx.Manager) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Product]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "product",
	})
	base.OnBeforeCreate(domain.UniqueCode[*Product](repo, "product", func(p *Product) string { return p.Code }))

	return &Service{CatalogService: base}
}
