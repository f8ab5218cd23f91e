package supplier

import (
	"receiptflow/internal/core/tx"
	"receiptflow/internal/domain"
)

// Repository defines persistence for suppliers.
type Repository interface {
	domain.CatalogRepository[*Supplier]
}

// Service provides the supplier directory.
type Service struct {
	*domain.CatalogService[*Supplier]
}

func NewService(repo Repository, txManager tx.Manager) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Supplier]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "supplier",
	})
	base.OnBeforeCreate(domain.UniqueCode[*Supplier](repo, "supplier", func(s *Supplier) string { return s.Code }))

	return &Service{CatalogService: base}
}
