package catalog_repo

import (
	"receiptflow/internal/domain/catalogs/supplier"
	"receiptflow/internal/infrastructure/storage/postgres"
)

const suppliersTable = "cat_suppliers"

// SupplierRepo implements supplier.Repository.
type SupplierRepo struct {
	*BaseCatalogRepo[*supplier.Supplier]
}

func NewSupplierRepo(txManager *postgres.TxManager) *SupplierRepo {
	return &SupplierRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txManager,
			suppliersTable,
			"supplier",
			postgres.ExtractDBColumns[supplier.Supplier](),
			func() *supplier.Supplier { return &supplier.Supplier{} },
		),
	}
}

var _ supplier.Repository = (*SupplierRepo)(nil)
