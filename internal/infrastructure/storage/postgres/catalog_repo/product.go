package catalog_repo

import (
	"receiptflow/internal/domain/catalogs/product"
	"receiptflow/internal/infrastructure/storage/postgres"
)

const productsTable = "cat_products"

// ProductRepo implements product.Repository.
type ProductRepo struct {
	*BaseCatalogRepo[*product.Product]
}

func NewProductRepo(txManager *postgres.TxManager) *ProductRepo {
	return &ProductRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txManager,
			productsTable,
			"product",
			postgres.ExtractDBColumns[product.Product](),
			func() *product.Product { return &product.Product{} },
		),
	}
}

var _ product.Repository = (*ProductRepo)(nil)
