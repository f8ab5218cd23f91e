package handlers

import (
	"receiptflow/internal/domain/catalogs/product"
	"receiptflow/internal/domain/catalogs/supplier"
	"receiptflow/internal/infrastructure/http/v1/dto"
)

// ProductHandler serves the product directory.
type ProductHandler = CatalogHandler[*product.Product, dto.CreateProductRequest, dto.ProductResponse]

func NewProductHandler(base *BaseHandler, service CatalogService[*product.Product]) *ProductHandler {
	return NewCatalogHandler(base, CatalogHandlerConfig[*product.Product, dto.CreateProductRequest, dto.ProductResponse]{
		Service:      service,
		MapCreateDTO: dto.CreateProductRequest.ToEntity,
		MapToDTO:     dto.FromProduct,
	})
}

// SupplierHandler serves the supplier directory.
type SupplierHandler = CatalogHandler[*supplier.Supplier, dto.CreateSupplierRequest, dto.SupplierResponse]

func NewSupplierHandler(base *BaseHandler, service CatalogService[*supplier.Supplier]) *SupplierHandler {
	return NewCatalogHandler(base, CatalogHandlerConfig[*supplier.Supplier, dto.CreateSupplierRequest, dto.SupplierResponse]{
		Service:      service,
		MapCreateDTO: dto.CreateSupplierRequest.ToEntity,
		MapToDTO:     dto.FromSupplier,
	})
}
