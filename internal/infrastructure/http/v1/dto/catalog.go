package dto

import (
	"receiptflow/internal/domain/catalogs/product"
	"receiptflow/internal/domain/catalogs/supplier"
)

type CreateProductRequest struct {
	Code string `json:"code" binding:"required"`
	Name string `json:"name" binding:"required"`
	Unit string `json:"unit"`
}

func (r CreateProductRequest) ToEntity() *product.Product {
	return product.NewProduct(r.Code, r.Name, r.Unit)
}

type ProductResponse struct {
	CatalogResponse
	Unit string `json:"unit"`
}

func FromProduct(p *product.Product) ProductResponse {
	return ProductResponse{CatalogResponse: FromCatalog(p.Catalog), Unit: p.Unit}
}

type CreateSupplierRequest struct {
	Code  string `json:"code" binding:"required"`
	Name  string `json:"name" binding:"required"`
	Email string `json:"email"`
}

func (r CreateSupplierRequest) ToEntity() *supplier.Supplier {
	return supplier.NewSupplier(r.Code, r.Name, r.Email)
}

type SupplierResponse struct {
	CatalogResponse
	Email string `json:"email,omitempty"`
}

func FromSupplier(s *supplier.Supplier) SupplierResponse {
	return SupplierResponse{CatalogResponse: FromCatalog(s.Catalog), Email: s.Email}
}
