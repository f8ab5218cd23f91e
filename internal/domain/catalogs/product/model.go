// Package product provides the product directory: the goods a receipt line can reference.
package product

import (
	"context"
	"strings"

	"receiptflow/internal/core/entity"
)

// Product is a stock-keeping item.
type Product struct {
	entity.Catalog

	// Unit of measure, e.g. "pcs", "kg"
	Unit string `db:"unit" json:"unit"`
}

// NewProduct creates a product with generated ID.
func NewProduct(code, name, unit string) *Product {
	unit = strings.TrimSpace(unit)
	if unit == "" {
		unit = "pcs"
	}
	return &Product{
		Catalog: entity.NewCatalog(code, name),
		Unit:    unit,
	}
}

// Validate implements entity.Validatable.
func (p *Product) Validate(ctx context.Context) error {
	return p.Catalog.Validate(ctx)
}
