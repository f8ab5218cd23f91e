package entity

import (
	"context"
	"strings"

	"receiptflow/internal/core/apperror"
)

// Catalog is the base type for directory entries (products, suppliers).
type Catalog struct {
	BaseEntity

	// Code is a human-readable identifier, unique within the catalog
	Code string `db:"code" json:"code"`

	Name string `db:"name" json:"name"`
}

// NewCatalog creates a new Catalog with generated ID.
func NewCatalog(code, name string) Catalog {
	return Catalog{
		BaseEntity: NewBaseEntity(),
		Code:       strings.TrimSpace(code),
		Name:       strings.TrimSpace(name),
	}
}

// Validate implements Validatable interface.
func (c *Catalog) Validate(ctx context.Context) error {
	if c.Code == "" {
		return apperror.NewValidation("code is required").WithDetail("field", "code")
	}
	if c.Name == "" {
		return apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	return nil
}
