// Package supplier provides the supplier directory.
// A supplier's email is where receipt notifications are sent.
package supplier

import (
	"context"
	"net/mail"
	"strings"

	"receiptflow/internal/core/apperror"
	"receiptflow/internal/core/entity"
)

// Supplier is a vendor goods are received from.
type Supplier struct {
	entity.Catalog

	Email string `db:"email" json:"email"`
}

// NewSupplier creates a supplier with generated ID.
func NewSupplier(code, name, email string) *Supplier {
	return &Supplier{
		Catalog: entity.NewCatalog(code, name),
		Email:   strings.TrimSpace(email),
	}
}

// Validate implements entity.Validatable.
func (s *Supplier) Validate(ctx context.Context) error {
	if err := s.Catalog.Validate(ctx); err != nil {
		return err
	}
	if s.Email != "" {
		if _, err := mail.ParseAddress(s.Email); err != nil {
			return apperror.NewValidation("invalid email").WithDetail("field", "email")
		}
	}
	return nil
}
