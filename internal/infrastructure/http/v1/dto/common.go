// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"time"

	"receiptflow/internal/core/apperror"
	"receiptflow/internal/core/entity"
	"receiptflow/internal/core/id"
)

// ListResponse wraps list results with pagination.
type ListResponse[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// IDResponse for create operations.
type IDResponse struct {
	ID string `json:"id"`
}

// ErrorResponse mirrors the body written by middleware.ErrorHandler.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// --- Catalog DTOs ---

// CatalogResponse contains the fields shared by directory entries.
type CatalogResponse struct {
	ID      string `json:"id"`
	Version int    `json:"version"`
	Code    string `json:"code"`
	Name    string `json:"name"`
}

// FromCatalog creates CatalogResponse from entity.Catalog.
func FromCatalog(c entity.Catalog) CatalogResponse {
	return CatalogResponse{
		ID:      c.ID.String(),
		Version: c.Version,
		Code:    c.Code,
		Name:    c.Name,
	}
}

// AuditResponse is one entry of a document history.
type AuditResponse struct {
	ID         string    `json:"id"`
	Action     string    `json:"action"`
	ActorID    string    `json:"actorId"`
	ActorRole  string    `json:"actorRole"`
	FromStatus string    `json:"fromStatus,omitempty"`
	ToStatus   string    `json:"toStatus,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	Snapshot   any       `json:"snapshot,omitempty"`
}

// ParseID converts a path or body value into an id, reporting field on failure.
func ParseID(field, value string) (id.ID, error) {
	parsed, err := id.Parse(value)
	if err != nil {
		return id.Nil(), apperror.NewValidation("invalid " + field + " format").WithDetail("field", field)
	}
	return parsed, nil
}

// ParseOptionalID parses value when it is set.
func ParseOptionalID(field string, value *string) (*id.ID, error) {
	if value == nil {
		return nil, nil
	}
	parsed, err := ParseID(field, *value)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
