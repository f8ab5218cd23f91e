// Package entity holds the persisted shapes shared by directories and documents.
package entity

import (
	"context"
	"time"

	"receiptflow/internal/core/id"
)

// Validatable is implemented by entities that check their own invariants
// without storage access.
type Validatable interface {
	Validate(ctx context.Context) error
}

// BaseEntity is the identity and optimistic-lock version of a row.
// Version starts at 1 and grows by one with every stored update.
type BaseEntity struct {
	ID      id.ID `db:"id" json:"id"`
	Version int   `db:"version" json:"version"`
}

func NewBaseEntity() BaseEntity {
	return BaseEntity{ID: id.New(), Version: 1}
}

// SetVersion is called by repositories with the version they stored.
func (b *BaseEntity) SetVersion(v int) {
	b.Version = v
}

// BaseDocument adds ownership and change tracking. CreatedBy is the
// external user id of the creator and never changes.
type BaseDocument struct {
	BaseEntity

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
	CreatedBy string    `db:"created_by" json:"createdBy"`
	UpdatedBy string    `db:"updated_by" json:"updatedBy,omitempty"`
}

func NewBaseDocument(createdBy string) BaseDocument {
	now := time.Now().UTC()
	return BaseDocument{
		BaseEntity: NewBaseEntity(),
		CreatedAt:  now,
		UpdatedAt:  now,
		CreatedBy:  createdBy,
	}
}

// IsCreatedBy reports whether userID owns the document.
func (b *BaseDocument) IsCreatedBy(userID string) bool {
	return userID != "" && b.CreatedBy == userID
}

// Touch records the last change.
func (b *BaseDocument) Touch(userID string, at time.Time) {
	b.UpdatedAt = at.UTC()
	b.UpdatedBy = userID
}
