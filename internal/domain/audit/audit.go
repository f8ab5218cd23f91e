// Package audit defines the workflow audit trail: one record per applied action.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"receiptflow/internal/core/id"
)

// Record describes one successful action on a document.
type Record struct {
	ID           id.ID           `json:"id"`
	DocumentType string          `json:"documentType"`
	DocumentID   id.ID           `json:"documentId"`
	ActorUserID  string          `json:"actorUserId"`
	ActorRole    string          `json:"actorRole"`
	Action       string          `json:"action"`
	FromStatus   string          `json:"fromStatus"`
	ToStatus     string          `json:"toStatus,omitempty"` // empty when the document was deleted
	Snapshot     json.RawMessage `json:"snapshot,omitempty"`
	CreatedAt    time.Time       `json:"timestamp"`
}

// Sink persists audit records. Record is called inside the business transaction,
// so a failing sink aborts the action.
type Sink interface {
	Record(ctx context.Context, rec Record) error
}

// Reader returns the audit trail of a document, newest first.
type Reader interface {
	History(ctx context.Context, documentType string, documentID id.ID, limit int) ([]Record, error)
}

// Store is a Sink that can also be read back.
type Store interface {
	Sink
	Reader
}

// Normalize fills the generated fields of rec.
func Normalize(rec *Record) {
	if id.IsNil(rec.ID) {
		rec.ID = id.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
}
