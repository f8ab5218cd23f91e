package memory

import (
	"context"

	"receiptflow/internal/core/id"
	"receiptflow/internal/domain/audit"
)

// AuditStore implements audit.Store.
type AuditStore struct {
	s *Store
}

func NewAuditStore(s *Store) *AuditStore {
	return &AuditStore{s: s}
}

func (a *AuditStore) Record(ctx context.Context, rec audit.Record) error {
	if err := a.s.auditFault(); err != nil {
		return err
	}
	audit.Normalize(&rec)
	return a.s.write(ctx, func(st *state) error {
		st.audit = append(st.audit, rec)
		return nil
	})
}

// History returns records newest first.
func (a *AuditStore) History(ctx context.Context, documentType string, documentID id.ID, limit int) ([]audit.Record, error) {
	out := []audit.Record{}
	err := a.s.read(func(st *state) error {
		for i := len(st.audit) - 1; i >= 0; i-- {
			rec := st.audit[i]
			if rec.DocumentType != documentType || rec.DocumentID != documentID {
				continue
			}
			out = append(out, rec)
			if limit > 0 && len(out) == limit {
				break
			}
		}
		return nil
	})
	return out, err
}

var _ audit.Store = (*AuditStore)(nil)
