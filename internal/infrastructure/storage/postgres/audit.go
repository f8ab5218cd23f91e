package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/klauspost/compress/zstd"

	"receiptflow/internal/core/id"
	"receiptflow/internal/domain/audit"
)

// CompressionAlgo specifies how a stored snapshot is encoded.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

const defaultCompressThreshold = 8 * 1024

type auditRow struct {
	ID                 id.ID           `db:"id"`
	DocumentType       string          `db:"document_type"`
	DocumentID         id.ID           `db:"document_id"`
	Action             string          `db:"action"`
	ActorUserID        string          `db:"actor_user_id"`
	ActorRole          string          `db:"actor_role"`
	FromStatus         string          `db:"from_status"`
	ToStatus           *string         `db:"to_status"`
	Snapshot           []byte          `db:"snapshot"`
	SnapshotCompressed []byte          `db:"snapshot_compressed"`
	CompressionAlgo    CompressionAlgo `db:"compression_algo"`
	CreatedAt          time.Time       `db:"created_at"`
}

// AuditStore implements audit.Store on sys_audit. Snapshots above the
// threshold are stored zstd-compressed.
type AuditStore struct {
	txManager         *TxManager
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int
}

func NewAuditStore(txManager *TxManager) (*AuditStore, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &AuditStore{
		txManager:         txManager,
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: defaultCompressThreshold,
	}, nil
}

// Record writes rec in the transaction carried by ctx.
func (s *AuditStore) Record(ctx context.Context, rec audit.Record) error {
	audit.Normalize(&rec)

	row := auditRow{
		ID:              rec.ID,
		DocumentType:    rec.DocumentType,
		DocumentID:      rec.DocumentID,
		Action:          rec.Action,
		ActorUserID:     rec.ActorUserID,
		ActorRole:       rec.ActorRole,
		FromStatus:      rec.FromStatus,
		Snapshot:        rec.Snapshot,
		CompressionAlgo: CompressionNone,
		CreatedAt:       rec.CreatedAt,
	}
	if rec.ToStatus != "" {
		row.ToStatus = &rec.ToStatus
	}
	if len(rec.Snapshot) > s.compressThreshold {
		row.SnapshotCompressed = s.encoder.EncodeAll(rec.Snapshot, nil)
		row.Snapshot = nil
		row.CompressionAlgo = CompressionZstd
	}

	sql, args, err := builder().
		Insert("sys_audit").
		Columns("id", "document_type", "document_id", "action", "actor_user_id", "actor_role",
			"from_status", "to_status", "snapshot", "snapshot_compressed", "compression_algo", "created_at").
		Values(row.ID, row.DocumentType, row.DocumentID, row.Action, row.ActorUserID, row.ActorRole,
			row.FromStatus, row.ToStatus, row.Snapshot, row.SnapshotCompressed, row.CompressionAlgo, row.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build audit insert: %w", err)
	}

	if _, err := s.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert audit record: %w", err)
	}
	return nil
}

// History implements audit.Reader.
func (s *AuditStore) History(ctx context.Context, documentType string, documentID id.ID, limit int) ([]audit.Record, error) {
	q := builder().
		Select("id", "document_type", "document_id", "action", "actor_user_id", "actor_role",
			"from_status", "to_status", "snapshot", "snapshot_compressed", "compression_algo", "created_at").
		From("sys_audit").
		Where(squirrel.Eq{"document_type": documentType, "document_id": documentID}).
		OrderBy("created_at DESC", "id DESC")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build audit history: %w", err)
	}

	var rows []auditRow
	if err := pgxscan.Select(ctx, s.txManager.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("query audit history: %w", err)
	}

	out := make([]audit.Record, 0, len(rows))
	for _, r := range rows {
		snapshot := r.Snapshot
		if r.CompressionAlgo == CompressionZstd && len(r.SnapshotCompressed) > 0 {
			snapshot, err = s.decoder.DecodeAll(r.SnapshotCompressed, nil)
			if err != nil {
				return nil, fmt.Errorf("decompress snapshot %s: %w", r.ID, err)
			}
		}
		rec := audit.Record{
			ID:           r.ID,
			DocumentType: r.DocumentType,
			DocumentID:   r.DocumentID,
			ActorUserID:  r.ActorUserID,
			ActorRole:    r.ActorRole,
			Action:       r.Action,
			FromStatus:   r.FromStatus,
			Snapshot:     snapshot,
			CreatedAt:    r.CreatedAt,
		}
		if r.ToStatus != nil {
			rec.ToStatus = *r.ToStatus
		}
		out = append(out, rec)
	}
	return out, nil
}

var _ audit.Store = (*AuditStore)(nil)
