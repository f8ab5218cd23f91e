package goods_receipt

import (
	"context"
	"fmt"

	"receiptflow/internal/core/apperror"
	"receiptflow/internal/core/id"
	"receiptflow/internal/core/security"
	"receiptflow/internal/core/tx"
	"receiptflow/internal/domain"
	"receiptflow/internal/domain/audit"
	"receiptflow/pkg/logger"
)

// CreateInput describes a new draft.
type CreateInput struct {
	SupplierID id.ID
	Notes      string
	Lines      []LineInput
}

// EditInput describes an Edit; nil fields are left unchanged.
type EditInput struct {
	SupplierID      *id.ID
	Notes           *string
	Lines           []LineInput
	ExpectedVersion int
}

// Service is the action surface of goods receipts. Every state change goes
// through Engine.Apply.
type Service struct {
	repo      Repository
	engine    *Engine
	audit     audit.Store
	txManager tx.Manager
}

func NewService(repo Repository, engine *Engine, auditStore audit.Store, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		engine:    engine,
		audit:     auditStore,
		txManager: txManager,
	}
}

// Create stores a new Draft owned by the actor.
func (s *Service) Create(ctx context.Context, actor security.Actor, in CreateInput) (*GoodsReceipt, error) {
	if actor.UserID == "" {
		return nil, apperror.NewUnauthorized("actor is not identified")
	}
	if _, err := security.ParseRole(string(actor.Role)); err != nil {
		return nil, apperror.NewForbidden(fmt.Sprintf("%s may not create receipts", actor.Role))
	}

	doc := NewGoodsReceipt(actor.UserID, in.SupplierID, in.Notes)
	if err := doc.ReplaceLines(in.Lines); err != nil {
		return nil, err
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.engine.guard.ValidateLines(ctx, doc); err != nil {
			return err
		}
		if err := s.repo.Create(ctx, doc); err != nil {
			return fmt.Errorf("create receipt: %w", err)
		}
		if err := s.repo.SaveLines(ctx, doc.ID, doc.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		return s.audit.Record(ctx, audit.Record{
			DocumentType: DocumentType,
			DocumentID:   doc.ID,
			ActorUserID:  actor.UserID,
			ActorRole:    string(actor.Role),
			Action:       "Create",
			ToStatus:     string(doc.Status),
		})
	})
	if err != nil {
		return nil, normalizeError(err)
	}

	logger.Info(ctx, "goods receipt created", "receipt_id", doc.ID, "lines", len(doc.Lines))
	return doc, nil
}

// GetByID retrieves a receipt with lines.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*GoodsReceipt, error) {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return nil, normalizeError(err)
	}
	return doc, nil
}

// List retrieves receipts with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*GoodsReceipt], error) {
	filter.Normalize()
	res, err := s.repo.List(ctx, filter)
	if err != nil {
		return res, normalizeError(err)
	}
	return res, nil
}

// AllowedActions returns what actor may do with the receipt right now.
func (s *Service) AllowedActions(ctx context.Context, docID id.ID, actor security.Actor) (ActionSet, error) {
	doc, err := s.GetByID(ctx, docID)
	if err != nil {
		return 0, err
	}
	return AllowedActions(doc.Status, actor.Role, doc.IsCreatedBy(actor.UserID)), nil
}

// History returns the audit trail of a receipt, newest first.
func (s *Service) History(ctx context.Context, docID id.ID, limit int) ([]audit.Record, error) {
	if _, err := s.GetByID(ctx, docID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	recs, err := s.audit.History(ctx, DocumentType, docID, limit)
	if err != nil {
		return nil, normalizeError(err)
	}
	return recs, nil
}

func (s *Service) Submit(ctx context.Context, docID id.ID, actor security.Actor) (*GoodsReceipt, error) {
	return s.engine.Apply(ctx, docID, actor, ActionSubmit, Payload{})
}

func (s *Service) Approve(ctx context.Context, docID id.ID, actor security.Actor) (*GoodsReceipt, error) {
	return s.engine.Apply(ctx, docID, actor, ActionApprove, Payload{})
}

func (s *Service) Reject(ctx context.Context, docID id.ID, actor security.Actor, reason string) (*GoodsReceipt, error) {
	return s.engine.Apply(ctx, docID, actor, ActionReject, Payload{Notes: &reason})
}

// Decide applies an approval decision: Approve or Reject.
func (s *Service) Decide(ctx context.Context, docID id.ID, actor security.Actor, action Action, notes string) (*GoodsReceipt, error) {
	switch action {
	case ActionApprove:
		return s.Approve(ctx, docID, actor)
	case ActionReject:
		return s.Reject(ctx, docID, actor, notes)
	default:
		return nil, apperror.NewValidation("decision must be Approve or Reject").WithDetail("action", string(action))
	}
}

func (s *Service) Complete(ctx context.Context, docID id.ID, actor security.Actor) (*GoodsReceipt, error) {
	return s.engine.Apply(ctx, docID, actor, ActionComplete, Payload{})
}

func (s *Service) Cancel(ctx context.Context, docID id.ID, actor security.Actor, reason string) (*GoodsReceipt, error) {
	return s.engine.Apply(ctx, docID, actor, ActionCancel, Payload{Notes: &reason})
}

func (s *Service) Resubmit(ctx context.Context, docID id.ID, actor security.Actor) (*GoodsReceipt, error) {
	return s.engine.Apply(ctx, docID, actor, ActionResubmit, Payload{})
}

func (s *Service) ResendSupplierNotification(ctx context.Context, docID id.ID, actor security.Actor) (*GoodsReceipt, error) {
	return s.engine.Apply(ctx, docID, actor, ActionResendNotification, Payload{})
}

func (s *Service) Edit(ctx context.Context, docID id.ID, actor security.Actor, in EditInput) (*GoodsReceipt, error) {
	return s.engine.Apply(ctx, docID, actor, ActionEdit, Payload{
		Notes:           in.Notes,
		Lines:           in.Lines,
		SupplierID:      in.SupplierID,
		ExpectedVersion: in.ExpectedVersion,
	})
}

func (s *Service) Delete(ctx context.Context, docID id.ID, actor security.Actor) error {
	_, err := s.engine.Apply(ctx, docID, actor, ActionDelete, Payload{})
	return err
}

// ConfirmBySupplier records the supplier's confirmation of a pending receipt.
func (s *Service) ConfirmBySupplier(ctx context.Context, docID id.ID, reference string) (*GoodsReceipt, error) {
	return s.engine.Apply(ctx, docID, security.SupplierActor(reference), ActionSupplierConfirm, Payload{Reference: reference})
}
