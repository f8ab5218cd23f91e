package goods_receipt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"receiptflow/internal/core/apperror"
	"receiptflow/internal/core/id"
	"receiptflow/internal/core/numerator"
	"receiptflow/internal/core/security"
	"receiptflow/internal/core/tx"
	"receiptflow/internal/domain/audit"
	"receiptflow/internal/domain/registers/stock"
	"receiptflow/pkg/logger"
)

var tracer = otel.Tracer("receiptflow/goods_receipt")

// NotificationReason tells the supplier why it hears about a receipt.
type NotificationReason string

const (
	NotifyApproved NotificationReason = "approved"
	NotifyResend   NotificationReason = "resend"
	NotifyUpdated  NotificationReason = "updated"
)

// SupplierNotification asks the supplier to confirm a pending receipt.
type SupplierNotification struct {
	ReceiptID     id.ID              `json:"receiptId"`
	ReceiptNumber string             `json:"receiptNumber"`
	SupplierID    id.ID              `json:"supplierId"`
	Reason        NotificationReason `json:"reason"`
	RequestedBy   string             `json:"requestedBy"`
	TotalAmount   string             `json:"totalAmount"`
	LineCount     int                `json:"lineCount"`
}

// Notifier delivers supplier notifications. Implementations may only enqueue.
type Notifier interface {
	NotifySupplier(ctx context.Context, n SupplierNotification) error
}

// StockReceiver moves received goods into stock.
type StockReceiver interface {
	Receive(ctx context.Context, recorderID id.ID, recorderType string, lines []stock.ReceiptLine) error
}

// Payload carries the optional inputs of an action.
type Payload struct {
	// Notes: new receipt notes for Edit, the decision reason for Reject and Cancel.
	Notes *string

	// Lines replaces all line items on Edit; nil leaves them untouched.
	Lines []LineInput

	// SupplierID changes the supplier on Edit.
	SupplierID *id.ID

	// Reference is the supplier's confirmation reference for SupplierConfirm.
	Reference string

	// ExpectedVersion, when positive, must equal the stored version.
	ExpectedVersion int
}

// EngineDeps wires the engine's collaborators.
type EngineDeps struct {
	Repo      Repository
	Guard     *Guard
	Stock     StockReceiver
	Audit     audit.Sink
	Notifier  Notifier // optional
	Numerator numerator.Generator
	TxManager tx.Manager

	// Clock defaults to time.Now.
	Clock func() time.Time
}

// Engine is the only component that changes a receipt's status.
type Engine struct {
	repo      Repository
	guard     *Guard
	stock     StockReceiver
	audit     audit.Sink
	notifier  Notifier
	numerator numerator.Generator
	txManager tx.Manager
	now       func() time.Time
}

func NewEngine(deps EngineDeps) *Engine {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Engine{
		repo:      deps.Repo,
		guard:     deps.Guard,
		stock:     deps.Stock,
		audit:     deps.Audit,
		notifier:  deps.Notifier,
		numerator: deps.Numerator,
		txManager: deps.TxManager,
		now:       clock,
	}
}

// Apply runs action on the receipt docID on behalf of actor.
//
// Everything happens in one transaction holding the receipt's row lock:
// guard check, mutation, stock completion, persistence, audit record and
// supplier notification enqueueing. On any failure nothing is changed.
// Errors are AppErrors: FORBIDDEN, INVALID_STATE, CONCURRENT_MODIFICATION,
// DEPENDENCY_FAILURE, NOT_FOUND or VALIDATION_ERROR.
// For Delete the returned receipt is the state just before removal.
func (e *Engine) Apply(ctx context.Context, docID id.ID, actor security.Actor, action Action, payload Payload) (*GoodsReceipt, error) {
	ctx, span := tracer.Start(ctx, "goods_receipt.apply", trace.WithAttributes(
		attribute.String("receipt.id", docID.String()),
		attribute.String("receipt.action", string(action)),
		attribute.String("actor.role", string(actor.Role)),
	))
	defer span.End()

	if !action.IsValid() {
		return nil, apperror.NewValidation("unknown action").WithDetail("action", string(action))
	}
	if actor.UserID == "" {
		return nil, apperror.NewUnauthorized("actor is not identified")
	}

	var (
		result *GoodsReceipt
		from   Status
	)
	err := e.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		doc, err := e.repo.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}
		if payload.ExpectedVersion > 0 && payload.ExpectedVersion != doc.Version {
			return apperror.NewConcurrentModification("goods_receipt", docID.String()).
				WithDetail("expected_version", payload.ExpectedVersion).
				WithDetail("actual_version", doc.Version)
		}

		if err := e.guard.Authorize(ctx, doc, actor, action); err != nil {
			return err
		}

		from = doc.Status
		linesChanged, err := e.mutate(ctx, doc, actor, action, payload)
		if err != nil {
			return err
		}

		if err := e.persist(ctx, doc, action, linesChanged); err != nil {
			return err
		}

		if err := e.record(ctx, doc, actor, action, from); err != nil {
			return err
		}

		if reason, ok := notificationReason(action, from); ok {
			e.notify(ctx, doc, actor, reason)
		}

		result = doc
		return nil
	})
	if err != nil {
		err = normalizeError(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Debug(ctx, "goods receipt action refused",
			"receipt_id", docID,
			"action", action,
			"error", err,
		)
		return nil, err
	}

	logger.Info(ctx, "goods receipt action applied",
		"receipt_id", docID,
		"number", result.Number,
		"action", action,
		"from", from,
		"to", result.Status,
	)
	return result, nil
}

// mutate applies the effect of action to doc. It reports whether lines changed.
func (e *Engine) mutate(ctx context.Context, doc *GoodsReceipt, actor security.Actor, action Action, p Payload) (bool, error) {
	to, ok := NextStatus(doc.Status, action)
	if !ok {
		return false, apperror.NewInvalidState(fmt.Sprintf("%s is not a transition from %s", action, doc.Status)).
			WithDetail("status", string(doc.Status))
	}

	linesChanged := false
	switch action {
	case ActionSubmit:
		if doc.Number == "" {
			number, err := e.numerator.Next(ctx, NumberConfig(), e.now())
			if err != nil {
				return false, fmt.Errorf("generate number: %w", err)
			}
			doc.Number = number
		}

	case ActionReject, ActionCancel:
		if p.Notes != nil {
			doc.DecisionNotes = *p.Notes
		}

	case ActionSupplierConfirm:
		doc.SupplierReference = p.Reference

	case ActionComplete:
		if err := e.stock.Receive(ctx, doc.ID, DocumentType, doc.StockLines()); err != nil {
			return false, stockError(err)
		}

	case ActionEdit:
		if p.SupplierID != nil {
			if err := doc.ChangeSupplier(*p.SupplierID); err != nil {
				return false, err
			}
		}
		if p.Lines != nil {
			if err := doc.ReplaceLines(p.Lines); err != nil {
				return false, err
			}
			if err := e.guard.ValidateLines(ctx, doc); err != nil {
				return false, err
			}
			linesChanged = true
		}
		if p.Notes != nil {
			doc.Notes = *p.Notes
		}
	}

	if action != ActionDelete {
		doc.transitionTo(to)
	}
	doc.Touch(actor.UserID, e.now())
	return linesChanged, nil
}

func (e *Engine) persist(ctx context.Context, doc *GoodsReceipt, action Action, linesChanged bool) error {
	if action == ActionDelete {
		if err := e.repo.Delete(ctx, doc.ID); err != nil {
			return fmt.Errorf("delete receipt: %w", err)
		}
		return nil
	}

	if err := e.repo.Update(ctx, doc); err != nil {
		return fmt.Errorf("update receipt: %w", err)
	}
	if linesChanged {
		if err := e.repo.SaveLines(ctx, doc.ID, doc.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
	}
	return nil
}

func (e *Engine) record(ctx context.Context, doc *GoodsReceipt, actor security.Actor, action Action, from Status) error {
	snapshot, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal audit snapshot: %w", err)
	}

	rec := audit.Record{
		DocumentType: DocumentType,
		DocumentID:   doc.ID,
		ActorUserID:  actor.UserID,
		ActorRole:    string(actor.Role),
		Action:       string(action),
		FromStatus:   string(from),
		Snapshot:     snapshot,
		CreatedAt:    e.now().UTC(),
	}
	if action != ActionDelete {
		rec.ToStatus = string(doc.Status)
	}

	if err := e.audit.Record(ctx, rec); err != nil {
		return fmt.Errorf("write audit record: %w", err)
	}
	return nil
}

// notify enqueues a supplier notification in a savepoint.
// A failure is logged and never undoes the transition.
func (e *Engine) notify(ctx context.Context, doc *GoodsReceipt, actor security.Actor, reason NotificationReason) {
	if e.notifier == nil {
		return
	}

	n := SupplierNotification{
		ReceiptID:     doc.ID,
		ReceiptNumber: doc.Number,
		SupplierID:    doc.SupplierID,
		Reason:        reason,
		RequestedBy:   actor.UserID,
		TotalAmount:   doc.TotalAmount.String(),
		LineCount:     len(doc.Lines),
	}
	err := e.txManager.RunInSavepoint(ctx, func(ctx context.Context) error {
		return e.notifier.NotifySupplier(ctx, n)
	})
	if err != nil {
		logger.Warn(ctx, "supplier notification not enqueued",
			"receipt_id", doc.ID,
			"supplier_id", doc.SupplierID,
			"reason", reason,
			"error", err,
		)
	}
}

func notificationReason(action Action, from Status) (NotificationReason, bool) {
	switch {
	case action == ActionApprove:
		return NotifyApproved, true
	case action == ActionResendNotification:
		return NotifyResend, true
	case action == ActionEdit && from == StatusPending:
		return NotifyUpdated, true
	}
	return "", false
}

func stockError(err error) error {
	if apperror.IsConcurrentModification(err) || apperror.IsInvalidState(err) {
		return err
	}
	return apperror.NewDependency("stock register", err)
}

// normalizeError keeps AppErrors and reports anything else as a dependency failure.
func normalizeError(err error) error {
	if apperror.IsAppError(err) {
		return err
	}
	return apperror.NewDependency("storage", err)
}
