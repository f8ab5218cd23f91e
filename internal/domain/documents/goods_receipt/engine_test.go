package goods_receipt_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"receiptflow/internal/core/apperror"
	"receiptflow/internal/core/id"
	"receiptflow/internal/core/numerator"
	"receiptflow/internal/core/security"
	"receiptflow/internal/core/types"
	"receiptflow/internal/domain/catalogs/product"
	"receiptflow/internal/domain/catalogs/supplier"
	gr "receiptflow/internal/domain/documents/goods_receipt"
	"receiptflow/internal/domain/registers/stock"
	"receiptflow/internal/infrastructure/outbox"
	"receiptflow/internal/infrastructure/storage/memory"
)

var (
	employee      = security.Actor{UserID: "7", Role: security.RoleEmployee}
	otherEmployee = security.Actor{UserID: "8", Role: security.RoleEmployee}
	manager       = security.Actor{UserID: "20", Role: security.RoleManager}
	admin         = security.Actor{UserID: "1", Role: security.RoleAdmin}
)

type fixture struct {
	store    *memory.Store
	svc      *gr.Service
	stock    *stock.Service
	outbox   *memory.OutboxStore
	audit    *memory.AuditStore
	product1 id.ID
	product2 id.ID
	supplier id.ID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	store := memory.NewStore()
	products := memory.NewProductRepo(store)
	suppliers := memory.NewSupplierRepo(store)
	stockRepo := memory.NewStockRepo(store)
	receipts := memory.NewReceiptRepo(store)
	auditStore := memory.NewAuditStore(store)
	outboxStore := memory.NewOutboxStore(store)

	p1 := product.NewProduct("P-001", "Bolt", "pcs")
	p2 := product.NewProduct("P-002", "Nut", "pcs")
	require.NoError(t, products.Create(ctx, p1))
	require.NoError(t, products.Create(ctx, p2))

	sup := supplier.NewSupplier("S-001", "Acme", "orders@acme.test")
	require.NoError(t, suppliers.Create(ctx, sup))

	require.NoError(t, stockRepo.IncreaseBalance(ctx, p1.ID, types.MustDecimal("10")))

	stockSvc := stock.NewService(stockRepo, store)
	engine := gr.NewEngine(gr.EngineDeps{
		Repo:      receipts,
		Guard:     gr.NewGuard(suppliers, products),
		Stock:     stockSvc,
		Audit:     auditStore,
		Notifier:  outbox.NewPublisher(outboxStore),
		Numerator: numerator.NewMemoryGenerator(),
		TxManager: store,
		Clock:     func() time.Time { return time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC) },
	})

	return &fixture{
		store:    store,
		svc:      gr.NewService(receipts, engine, auditStore, store),
		stock:    stockSvc,
		outbox:   outboxStore,
		audit:    auditStore,
		product1: p1.ID,
		product2: p2.ID,
		supplier: sup.ID,
	}
}

func (f *fixture) draft(t *testing.T, lines ...gr.LineInput) *gr.GoodsReceipt {
	t.Helper()
	if lines == nil {
		lines = []gr.LineInput{
			{ProductID: f.product1, Quantity: types.MustDecimal("3"), UnitPrice: types.MustDecimal("100")},
			{ProductID: f.product2, Quantity: types.MustDecimal("2"), UnitPrice: types.MustDecimal("50")},
		}
	}
	doc, err := f.svc.Create(context.Background(), employee, gr.CreateInput{SupplierID: f.supplier, Lines: lines})
	require.NoError(t, err)
	return doc
}

// advance drives a fresh draft to the given status.
func (f *fixture) advance(t *testing.T, to gr.Status) *gr.GoodsReceipt {
	t.Helper()
	ctx := context.Background()
	doc := f.draft(t)

	steps := map[gr.Status][]func() (*gr.GoodsReceipt, error){
		gr.StatusAwaitingApproval: {
			func() (*gr.GoodsReceipt, error) { return f.svc.Submit(ctx, doc.ID, employee) },
		},
	}
	steps[gr.StatusPending] = append(steps[gr.StatusAwaitingApproval],
		func() (*gr.GoodsReceipt, error) { return f.svc.Approve(ctx, doc.ID, manager) })
	steps[gr.StatusSupplierConfirmed] = append(steps[gr.StatusPending],
		func() (*gr.GoodsReceipt, error) { return f.svc.ConfirmBySupplier(ctx, doc.ID, "ACME-77") })
	steps[gr.StatusCompleted] = append(steps[gr.StatusSupplierConfirmed],
		func() (*gr.GoodsReceipt, error) { return f.svc.Complete(ctx, doc.ID, admin) })
	steps[gr.StatusRejected] = append(steps[gr.StatusAwaitingApproval],
		func() (*gr.GoodsReceipt, error) { return f.svc.Reject(ctx, doc.ID, manager, "wrong prices") })
	steps[gr.StatusCancelled] = append(steps[gr.StatusAwaitingApproval],
		func() (*gr.GoodsReceipt, error) { return f.svc.Cancel(ctx, doc.ID, employee, "duplicate") })

	for _, step := range steps[to] {
		var err error
		doc, err = step()
		require.NoError(t, err)
	}
	require.Equal(t, to, doc.Status)
	return doc
}

func (f *fixture) balance(t *testing.T, productID id.ID) string {
	t.Helper()
	bal, err := f.stock.GetBalance(context.Background(), productID)
	require.NoError(t, err)
	return bal.Quantity.String()
}

func TestSubmit_AssignsNumberAndTotal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	doc := f.draft(t, gr.LineInput{ProductID: f.product1, Quantity: types.MustDecimal("5"), UnitPrice: types.MustDecimal("1000")})
	assert.Empty(t, doc.Number)

	doc, err := f.svc.Submit(ctx, doc.ID, employee)
	require.NoError(t, err)

	assert.Equal(t, gr.StatusAwaitingApproval, doc.Status)
	assert.Equal(t, "5000", doc.TotalAmount.String())
	assert.Equal(t, "GR-2025-00001", doc.Number)
	assert.Equal(t, 2, doc.Version)
}

func TestApprove_EnqueuesSupplierNotification(t *testing.T) {
	f := newFixture(t)
	doc := f.advance(t, gr.StatusPending)

	msgs := f.outbox.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, outbox.EventSupplierNotification, msgs[0].EventType)
	assert.Equal(t, doc.ID, msgs[0].AggregateID)

	n, err := outbox.DecodeSupplierNotification(&msgs[0])
	require.NoError(t, err)
	assert.Equal(t, gr.NotifyApproved, n.Reason)
	assert.Equal(t, f.supplier, n.SupplierID)
	assert.Equal(t, doc.Number, n.ReceiptNumber)
}

func TestCancel_NonCreatorEmployeeForbidden(t *testing.T) {
	f := newFixture(t)
	doc := f.advance(t, gr.StatusAwaitingApproval)

	_, err := f.svc.Cancel(context.Background(), doc.ID, otherEmployee, "not mine")
	assert.True(t, apperror.IsForbidden(err), err)

	got, err := f.svc.GetByID(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, gr.StatusAwaitingApproval, got.Status)
}

func TestComplete_IncreasesStock(t *testing.T) {
	f := newFixture(t)
	doc := f.advance(t, gr.StatusCompleted)

	assert.Equal(t, "13", f.balance(t, f.product1))
	assert.Equal(t, "2", f.balance(t, f.product2))

	movements, err := f.stock.GetMovements(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Len(t, movements, 2)
}

func TestComplete_Twice(t *testing.T) {
	f := newFixture(t)
	doc := f.advance(t, gr.StatusCompleted)

	_, err := f.svc.Complete(context.Background(), doc.ID, admin)
	assert.True(t, apperror.IsInvalidState(err), err)

	assert.Equal(t, "13", f.balance(t, f.product1))
	assert.Equal(t, "2", f.balance(t, f.product2))
}

func TestComplete_StockFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	doc := f.advance(t, gr.StatusSupplierConfirmed)

	f.store.FailStockOn(f.product2, errors.New("disk full"))

	_, err := f.svc.Complete(context.Background(), doc.ID, admin)
	assert.True(t, apperror.IsDependency(err), err)

	got, err := f.svc.GetByID(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, gr.StatusSupplierConfirmed, got.Status)
	assert.Equal(t, doc.Version, got.Version)
	assert.Equal(t, "10", f.balance(t, f.product1))
	assert.Equal(t, "0", f.balance(t, f.product2))

	movements, err := f.stock.GetMovements(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Empty(t, movements)

	f.store.ClearFaults()
	_, err = f.svc.Complete(context.Background(), doc.ID, admin)
	require.NoError(t, err)
	assert.Equal(t, "13", f.balance(t, f.product1))
}

func TestComplete_Concurrent(t *testing.T) {
	f := newFixture(t)
	doc := f.advance(t, gr.StatusSupplierConfirmed)

	const callers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		refusals  int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Complete(context.Background(), doc.ID, admin)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case apperror.IsInvalidState(err), apperror.IsConcurrentModification(err):
				refusals++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, callers-1, refusals)
	assert.Equal(t, "13", f.balance(t, f.product1))
	assert.Equal(t, "2", f.balance(t, f.product2))
}

func TestRejectResubmit_KeepsLinesAndNotes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doc := f.advance(t, gr.StatusRejected)
	assert.Equal(t, "wrong prices", doc.DecisionNotes)

	resubmitted, err := f.svc.Resubmit(ctx, doc.ID, employee)
	require.NoError(t, err)

	assert.Equal(t, gr.StatusAwaitingApproval, resubmitted.Status)
	assert.Equal(t, doc.Lines, resubmitted.Lines)
	assert.Equal(t, "wrong prices", resubmitted.DecisionNotes)
	assert.Equal(t, doc.Number, resubmitted.Number)
}

func TestEdit(t *testing.T) {
	ctx := context.Background()

	t.Run("lines in rejected keep totals", func(t *testing.T) {
		f := newFixture(t)
		doc := f.advance(t, gr.StatusRejected)

		edited, err := f.svc.Edit(ctx, doc.ID, employee, gr.EditInput{
			Lines: []gr.LineInput{
				{ProductID: f.product1, Quantity: types.MustDecimal("4"), UnitPrice: types.MustDecimal("25.5")},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, gr.StatusRejected, edited.Status)
		assert.Equal(t, "102", edited.TotalAmount.String())
		assert.True(t, edited.TotalsConsistent())

		stored, err := f.svc.GetByID(ctx, doc.ID)
		require.NoError(t, err)
		assert.Len(t, stored.Lines, 1)
		assert.True(t, stored.TotalsConsistent())
	})

	t.Run("lines in pending are frozen", func(t *testing.T) {
		f := newFixture(t)
		doc := f.advance(t, gr.StatusPending)

		_, err := f.svc.Edit(ctx, doc.ID, manager, gr.EditInput{
			Lines: []gr.LineInput{
				{ProductID: f.product1, Quantity: types.MustDecimal("1"), UnitPrice: types.MustDecimal("1")},
			},
		})
		assert.True(t, apperror.IsInvalidState(err), err)
	})

	t.Run("notes in pending notify supplier", func(t *testing.T) {
		f := newFixture(t)
		doc := f.advance(t, gr.StatusPending)
		notes := "deliver to dock 3"

		edited, err := f.svc.Edit(ctx, doc.ID, manager, gr.EditInput{Notes: &notes})
		require.NoError(t, err)
		assert.Equal(t, notes, edited.Notes)
		assert.Equal(t, gr.StatusPending, edited.Status)
		assert.Len(t, f.outbox.Messages(), 2)
	})

	t.Run("stale version", func(t *testing.T) {
		f := newFixture(t)
		doc := f.draft(t)
		notes := "x"

		_, err := f.svc.Edit(ctx, doc.ID, employee, gr.EditInput{Notes: &notes, ExpectedVersion: doc.Version + 1})
		assert.True(t, apperror.IsConcurrentModification(err), err)
	})
}

func TestDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("cancelled by creator", func(t *testing.T) {
		f := newFixture(t)
		doc := f.advance(t, gr.StatusCancelled)

		require.NoError(t, f.svc.Delete(ctx, doc.ID, employee))

		_, err := f.svc.GetByID(ctx, doc.ID)
		assert.True(t, apperror.IsNotFound(err))
	})

	t.Run("pending is refused", func(t *testing.T) {
		f := newFixture(t)
		doc := f.advance(t, gr.StatusPending)

		err := f.svc.Delete(ctx, doc.ID, manager)
		assert.True(t, apperror.IsForbidden(err), err)
	})

	t.Run("draft by creator employee", func(t *testing.T) {
		f := newFixture(t)
		doc := f.draft(t)

		require.NoError(t, f.svc.Delete(ctx, doc.ID, employee))
	})

	t.Run("draft by creator admin is refused", func(t *testing.T) {
		f := newFixture(t)
		doc, err := f.svc.Create(ctx, admin, gr.CreateInput{
			SupplierID: f.supplier,
			Lines: []gr.LineInput{
				{ProductID: f.product1, Quantity: types.MustDecimal("1"), UnitPrice: types.MustDecimal("5")},
			},
		})
		require.NoError(t, err)

		err = f.svc.Delete(ctx, doc.ID, admin)
		assert.True(t, apperror.IsForbidden(err), err)

		_, err = f.svc.GetByID(ctx, doc.ID)
		assert.NoError(t, err)
	})

	t.Run("unknown document", func(t *testing.T) {
		f := newFixture(t)
		err := f.svc.Delete(ctx, id.New(), employee)
		assert.True(t, apperror.IsNotFound(err), err)
	})
}

func TestAudit_RecordsEveryAction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doc := f.advance(t, gr.StatusCompleted)

	history, err := f.svc.History(ctx, doc.ID, 0)
	require.NoError(t, err)
	require.Len(t, history, 5)

	assert.Equal(t, string(gr.ActionComplete), history[0].Action)
	assert.Equal(t, string(gr.StatusSupplierConfirmed), history[0].FromStatus)
	assert.Equal(t, string(gr.StatusCompleted), history[0].ToStatus)
	assert.Equal(t, admin.UserID, history[0].ActorUserID)
	assert.Equal(t, "Create", history[4].Action)

	var snap gr.GoodsReceipt
	require.NoError(t, json.Unmarshal(history[0].Snapshot, &snap))
	assert.Equal(t, gr.StatusCompleted, snap.Status)
}

func TestAudit_FailureAbortsAction(t *testing.T) {
	f := newFixture(t)
	doc := f.draft(t)
	f.store.FailAudit(errors.New("audit table locked"))

	_, err := f.svc.Submit(context.Background(), doc.ID, employee)
	assert.True(t, apperror.IsDependency(err), err)

	got, err := f.svc.GetByID(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, gr.StatusDraft, got.Status)
	assert.Empty(t, got.Number)
}

func TestNotifierFailure_KeepsTransition(t *testing.T) {
	f := newFixture(t)
	doc := f.advance(t, gr.StatusAwaitingApproval)
	f.store.FailOutbox(errors.New("outbox unavailable"))

	approved, err := f.svc.Approve(context.Background(), doc.ID, manager)
	require.NoError(t, err)
	assert.Equal(t, gr.StatusPending, approved.Status)
	assert.Empty(t, f.outbox.Messages())

	history, err := f.svc.History(context.Background(), doc.ID, 1)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, string(gr.ActionApprove), history[0].Action)
}

func TestResend_OnlyInPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doc := f.advance(t, gr.StatusPending)

	_, err := f.svc.ResendSupplierNotification(ctx, doc.ID, admin)
	require.NoError(t, err)
	assert.Len(t, f.outbox.Messages(), 2)

	_, err = f.svc.ConfirmBySupplier(ctx, doc.ID, "ACME-1")
	require.NoError(t, err)

	_, err = f.svc.ResendSupplierNotification(ctx, doc.ID, admin)
	assert.True(t, apperror.IsInvalidState(err), err)
}

func TestSupplierConfirm_RecordsReference(t *testing.T) {
	f := newFixture(t)
	doc := f.advance(t, gr.StatusSupplierConfirmed)
	assert.Equal(t, "ACME-77", doc.SupplierReference)

	_, err := f.svc.ConfirmBySupplier(context.Background(), doc.ID, "again")
	assert.True(t, apperror.IsInvalidState(err), err)
}

func TestDecide(t *testing.T) {
	f := newFixture(t)
	doc := f.advance(t, gr.StatusAwaitingApproval)

	_, err := f.svc.Decide(context.Background(), doc.ID, manager, gr.ActionComplete, "")
	assert.Equal(t, apperror.CodeValidation, mustAppErr(t, err).Code)

	got, err := f.svc.Decide(context.Background(), doc.ID, manager, gr.ActionReject, "over budget")
	require.NoError(t, err)
	assert.Equal(t, gr.StatusRejected, got.Status)
	assert.Equal(t, "over budget", got.DecisionNotes)
}

func TestCreate_SupplierRoleForbidden(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Create(context.Background(), security.SupplierActor("x"), gr.CreateInput{SupplierID: f.supplier})
	assert.True(t, apperror.IsForbidden(err), err)
}

func TestUnknownProduct_NeverLeavesDraft(t *testing.T) {
	ctx := context.Background()
	stray := gr.LineInput{ProductID: id.New(), Quantity: types.MustDecimal("1"), UnitPrice: types.MustDecimal("9")}

	t.Run("create", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.Create(ctx, employee, gr.CreateInput{SupplierID: f.supplier, Lines: []gr.LineInput{stray}})
		require.True(t, apperror.HasCode(err, apperror.CodeValidation), err)
		assert.Equal(t, []string{stray.ProductID.String()}, mustAppErr(t, err).Details["product_ids"])

		res, err := f.svc.List(ctx, gr.ListFilter{})
		require.NoError(t, err)
		assert.Zero(t, res.TotalCount)
	})

	t.Run("edit", func(t *testing.T) {
		f := newFixture(t)
		doc := f.draft(t)

		_, err := f.svc.Edit(ctx, doc.ID, employee, gr.EditInput{Lines: []gr.LineInput{stray}})
		require.True(t, apperror.HasCode(err, apperror.CodeValidation), err)

		stored, err := f.svc.GetByID(ctx, doc.ID)
		require.NoError(t, err)
		assert.Len(t, stored.Lines, 2)
		assert.Equal(t, doc.Version, stored.Version)

		submitted, err := f.svc.Submit(ctx, doc.ID, employee)
		require.NoError(t, err)
		assert.Equal(t, gr.StatusAwaitingApproval, submitted.Status)
	})
}

func TestAllowedActions_ForCaller(t *testing.T) {
	f := newFixture(t)
	doc := f.advance(t, gr.StatusAwaitingApproval)

	set, err := f.svc.AllowedActions(context.Background(), doc.ID, employee)
	require.NoError(t, err)
	assert.Equal(t, []gr.Action{gr.ActionCancel}, set.Slice())

	set, err = f.svc.AllowedActions(context.Background(), doc.ID, otherEmployee)
	require.NoError(t, err)
	assert.True(t, set.IsEmpty())
}

func TestList_FiltersByStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.draft(t)
	f.advance(t, gr.StatusPending)

	pending := gr.StatusPending
	res, err := f.svc.List(ctx, gr.ListFilter{Status: &pending})
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.TotalCount)
	assert.Equal(t, gr.StatusPending, res.Items[0].Status)

	res, err = f.svc.List(ctx, gr.ListFilter{CreatedBy: employee.UserID})
	require.NoError(t, err)
	assert.EqualValues(t, 2, res.TotalCount)
}

func mustAppErr(t *testing.T, err error) *apperror.AppError {
	t.Helper()
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok, "expected AppError, got %v", err)
	return appErr
}
