// Package memory is the in-process storage driver. It keeps every table in
// maps guarded by one Store and gives the workflow engine the same
// transactional guarantees as the postgres driver: transactions are
// serialized and a failed one leaves no trace.
package memory

import (
	"context"
	"errors"
	"sync"

	"receiptflow/internal/core/entity"
	"receiptflow/internal/core/id"
	"receiptflow/internal/core/tx"
	"receiptflow/internal/domain/audit"
	"receiptflow/internal/domain/catalogs/product"
	"receiptflow/internal/domain/catalogs/supplier"
	"receiptflow/internal/domain/documents/goods_receipt"
	"receiptflow/internal/infrastructure/outbox"
)

// ErrNoTransaction is returned by operations that must join a transaction.
var ErrNoTransaction = errors.New("memory: operation requires a transaction")

type state struct {
	receipts  map[id.ID]*goods_receipt.GoodsReceipt
	products  map[id.ID]*product.Product
	suppliers map[id.ID]*supplier.Supplier
	balances  map[id.ID]entity.StockBalance
	movements []entity.StockMovement
	audit     []audit.Record
	outbox    []outbox.Message
	dlq       []outbox.Message
}

func newState() *state {
	return &state{
		receipts:  make(map[id.ID]*goods_receipt.GoodsReceipt),
		products:  make(map[id.ID]*product.Product),
		suppliers: make(map[id.ID]*supplier.Supplier),
		balances:  make(map[id.ID]entity.StockBalance),
	}
}

func (st *state) clone() *state {
	c := &state{
		receipts:  make(map[id.ID]*goods_receipt.GoodsReceipt, len(st.receipts)),
		products:  make(map[id.ID]*product.Product, len(st.products)),
		suppliers: make(map[id.ID]*supplier.Supplier, len(st.suppliers)),
		balances:  make(map[id.ID]entity.StockBalance, len(st.balances)),
		movements: append([]entity.StockMovement(nil), st.movements...),
		audit:     append([]audit.Record(nil), st.audit...),
		outbox:    append([]outbox.Message(nil), st.outbox...),
		dlq:       append([]outbox.Message(nil), st.dlq...),
	}
	for k, v := range st.receipts {
		c.receipts[k] = cloneReceipt(v, true)
	}
	for k, v := range st.products {
		p := *v
		c.products[k] = &p
	}
	for k, v := range st.suppliers {
		s := *v
		c.suppliers[k] = &s
	}
	for k, v := range st.balances {
		c.balances[k] = v
	}
	return c
}

type faults struct {
	stock  map[id.ID]error
	audit  error
	outbox error
}

// Store owns the in-memory tables and implements tx.Manager.
//
// Reads outside a transaction may observe changes of a transaction that is
// still running.
type Store struct {
	txMu sync.Mutex // held for the whole life of a transaction
	mu   sync.RWMutex
	st   *state

	faultMu sync.Mutex
	faults  faults
}

func NewStore() *Store {
	return &Store{
		st:     newState(),
		faults: faults{stock: make(map[id.ID]error)},
	}
}

type txKey struct{}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

// RunInTransaction implements tx.Manager.
func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	snapshot := s.snapshot()
	defer func() {
		if p := recover(); p != nil {
			s.restore(snapshot)
			panic(p)
		}
		if err != nil {
			s.restore(snapshot)
		}
	}()

	return fn(context.WithValue(ctx, txKey{}, s))
}

// RunInSavepoint implements tx.Manager.
func (s *Store) RunInSavepoint(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if !s.inTx(ctx) {
		return s.RunInTransaction(ctx, fn)
	}

	snapshot := s.snapshot()
	defer func() {
		if p := recover(); p != nil {
			s.restore(snapshot)
			panic(p)
		}
		if err != nil {
			s.restore(snapshot)
		}
	}()

	return fn(ctx)
}

// ReadOnly implements tx.ReadOnlyManager. Reads need no isolation here.
func (s *Store) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (s *Store) snapshot() *state {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.clone()
}

func (s *Store) restore(snapshot *state) {
	s.mu.Lock()
	s.st = snapshot
	s.mu.Unlock()
}

// read runs fn under the read lock.
func (s *Store) read(fn func(st *state) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.st)
}

// write runs fn under the write lock. Outside a transaction it also waits
// for running transactions so a rollback cannot discard the change.
func (s *Store) write(ctx context.Context, fn func(st *state) error) error {
	if !s.inTx(ctx) {
		s.txMu.Lock()
		defer s.txMu.Unlock()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.st)
}

// --- Fault injection ---

// FailStockOn makes every balance increase of productID fail with err.
func (s *Store) FailStockOn(productID id.ID, err error) {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	s.faults.stock[productID] = err
}

// FailAudit makes every audit write fail with err; nil clears it.
func (s *Store) FailAudit(err error) {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	s.faults.audit = err
}

// FailOutbox makes every outbox append fail with err; nil clears it.
func (s *Store) FailOutbox(err error) {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	s.faults.outbox = err
}

// ClearFaults removes all injected failures.
func (s *Store) ClearFaults() {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	s.faults = faults{stock: make(map[id.ID]error)}
}

func (s *Store) stockFault(productID id.ID) error {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	return s.faults.stock[productID]
}

func (s *Store) auditFault() error {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	return s.faults.audit
}

func (s *Store) outboxFault() error {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	return s.faults.outbox
}

var _ tx.ReadOnlyManager = (*Store)(nil)

// Ping implements the readiness check; the store is always available.
func (s *Store) Ping(context.Context) error { return nil }
