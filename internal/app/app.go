// Package app wires repositories and services for a storage driver.
package app

import (
	"context"
	"fmt"

	"receiptflow/internal/core/numerator"
	"receiptflow/internal/core/tx"
	"receiptflow/internal/domain/audit"
	"receiptflow/internal/domain/catalogs/product"
	"receiptflow/internal/domain/catalogs/supplier"
	"receiptflow/internal/domain/documents/goods_receipt"
	"receiptflow/internal/domain/registers/stock"
	"receiptflow/internal/infrastructure/mail"
	"receiptflow/internal/infrastructure/outbox"
	"receiptflow/internal/infrastructure/storage/memory"
	"receiptflow/internal/infrastructure/storage/postgres"
	"receiptflow/internal/infrastructure/storage/postgres/catalog_repo"
	"receiptflow/internal/infrastructure/storage/postgres/document_repo"
	"receiptflow/internal/infrastructure/storage/postgres/register_repo"
	"receiptflow/pkg/config"
	pgnumerator "receiptflow/pkg/numerator"
)

// Storage is the set of repositories a driver provides.
type Storage struct {
	Driver    string
	TxManager tx.Manager
	Receipts  goods_receipt.Repository
	Products  product.Repository
	Suppliers supplier.Repository
	Stock     stock.Repository
	Audit     audit.Store
	Outbox    outbox.Store
	Numerator numerator.Generator

	// Ping checks the backing store for readiness probes.
	Ping func(ctx context.Context) error
}

// MemoryStorage keeps everything in process memory.
func MemoryStorage(store *memory.Store) Storage {
	return Storage{
		Driver:    "memory",
		TxManager: store,
		Receipts:  memory.NewReceiptRepo(store),
		Products:  memory.NewProductRepo(store),
		Suppliers: memory.NewSupplierRepo(store),
		Stock:     memory.NewStockRepo(store),
		Audit:     memory.NewAuditStore(store),
		Outbox:    memory.NewOutboxStore(store),
		Numerator: numerator.NewMemoryGenerator(),
		Ping:      store.Ping,
	}
}

// PostgresStorage builds the repositories on top of a pool.
// Receipt numbers are drawn inside the caller's transaction.
func PostgresStorage(pool *postgres.Pool) (Storage, error) {
	txm := postgres.NewTxManager(pool)

	auditStore, err := postgres.NewAuditStore(txm)
	if err != nil {
		return Storage{}, fmt.Errorf("audit store: %w", err)
	}

	return Storage{
		Driver:    "postgres",
		TxManager: txm,
		Receipts:  document_repo.NewGoodsReceiptRepo(txm),
		Products:  catalog_repo.NewProductRepo(txm),
		Suppliers: catalog_repo.NewSupplierRepo(txm),
		Stock:     register_repo.NewStockRepo(txm),
		Audit:     auditStore,
		Outbox:    postgres.NewOutboxStore(txm),
		Numerator: pgnumerator.NewWithResolver(func(ctx context.Context) pgnumerator.Querier {
			return txm.GetQuerier(ctx)
		}),
		Ping: txm.Ping,
	}, nil
}

// Services are the domain services built on a Storage.
type Services struct {
	Receipts  *goods_receipt.Service
	Products  *product.Service
	Suppliers *supplier.Service
	Stock     *stock.Service
}

// NewServices wires the workflow engine and the directory services.
func NewServices(s Storage) *Services {
	stockSvc := stock.NewService(s.Stock, s.TxManager)

	engine := goods_receipt.NewEngine(goods_receipt.EngineDeps{
		Repo:      s.Receipts,
		Guard:     goods_receipt.NewGuard(s.Suppliers, s.Products),
		Stock:     stockSvc,
		Audit:     s.Audit,
		Notifier:  outbox.NewPublisher(s.Outbox),
		Numerator: s.Numerator,
		TxManager: s.TxManager,
	})

	return &Services{
		Receipts:  goods_receipt.NewService(s.Receipts, engine, s.Audit, s.TxManager),
		Products:  product.NewService(s.Products, s.TxManager),
		Suppliers: supplier.NewService(s.Suppliers, s.TxManager),
		Stock:     stockSvc,
	}
}

// PingFunc adapts a ping function to the readiness checker.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// Open builds the storage selected by cfg. The returned closer releases the pool.
func Open(ctx context.Context, cfg *config.Config) (Storage, func(), error) {
	if cfg.Storage.Driver == config.DriverMemory {
		return MemoryStorage(memory.NewStore()), func() {}, nil
	}

	poolCfg := postgres.DefaultPoolConfig(cfg.DB.ConnectionString())
	if cfg.DB.MaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.DB.MaxConns)
	}
	if cfg.DB.MinConns > 0 {
		poolCfg.MinConns = int32(cfg.DB.MinConns)
	}
	poolCfg.ApplicationName = cfg.App.Name

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		return Storage{}, nil, fmt.Errorf("connect to database: %w", err)
	}
	storage, err := PostgresStorage(pool)
	if err != nil {
		pool.Close()
		return Storage{}, nil, err
	}
	closer := func() {
		pool.LogStats(ctx)
		pool.Close()
	}
	return storage, closer, nil
}

// NotificationSender picks the SMTP relay when configured and logs mail otherwise.
func NotificationSender(cfg config.MailConfig) mail.Sender {
	if !cfg.Enabled() {
		return mail.LogSender{}
	}
	return mail.NewSMTPSender(mail.SMTPConfig{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Username: cfg.Username,
		Password: cfg.Password,
		From:     cfg.From,
	})
}

// NewRelay delivers queued supplier notifications.
func NewRelay(s Storage, cfg *config.Config) *outbox.Relay {
	handler := mail.NewNotificationHandler(s.Suppliers, NotificationSender(cfg.Mail))
	return outbox.NewRelay(s.Outbox, handler, outbox.RelayConfig{
		BatchSize:  cfg.Worker.BatchSize,
		MaxRetries: cfg.Worker.MaxRetries,
	})
}
