// Package main provides a CLI tool for seeding the product and supplier directories.
package main

import (
	"context"
	"fmt"
	"os"

	"receiptflow/internal/app"
	"receiptflow/internal/core/apperror"
	"receiptflow/internal/domain/catalogs/product"
	"receiptflow/internal/domain/catalogs/supplier"
	"receiptflow/pkg/config"
	"receiptflow/pkg/logger"
)

var demoProducts = []struct{ code, name, unit string }{
	{"P-0001", "Hex bolt M8x40", "pcs"},
	{"P-0002", "Hex nut M8", "pcs"},
	{"P-0003", "Flat washer 8mm", "pcs"},
	{"P-0004", "Machine oil ISO 46", "l"},
	{"P-0005", "Steel wire 2mm", "kg"},
}

var demoSuppliers = []struct{ code, name, email string }{
	{"S-0001", "Northwind Fasteners", "orders@northwind.example"},
	{"S-0002", "Contoso Lubricants", "sales@contoso.example"},
	{"S-0003", "Fabrikam Metals", ""},
}

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalw("failed to load config", "error", err)
	}
	if cfg.Storage.Driver != config.DriverPostgres {
		log.Fatalw("seeding in-memory storage has no effect", "storage", cfg.Storage.Driver)
	}

	ctx := context.Background()

	storage, closeStorage, err := app.Open(ctx, cfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer closeStorage()

	log.Info("connected to database")
	services := app.NewServices(storage)

	created, skipped := 0, 0
	for _, p := range demoProducts {
		ok, err := seedOne(ctx, services.Products.Create(ctx, product.NewProduct(p.code, p.name, p.unit)))
		if err != nil {
			log.Fatalw("failed to seed product", "code", p.code, "error", err)
		}
		if ok {
			created++
		} else {
			skipped++
		}
	}
	for _, s := range demoSuppliers {
		ok, err := seedOne(ctx, services.Suppliers.Create(ctx, supplier.NewSupplier(s.code, s.name, s.email)))
		if err != nil {
			log.Fatalw("failed to seed supplier", "code", s.code, "error", err)
		}
		if ok {
			created++
		} else {
			skipped++
		}
	}

	log.Infow("seeding completed successfully", "created", created, "skipped", skipped)
}

// seedOne reports whether a record was created; existing codes are skipped.
func seedOne(ctx context.Context, err error) (bool, error) {
	switch {
	case err == nil:
		return true, nil
	case apperror.HasCode(err, apperror.CodeDuplicate):
		logger.Debug(ctx, "already seeded", "error", err)
		return false, nil
	default:
		return false, err
	}
}
