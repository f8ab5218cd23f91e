// Package main is the entry point for the outbox worker that emails suppliers.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"receiptflow/internal/app"
	"receiptflow/pkg/config"
	"receiptflow/pkg/logger"
)

// dlqSweepInterval is how often exhausted messages are moved to the dead letter table.
const dlqSweepInterval = 5 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.App.LogLevel,
		Development: cfg.App.IsDevelopment(),
		Service:     cfg.App.Name,
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)
	defer func() { _ = log.Sync() }()

	if cfg.Storage.Driver != config.DriverPostgres {
		log.Fatalw("worker needs shared storage", "storage", cfg.Storage.Driver)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	storage, closeStorage, err := app.Open(ctx, cfg)
	if err != nil {
		log.Fatalw("failed to open storage", "error", err)
	}
	defer closeStorage()

	if !cfg.Mail.Enabled() {
		log.Warn("SMTP_HOST not set, notifications are only logged")
	}

	relay := app.NewRelay(storage, cfg)
	log.Infow("starting outbox worker",
		"poll_interval", cfg.Worker.PollInterval,
		"batch_size", cfg.Worker.BatchSize,
		"max_retries", cfg.Worker.MaxRetries,
	)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		relay.Run(logger.WithLogger(ctx, log.WithComponent("outbox")), cfg.Worker.PollInterval, dlqSweepInterval)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()

	wg.Wait()
	log.Info("worker stopped")
}
