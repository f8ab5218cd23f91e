// Package main is the entry point for the goods receipt API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"receiptflow/internal/app"
	"receiptflow/internal/domain/auth"
	v1 "receiptflow/internal/infrastructure/http/v1"
	"receiptflow/pkg/config"
	"receiptflow/pkg/logger"
)

const devJWTSecret = "dev-secret-change-me"

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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Infow("starting receiptflow server", "env", cfg.App.Env, "storage", cfg.Storage.Driver)

	storage, closeStorage, err := app.Open(ctx, cfg)
	if err != nil {
		log.Fatalw("failed to open storage", "error", err)
	}
	defer closeStorage()

	services := app.NewServices(storage)

	// --- JWT ---
	secret := cfg.JWT.Secret
	if secret == "" {
		log.Warn("JWT_SECRET not set, using development secret")
		secret = devJWTSecret
	}
	jwtConfig := auth.DefaultJWTConfig(secret)
	jwtConfig.Issuer = cfg.JWT.Issuer
	jwtConfig.AccessTokenTTL = cfg.JWT.Expiration
	jwtService := auth.NewJWTService(jwtConfig)

	if cfg.Webhook.SupplierSecret == "" {
		log.Warn("SUPPLIER_WEBHOOK_SECRET not set, supplier confirmations are refused")
	}

	router := v1.NewRouter(v1.RouterConfig{
		Logger:        log,
		JWTValidator:  jwtService,
		WebhookSecret: cfg.Webhook.SupplierSecret,
		Storage:       app.PingFunc(storage.Ping),
		StorageDriver: storage.Driver,
		Receipts:      services.Receipts,
		Products:      services.Products,
		Suppliers:     services.Suppliers,
		Stock:         services.Stock,
		Debug:         cfg.App.IsDevelopment(),
	})

	// With in-memory storage no separate worker can see the outbox,
	// so notifications are relayed in process.
	var wg sync.WaitGroup
	if storage.Driver == config.DriverMemory {
		relay := app.NewRelay(storage, cfg)
		wg.Add(1)
		go func() {
			defer wg.Done()
			relay.Run(logger.WithLogger(ctx, log.WithComponent("outbox")), cfg.Worker.PollInterval, time.Minute)
		}()
	}

	server := &http.Server{
		Addr:         cfg.HTTP.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	cancel()
	wg.Wait()
	log.Info("server stopped")
}
