// Package main is the entry point for the hesap API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hesap/internal/config"
	"hesap/internal/domain/auth"
	v1 "hesap/internal/infrastructure/http/v1"
	"hesap/internal/infrastructure/pdf"
	"hesap/internal/infrastructure/policy"
	"hesap/internal/infrastructure/storage/postgres"
	"hesap/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.App.LogLevel,
		Development: cfg.App.IsDevelopment(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := cfg.Validate(); err != nil {
		log.Fatalw("invalid configuration", "error", err)
	}

	ctx := logger.WithLogger(context.Background(), log)
	log.Infow("starting hesap server", "env", cfg.App.Env)

	if cfg.DB.MigrateOnStart {
		if err := migrateUp(ctx, cfg.DB.URL); err != nil {
			log.Fatalw("failed to apply migrations", "error", err)
		}
	}

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(cfg.DB.URL)
	poolCfg.MaxConns = cfg.DB.MaxConns
	poolCfg.MinConns = cfg.DB.MinConns
	poolCfg.StatementTimeout = cfg.DB.StatementTimeout

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txManager := postgres.NewTxManager(pool, postgres.DefaultTxOptions())

	// --- Auth ---
	jwtConfig := auth.DefaultJWTConfig(cfg.JWT.Secret)
	jwtConfig.Issuer = cfg.JWT.Issuer
	jwtConfig.AccessTokenTTL = cfg.JWT.TTL
	jwtService := auth.NewJWTService(jwtConfig)

	branchPolicy, err := policy.NewBranchPolicy(cfg.BranchPolicy)
	if err != nil {
		log.Fatalw("invalid branch policy", "error", err)
	}
	log.Infow("branch policy loaded", "expr", branchPolicy.String())

	// --- Domain services ---
	svc := newServices(txManager, jwtService)

	var idempotency *postgres.IdempotencyStore
	if cfg.Idempotency.Enabled {
		idempotency = postgres.NewIdempotencyStore(txManager, cfg.Idempotency.TTL)
	}

	routerCfg := v1.RouterConfig{
		Logger:         log,
		DB:             pool,
		TokenValidator: jwtService,
		Policy:         branchPolicy,
		RateLimit:      cfg.HTTP.RateLimit,
		LoginRateLimit: cfg.HTTP.LoginRateLimit,
		CORSOrigins:    cfg.HTTP.CORSAllowedOrigins,
		Auth:           svc.auth,
		Catalog:        svc.catalog,
		Accounts:       svc.accounts,
		Invoices:       svc.invoices,
		Payments:       svc.payments,
		Stock:          svc.stock,
		Orders:         svc.orders,
		Expenses:       svc.expenses,
		Balances:       svc.balances,
		Statement:      pdf.NewStatementRenderer(cfg.App.CompanyName),
	}
	// a nil *IdempotencyStore must not become a non-nil interface
	if idempotency != nil {
		routerCfg.Idempotency = idempotency
	}

	router, err := v1.NewRouter(routerCfg)
	if err != nil {
		log.Fatalw("failed to build router", "error", err)
	}

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         cfg.HTTP.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
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

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

func migrateUp(ctx context.Context, dsn string) error {
	m, err := postgres.NewMigrator(dsn)
	if err != nil {
		return err
	}
	defer func() { _ = m.Close() }()
	return m.Up(ctx)
}
