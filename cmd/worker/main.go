// Package main is the entry point for the hesap background worker. It relays
// the transactional outbox into the audit log and expires idempotency keys.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"hesap/internal/config"
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

	ctx, cancel := context.WithCancel(logger.WithLogger(context.Background(), log))
	defer cancel()

	log.Info("starting hesap worker")

	poolCfg := postgres.DefaultPoolConfig(cfg.DB.URL)
	poolCfg.MaxConns = 4
	poolCfg.MinConns = 1
	poolCfg.AppName = "hesap-worker"
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txManager := postgres.NewTxManager(pool, postgres.DefaultTxOptions())

	auditLog, err := postgres.NewAuditLog(txManager)
	if err != nil {
		log.Fatalw("failed to create audit log", "error", err)
	}

	worker := &Worker{
		relay:       postgres.NewOutboxRelay(txManager, cfg.Worker.BatchSize, auditLog),
		idempotency: postgres.NewIdempotencyStore(txManager, cfg.Idempotency.TTL),
		poll:        cfg.Worker.PollInterval,
		cleanup:     cfg.Worker.CleanupInterval,
		poolStats:   pool.LogStats,
		log:         log.WithComponent("worker"),
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Run(ctx)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()

	wg.Wait()
	log.Info("worker stopped")
}

// BatchProcessor drains one batch of pending outbox messages.
type BatchProcessor interface {
	ProcessBatch(ctx context.Context) (int, error)
}

// KeyCleaner removes expired idempotency keys.
type KeyCleaner interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

// Worker runs the periodic background jobs.
type Worker struct {
	relay       BatchProcessor
	idempotency KeyCleaner
	poll        time.Duration
	cleanup     time.Duration
	poolStats   func(ctx context.Context)
	log         *logger.Logger
}

// Run polls until ctx is cancelled. A full batch is followed immediately by
// another one so a backlog drains without waiting for the ticker.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.poll)
	defer ticker.Stop()

	cleanupTicker := time.NewTicker(w.cleanup)
	defer cleanupTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.drainOutbox(ctx)
		case <-cleanupTicker.C:
			w.cleanupIdempotency(ctx)
			if w.poolStats != nil {
				w.poolStats(ctx)
			}
		}
	}
}

func (w *Worker) drainOutbox(ctx context.Context) {
	for ctx.Err() == nil {
		n, err := w.relay.ProcessBatch(ctx)
		if err != nil {
			w.log.Errorw("outbox batch failed", "error", err)
			return
		}
		if n > 0 {
			w.log.Debugw("relayed outbox batch", "count", n)
		}
		if n == 0 {
			return
		}
	}
}

func (w *Worker) cleanupIdempotency(ctx context.Context) {
	n, err := w.idempotency.CleanupExpired(ctx)
	if err != nil {
		w.log.Errorw("idempotency cleanup failed", "error", err)
		return
	}
	if n > 0 {
		w.log.Infow("cleaned up idempotency keys", "count", n)
	}
}
