package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"hesap/internal/config"
	"hesap/internal/infrastructure/storage/postgres"
	"hesap/pkg/logger"
)

var version = "dev"

// env is the lazily opened process environment shared by subcommands.
type env struct {
	cfg  *config.Config
	log  *logger.Logger
	pool *postgres.Pool
	txm  *postgres.TxManager
}

func (e *env) load() error {
	if e.cfg != nil {
		return nil
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(logger.Config{Level: cfg.App.LogLevel, Development: true, OutputPaths: []string{"stderr"}})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	e.cfg, e.log = cfg, log
	return nil
}

// open connects to the database once per process.
func (e *env) open(ctx context.Context) error {
	if err := e.load(); err != nil {
		return err
	}
	if e.pool != nil {
		return nil
	}
	if e.cfg.DB.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	poolCfg := postgres.DefaultPoolConfig(e.cfg.DB.URL)
	poolCfg.MaxConns = 2
	poolCfg.MinConns = 0
	poolCfg.AppName = "hesapctl"
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	e.pool = pool
	e.txm = postgres.NewTxManager(pool, postgres.DefaultTxOptions())
	return nil
}

func (e *env) close() {
	if e.pool != nil {
		e.pool.Close()
	}
	if e.log != nil {
		_ = e.log.Sync()
	}
}

func newRootCmd() *cobra.Command {
	e := &env{}

	root := &cobra.Command{
		Use:   "hesapctl",
		Short: "hesapctl administers a hesap ledger database",
		Long: `hesapctl runs administrative tasks against the database named by
DATABASE_URL (read from the environment or a .env file).`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRun: func(*cobra.Command, []string) {
			e.close()
		},
	}

	root.AddCommand(
		newMigrateCmd(e),
		newBranchCmd(e),
		newUserCmd(e),
		newTokenCmd(e),
		newStockCmd(e),
		newAuditCmd(e),
	)
	return root
}

// commandContext carries the CLI logger.
func commandContext(cmd *cobra.Command, e *env) context.Context {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if e.log != nil {
		ctx = logger.WithLogger(ctx, e.log)
	}
	return ctx
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
