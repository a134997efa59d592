package main

import (
	"context"
	"flag"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"selene/internal/adapters/config"
	"selene/pkg/logger"
)

var statements = []string{
	`CREATE TABLE IF NOT EXISTS analysis_jobs (
		id                  TEXT PRIMARY KEY,
		status              TEXT NOT NULL,
		current_step        TEXT NOT NULL DEFAULT '',
		step_message        TEXT NOT NULL DEFAULT '',
		progress_percentage INT NOT NULL DEFAULT 0,
		signals_generated   INT NOT NULL DEFAULT 0,
		alerts_generated    INT NOT NULL DEFAULT 0,
		duration_ms         BIGINT NOT NULL DEFAULT 0,
		started_at          TIMESTAMPTZ NOT NULL,
		updated_at          TIMESTAMPTZ NOT NULL,
		completed_at        TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_analysis_jobs_started_at ON analysis_jobs (started_at DESC)`,
	`CREATE TABLE IF NOT EXISTS trading_signals (
		id         TEXT PRIMARY KEY,
		symbol     TEXT NOT NULL,
		direction  TEXT NOT NULL,
		confidence INT NOT NULL,
		reasoning  TEXT NOT NULL DEFAULT '',
		metrics    JSONB NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_trading_signals_created_at ON trading_signals (created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_trading_signals_symbol ON trading_signals (symbol, created_at DESC)`,
}

func main() {
	dryRun := flag.Bool("dry-run", false, "Print statements without executing")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	defer logger.Sync()

	log := logger.Get()
	log.Infow("Running migrations", "database", cfg.Postgres.Database, "dry_run", *dryRun)

	if *dryRun {
		for _, stmt := range statements {
			log.Info(stmt)
		}
		return
	}

	db, err := sqlx.Connect("postgres", cfg.Postgres.DSN())
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	for i, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			log.Fatalf("Statement %d failed: %v", i+1, err)
		}
	}

	log.Infof("Applied %d statements", len(statements))
}
