package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"server/internal/credit"
	"server/internal/infra"
	"server/internal/sweeper"
)

// Standalone sweep loop for deployments that run the API with several
// replicas: point every replica's SWEEP_INTERVAL_SECONDS high (or run this
// binary alone) and let "skip locked" arbitrate.
func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("sweeper: db connection failed")
	}
	defer pool.Close()

	runner := infra.NewSQLRunner(pool, logger)

	s := &sweeper.Sweeper{
		SQL:       runner,
		Ledger:    credit.NewLedger(runner),
		Logger:    logger,
		Interval:  cfg.SweepInterval,
		After:     cfg.SweepAfter,
		BatchSize: cfg.SweepBatchSize,
	}

	logger.Info().
		Dur("interval", cfg.SweepInterval).
		Dur("after", cfg.SweepAfter).
		Int("batch", cfg.SweepBatchSize).
		Msg("sweeper started")
	s.Run(ctx)
	logger.Info().Msg("sweeper stopped")
}
