package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/Mateen-Abid/carelinx-app/internal/booking"
	"github.com/Mateen-Abid/carelinx-app/internal/config"
	"github.com/Mateen-Abid/carelinx-app/internal/db"
	"github.com/Mateen-Abid/carelinx-app/internal/redisclient"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		errLogger := zerolog.New(os.Stderr)
		errLogger.Fatal().Err(err).Msg("config load error")
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "feedback-worker").Logger()
	logger.Info().
		Str("env", cfg.Env).
		Dur("interval", cfg.WorkerInterval).
		Dur("delay", cfg.FeedbackDelay).
		Msg("feedback-worker starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect Postgres
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()
	logger.Info().Msg("connected to Postgres")

	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection error")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Error().Err(err).Msg("error closing redis")
		}
	}()
	logger.Info().Msg("connected to Redis")

	repo := booking.NewPgRepository(pgPool)
	notifier := redisclient.NewRedisNotifier(rdb)
	flagger := booking.NewFeedbackFlagger(repo, notifier, logger)

	// Run once at startup
	runOnce(rootCtx, flagger, cfg.FeedbackDelay, logger)

	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			logger.Info().Msg("shutdown signal received, stopping feedback worker")
			return
		case <-ticker.C:
			runOnce(rootCtx, flagger, cfg.FeedbackDelay, logger)
		}
	}
}

func runOnce(ctx context.Context, flagger *booking.FeedbackFlagger, delay time.Duration, logger zerolog.Logger) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	flagged, err := flagger.FlagStale(runCtx, delay)
	if err != nil {
		logger.Error().Err(err).Msg("feedback run error")
		return
	}
	logger.Info().Int("flagged", flagged).Dur("took", time.Since(start)).Msg("feedback run complete")
}
