package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"paydash/internal/amqp"
	"paydash/internal/config"
	"paydash/internal/core"
	"paydash/internal/services"
	"paydash/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	// Setup structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("Starting period-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// AMQP is optional; without it the worker still ensures periods, it
	// just stops announcing them.
	var events services.EventPublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without events", "error", err)
		} else {
			defer amqpClient.Close()
			events = amqpClient
			logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	} else {
		logger.Info("AMQP disabled - period and anomaly events will not be published")
	}

	settings := core.PaydaySettings{
		PaydayDay:         cfg.PaydayDay,
		AdjustForWeekends: cfg.PaydayAdjustWeekend,
	}
	budget := services.NewBudgetService(repo, nil)
	ensurer, err := services.NewPeriodEnsurer(repo, budget, events, settings, nil)
	if err != nil {
		logger.Error("Failed to initialize period ensurer", "error", err, "day", cfg.PaydayDay)
		os.Exit(1)
	}

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.Info("Period ensure worker configured",
		"interval", cfg.EnsureInterval,
		"payday_day", cfg.PaydayDay,
		"sqlite_db", cfg.SQLiteDBPath)

	ticker := time.NewTicker(cfg.EnsureInterval)
	defer ticker.Stop()

	scan := func() {
		anomalies, err := ensurer.ScanCurrentPeriod(ctx)
		if err != nil {
			logger.Error("Period scan failed", "error", err)
			return
		}
		logger.Info("Period scan complete", "anomalies", len(anomalies))
	}

	// Run an initial pass on startup, then on every tick.
	logger.Info("Running initial period scan...")
	scan()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				scan()
			}
		}
	}()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	logger.Info("Period worker stopped gracefully")
}
