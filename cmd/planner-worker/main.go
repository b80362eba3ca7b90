package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"planner/internal/amqp"
	"planner/internal/cli"
	"planner/internal/log"
	"planner/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	decimal.MarshalJSONWithoutQuotes = true

	cfg := cli.MustLoadConfig()
	logger := cli.SetupLogger(cfg.LogLevel, os.Stdout).WithComponent(log.ComponentWorker)

	logger.Info("Starting planner-worker",
		"schedule", cfg.RefreshSchedule,
		"horizons", cfg.RefreshHorizons)

	stack, err := cli.BuildPlanner(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize planner", log.FieldError, err)
		os.Exit(1)
	}
	defer stack.Close()

	if stack.Backend.Snapshots == nil {
		logger.Error("Snapshot store required: use the sqlite ledger backend or set SNAPSHOT_DB_PATH")
		os.Exit(1)
	}

	// AMQP is optional: without it snapshots are saved but not announced.
	var (
		amqpClient *amqp.Client
		publisher  worker.Publisher
	)
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, cfg.AMQPRefreshQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without messaging", log.FieldError, err)
		} else {
			defer amqpClient.Close()
			publisher = amqpClient
			logger.Info("Initialized AMQP client",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue,
				"refresh_queue", cfg.AMQPRefreshQueue)
		}
	}

	w := worker.NewRefreshWorker(stack.Planner, stack.Backend.Snapshots, publisher, cfg.RefreshHorizons, cfg.SnapshotKeep)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	logger.Info("Performing startup refresh")
	if err := w.RefreshAll(ctx); err != nil {
		logger.Error("Startup refresh failed", log.FieldError, err)
	}

	if amqpClient != nil {
		go func() {
			err := amqpClient.ConsumeRefreshRequests(ctx, w.HandleRefreshRequest)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Refresh consumption stopped", log.FieldError, err)
			}
		}()
	}

	if err := w.Start(ctx, cfg.RefreshSchedule); err != nil {
		logger.Error("Refresh schedule failed", log.FieldError, err)
		os.Exit(1)
	}
	<-done
}
