package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"planner/internal/cli"
	apphttp "planner/internal/http"
	"planner/internal/log"
)

func main() {
	cli.LoadEnvFile()
	decimal.MarshalJSONWithoutQuotes = true

	cfg := cli.MustLoadConfig()
	logger := cli.SetupLogger(cfg.LogLevel, os.Stdout)

	logger.Info("Starting planner",
		log.FieldBackend, cfg.LedgerBackend,
		"port", cfg.Port,
		"forecast_url", cfg.ForecastAPIURL)

	stack, err := cli.BuildPlanner(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize planner", log.FieldError, err)
		os.Exit(1)
	}
	defer stack.Close()

	srv := apphttp.NewServer(":"+cfg.Port, stack.Planner,
		apphttp.WithLogger(logger.WithComponent(log.ComponentHTTP)),
		apphttp.WithDefaultMonthsAhead(cfg.MonthsAhead),
		apphttp.WithRateLimit(cfg.RateLimitPerMinute),
		apphttp.WithReadiness(stack.Backend.Ping),
	)

	_, done := cli.GracefulShutdown(logger, 10*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	})

	logger.Info("Listening", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server failed", log.FieldError, err)
		os.Exit(1)
	}
	<-done
}
