// Package cli holds the start-up steps shared by cmd/planner,
// cmd/planner-worker and cmd/plannerctl.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"planner/internal/backend"
	"planner/internal/cache"
	"planner/internal/config"
	"planner/internal/core"
	"planner/internal/forecast"
	"planner/internal/log"
	"planner/internal/planner"
	"planner/internal/services"
)

// SetupLogger initializes structured logging at the given LOG_LEVEL and
// sets it as the default logger.
func SetupLogger(level string, out io.Writer) *log.Logger {
	lvl, err := log.ParseLevel(level)
	logger := log.New(log.Config{Level: lvl, Component: log.ComponentApp, Output: out})
	log.SetDefault(logger)
	if err != nil {
		logger.Warn("Unknown log level, using info", log.FieldError, err)
	}
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MustLoadConfig is LoadAndValidateConfig for mains: it exits on failure.
func MustLoadConfig() *config.Config {
	cfg, err := LoadAndValidateConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return cfg
}

// Stack is the planner service wired to its configured collaborators.
type Stack struct {
	Backend *backend.BackendResult
	Planner *services.PlannerService
	Cache   *cache.Manager
}

// BuildPlanner creates the ledger backend, forecast client, cache and
// planner service described by cfg.
func BuildPlanner(ctx context.Context, cfg *config.Config, logger *log.Logger) (*Stack, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, err
	}

	client := forecast.NewClient(forecast.Config{
		BaseURL:      cfg.ForecastAPIURL,
		APIKey:       cfg.ForecastAPIKey,
		Timeout:      cfg.ForecastTimeout,
		ResponsePath: cfg.ForecastResponsePath,
	})

	lru := cache.NewLRUCache[core.ForecastSeries](cfg.CacheSize, cfg.CacheTTL)
	manager := cache.NewManager()
	manager.Register(lru)
	manager.StartCleanup(10 * time.Minute)

	opts := []services.Option{
		services.WithCache(lru),
		services.WithLabeler(planner.LabelerFor(cfg.LabelLocale)),
		services.WithIncludeRecurring(cfg.ForecastIncludeRecurring),
	}
	if res.Snapshots != nil {
		opts = append(opts, services.WithSnapshots(res.Snapshots))
	}

	return &Stack{
		Backend: res,
		Planner: services.NewPlannerService(res.Reader, client, opts...),
		Cache:   manager,
	}, nil
}

// Close releases the backend and stops cache cleanup.
func (s *Stack) Close() error {
	if s.Cache != nil {
		s.Cache.Stop()
	}
	return s.Backend.Close()
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM. The
// cleanup function runs with a context bounded by timeout.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(ctx context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()
		if cleanup != nil {
			cleanup(shutdownCtx)
		}
		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
		} else {
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}
