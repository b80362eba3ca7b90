package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"planner/internal/ledger"
	"planner/internal/ledger/memory"
	"planner/internal/ledger/postgres"
	"planner/internal/ledger/sheets"
	"planner/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		res *BackendResult
		err error
	)
	switch config.Type {
	case SQLiteBackend:
		res, err = f.createSQLiteBackend(config)
	case PostgresBackend:
		res, err = f.createPostgresBackend(ctx, config)
	case SheetsBackend:
		res, err = f.createSheetsBackend(ctx, config)
	case MemoryBackend:
		res, err = f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	if res.Snapshots == nil && config.SnapshotDBPath != "" {
		repo, err := storage.NewSQLiteRepository(config.SnapshotDBPath)
		if err != nil {
			res.Close()
			return nil, fmt.Errorf("failed to initialize snapshot store: %w", err)
		}
		res.Snapshots = repo
		res.Cleanup = joinCleanup(res.Cleanup, repo.Close)
		f.logger.Info("Initialized snapshot store", "db_path", config.SnapshotDBPath)
	}

	return res, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	// The ledger file doubles as the snapshot store unless another path is set.
	var snapshots *storage.SQLiteRepository
	if config.SnapshotDBPath == "" || config.SnapshotDBPath == config.SQLiteDBPath {
		snapshots = repo
	}

	return &BackendResult{
		Reader:    repo,
		Snapshots: snapshots,
		Cleanup:   repo.Close,
	}, nil
}

func (f *DefaultFactory) createPostgresBackend(ctx context.Context, config Config) (*BackendResult, error) {
	reader, err := postgres.Open(ctx, config.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize postgres reader: %w", err)
	}

	f.logger.Info("Initialized postgres backend")

	return &BackendResult{
		Reader:  reader,
		Cleanup: reader.Close,
	}, nil
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context, config Config) (*BackendResult, error) {
	cli, err := sheets.New(ctx, config.GoogleSpreadsheetID, config.GoogleSheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}

	f.logger.Info("Initialized Google Sheets backend", "sheet", config.GoogleSheetName)

	return &BackendResult{Reader: cli}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	var reader ledger.Reader
	if config.SeedFile == "" {
		reader = memory.New()
	} else {
		store, err := memory.NewFromFile(config.SeedFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load seed file: %w", err)
		}
		reader = store
	}

	f.logger.Info("Initialized memory backend", "seed_file", config.SeedFile)

	return &BackendResult{Reader: reader}, nil
}

func joinCleanup(fns ...CleanupFunc) CleanupFunc {
	return func() error {
		var errs []error
		for _, fn := range fns {
			if fn == nil {
				continue
			}
			if err := fn(); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
}
