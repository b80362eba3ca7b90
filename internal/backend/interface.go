// Package backend builds the ledger reader and snapshot store selected by
// configuration.
package backend

import (
	"context"

	"planner/internal/ledger"
	"planner/internal/storage"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// Pinger is implemented by backends that can report readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// BackendResult contains the ledger reader, the optional snapshot store and
// a cleanup function releasing both.
type BackendResult struct {
	Reader    ledger.Reader
	Snapshots *storage.SQLiteRepository
	Cleanup   CleanupFunc
}

// Ping checks the reader and the snapshot store when they support it.
func (r *BackendResult) Ping(ctx context.Context) error {
	if p, ok := r.Reader.(Pinger); ok {
		if err := p.Ping(ctx); err != nil {
			return err
		}
	}
	if r.Snapshots != nil {
		return r.Snapshots.Ping(ctx)
	}
	return nil
}

// Close runs the cleanup function if any.
func (r *BackendResult) Close() error {
	if r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// Memory backend specific
	SeedFile string

	// SQLite specific
	SQLiteDBPath string

	// Postgres specific
	PostgresDSN string

	// Google Sheets specific
	GoogleSpreadsheetID string
	GoogleSheetName     string

	// SnapshotDBPath enables the snapshot store when non-empty.
	SnapshotDBPath string
}

// BackendType represents the type of backend
type BackendType string

const (
	MemoryBackend   BackendType = "memory"
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
	SheetsBackend   BackendType = "sheets"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend, PostgresBackend, SheetsBackend:
		return true
	default:
		return false
	}
}
