// Package storage is the SQLite ledger backend. It also keeps the plan
// snapshots written by the refresh worker.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"planner/internal/core"
	"planner/internal/ledger"

	_ "modernc.org/sqlite"
)

const dayLayout = "2006-01-02"

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

var _ ledger.Reader = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// ReadRows implements ledger.Reader over the refund-adjusted view.
func (r *SQLiteRepository) ReadRows(ctx context.Context, from, to time.Time) ([]ledger.Row, error) {
	items, err := r.queries.ListLedgerRows(ctx, from.Format(dayLayout), to.Format(dayLayout))
	if err != nil {
		return nil, fmt.Errorf("list ledger rows: %w", err)
	}

	rows := make([]ledger.Row, 0, len(items))
	for _, it := range items {
		row := ledger.Row{
			Amount:         decimal.New(it.FinalAmountCents, -2).String(),
			IsIncome:       it.IsIncome,
			AccountingDate: it.AccountingDate,
			Category:       it.Category.String,
		}
		if it.Subcategory.Valid {
			sub := it.Subcategory.String
			row.Subcategory = &sub
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Transaction is the input of InsertTransaction. Category and
// Subcategory are created on first use.
type Transaction struct {
	Amount         decimal.Decimal
	IsIncome       bool
	AccountingDate core.Date
	Description    string
	Category       string
	Subcategory    string
	RefundOf       int64
}

// InsertTransaction records a transaction and returns its id.
func (r *SQLiteRepository) InsertTransaction(ctx context.Context, t Transaction) (int64, error) {
	if err := t.AccountingDate.Validate(); err != nil {
		return 0, fmt.Errorf("accounting date: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()
	q := r.queries.WithTx(tx)

	params := CreateTransactionParams{
		AmountCents:    t.Amount.Round(2).Shift(2).IntPart(),
		IsIncome:       t.IsIncome,
		AccountingDate: t.AccountingDate.Format(dayLayout),
		Description:    t.Description,
	}
	if t.RefundOf > 0 {
		params.RefundOf = sql.NullInt64{Int64: t.RefundOf, Valid: true}
	}
	if name := strings.TrimSpace(t.Category); name != "" {
		catID, err := q.UpsertCategory(ctx, name)
		if err != nil {
			return 0, fmt.Errorf("upsert category %q: %w", name, err)
		}
		params.CategoryID = sql.NullInt64{Int64: catID, Valid: true}

		if sub := strings.TrimSpace(t.Subcategory); sub != "" {
			subID, err := q.UpsertSubcategory(ctx, catID, sub)
			if err != nil {
				return 0, fmt.Errorf("upsert subcategory %q: %w", sub, err)
			}
			params.SubcategoryID = sql.NullInt64{Int64: subID, Valid: true}
		}
	}

	id, err := q.CreateTransaction(ctx, params)
	if err != nil {
		return 0, fmt.Errorf("create transaction: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}

	slog.DebugContext(ctx, "Transaction saved to SQLite",
		"id", id,
		"amount_cents", params.AmountCents,
		"accounting_date", params.AccountingDate,
		"refund_of", t.RefundOf)

	return id, nil
}

// SaveSnapshot stores a computed plan together with the forecast series
// it was built from and returns the snapshot id.
func (r *SQLiteRepository) SaveSnapshot(ctx context.Context, plan core.Plan) (string, error) {
	planJSON, err := json.Marshal(plan)
	if err != nil {
		return "", fmt.Errorf("marshal plan: %w", err)
	}
	forecastJSON, err := json.Marshal(plan.Forecast)
	if err != nil {
		return "", fmt.Errorf("marshal forecast: %w", err)
	}

	id := uuid.NewString()
	err = r.queries.CreateSnapshot(ctx, CreateSnapshotParams{
		ID:               id,
		MonthsAhead:      int64(plan.MonthsAhead),
		AsOf:             plan.AsOf.UTC().Format(time.RFC3339),
		Source:           string(plan.Source),
		Degraded:         plan.Degraded,
		EstimatedBalance: plan.Summary.EstimatedBalance.String(),
		PlanJSON:         string(planJSON),
		ForecastJSON:     string(forecastJSON),
	})
	if err != nil {
		return "", fmt.Errorf("create snapshot: %w", err)
	}

	slog.InfoContext(ctx, "Plan snapshot saved",
		"snapshot_id", id,
		"months_ahead", plan.MonthsAhead,
		"source", plan.Source)

	return id, nil
}

// LatestSnapshot returns the newest non-placeholder snapshot for a horizon.
func (r *SQLiteRepository) LatestSnapshot(ctx context.Context, monthsAhead int) (core.Plan, bool, error) {
	row, err := r.queries.LatestSnapshot(ctx, int64(monthsAhead))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Plan{}, false, nil
	}
	if err != nil {
		return core.Plan{}, false, fmt.Errorf("get latest snapshot: %w", err)
	}

	var plan core.Plan
	if err := json.Unmarshal([]byte(row.PlanJSON), &plan); err != nil {
		return core.Plan{}, false, fmt.Errorf("decode snapshot %s: %w", row.ID, err)
	}
	if err := json.Unmarshal([]byte(row.ForecastJSON), &plan.Forecast); err != nil {
		return core.Plan{}, false, fmt.Errorf("decode snapshot forecast %s: %w", row.ID, err)
	}
	return plan, true, nil
}

// LatestForecast returns the forecast series of the newest snapshot for a horizon.
func (r *SQLiteRepository) LatestForecast(ctx context.Context, monthsAhead int) (core.ForecastSeries, bool, error) {
	plan, ok, err := r.LatestSnapshot(ctx, monthsAhead)
	if err != nil || !ok {
		return core.ForecastSeries{}, ok, err
	}
	return plan.Forecast, true, nil
}

// PruneSnapshots keeps the newest keep snapshots of a horizon.
func (r *SQLiteRepository) PruneSnapshots(ctx context.Context, monthsAhead, keep int) (int64, error) {
	n, err := r.queries.PruneSnapshots(ctx, int64(monthsAhead), int64(keep))
	if err != nil {
		return 0, fmt.Errorf("prune snapshots: %w", err)
	}
	if n > 0 {
		slog.InfoContext(ctx, "Pruned plan snapshots", "months_ahead", monthsAhead, "deleted", n)
	}
	return n, nil
}
