package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

const upsertCategory = `
INSERT INTO categories (name) VALUES (?)
ON CONFLICT (name) DO UPDATE SET name = excluded.name
RETURNING id`

func (q *Queries) UpsertCategory(ctx context.Context, name string) (int64, error) {
	var id int64
	err := q.db.QueryRowContext(ctx, upsertCategory, name).Scan(&id)
	return id, err
}

const upsertSubcategory = `
INSERT INTO subcategories (category_id, name) VALUES (?, ?)
ON CONFLICT (category_id, name) DO UPDATE SET name = excluded.name
RETURNING id`

func (q *Queries) UpsertSubcategory(ctx context.Context, categoryID int64, name string) (int64, error) {
	var id int64
	err := q.db.QueryRowContext(ctx, upsertSubcategory, categoryID, name).Scan(&id)
	return id, err
}

type CreateTransactionParams struct {
	AmountCents    int64
	IsIncome       bool
	AccountingDate string
	Description    string
	CategoryID     sql.NullInt64
	SubcategoryID  sql.NullInt64
	RefundOf       sql.NullInt64
}

const createTransaction = `
INSERT INTO transactions (amount_cents, is_income, accounting_date, description, category_id, subcategory_id, refund_of)
VALUES (?, ?, ?, ?, ?, ?, ?)
RETURNING id`

func (q *Queries) CreateTransaction(ctx context.Context, arg CreateTransactionParams) (int64, error) {
	var id int64
	err := q.db.QueryRowContext(ctx, createTransaction,
		arg.AmountCents,
		arg.IsIncome,
		arg.AccountingDate,
		arg.Description,
		arg.CategoryID,
		arg.SubcategoryID,
		arg.RefundOf,
	).Scan(&id)
	return id, err
}

type LedgerRow struct {
	FinalAmountCents int64
	IsIncome         bool
	AccountingDate   string
	Category         sql.NullString
	Subcategory      sql.NullString
}

const listLedgerRows = `
SELECT t.final_amount_cents, t.is_income, t.accounting_date, c.name, s.name
FROM transactions_with_refunds t
LEFT JOIN categories c ON c.id = t.category_id
LEFT JOIN subcategories s ON s.id = t.subcategory_id
WHERE t.accounting_date >= ? AND t.accounting_date <= ?
ORDER BY t.accounting_date, t.id`

func (q *Queries) ListLedgerRows(ctx context.Context, from, to string) ([]LedgerRow, error) {
	rows, err := q.db.QueryContext(ctx, listLedgerRows, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []LedgerRow
	for rows.Next() {
		var i LedgerRow
		if err := rows.Scan(&i.FinalAmountCents, &i.IsIncome, &i.AccountingDate, &i.Category, &i.Subcategory); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

type CreateSnapshotParams struct {
	ID               string
	MonthsAhead      int64
	AsOf             string
	Source           string
	Degraded         bool
	EstimatedBalance string
	PlanJSON         string
	ForecastJSON     string
}

const createSnapshot = `
INSERT INTO plan_snapshots (id, months_ahead, as_of, source, degraded, estimated_balance, plan_json, forecast_json)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateSnapshot(ctx context.Context, arg CreateSnapshotParams) error {
	_, err := q.db.ExecContext(ctx, createSnapshot,
		arg.ID,
		arg.MonthsAhead,
		arg.AsOf,
		arg.Source,
		arg.Degraded,
		arg.EstimatedBalance,
		arg.PlanJSON,
		arg.ForecastJSON,
	)
	return err
}

type SnapshotRow struct {
	ID           string
	PlanJSON     string
	ForecastJSON string
}

const latestSnapshot = `
SELECT id, plan_json, forecast_json
FROM plan_snapshots
WHERE months_ahead = ? AND source != 'placeholder'
ORDER BY seq DESC
LIMIT 1`

func (q *Queries) LatestSnapshot(ctx context.Context, monthsAhead int64) (SnapshotRow, error) {
	var i SnapshotRow
	err := q.db.QueryRowContext(ctx, latestSnapshot, monthsAhead).Scan(&i.ID, &i.PlanJSON, &i.ForecastJSON)
	return i, err
}

const deleteSnapshotsBefore = `
DELETE FROM plan_snapshots
WHERE months_ahead = ? AND seq < (
    SELECT MIN(seq) FROM (
        SELECT seq FROM plan_snapshots WHERE months_ahead = ? ORDER BY seq DESC LIMIT ?
    )
)`

func (q *Queries) PruneSnapshots(ctx context.Context, monthsAhead int64, keep int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteSnapshotsBefore, monthsAhead, monthsAhead, keep)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
