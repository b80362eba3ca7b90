// Package postgres reads the ledger from the hosted relational store
// that owns the transactions tables.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"planner/internal/ledger"
)

type Reader struct {
	db *sql.DB
}

var _ ledger.Reader = (*Reader)(nil)

// Open connects with a lib/pq DSN and verifies the connection.
func Open(ctx context.Context, dsn string) (*Reader, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return NewReader(db), nil
}

func NewReader(db *sql.DB) *Reader {
	return &Reader{db: db}
}

func (r *Reader) Close() error {
	return r.db.Close()
}

func (r *Reader) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

const readRowsQuery = `
SELECT t.final_amount::text, t.is_income, t.accounting_date::text, c.name, s.name
FROM transactions_with_refunds t
LEFT JOIN categories c ON c.id = t.category_id
LEFT JOIN subcategories s ON s.id = t.subcategory_id
WHERE t.accounting_date >= $1 AND t.accounting_date <= $2
ORDER BY t.accounting_date, t.id`

// ReadRows implements ledger.Reader.
func (r *Reader) ReadRows(ctx context.Context, from, to time.Time) ([]ledger.Row, error) {
	rows, err := r.db.QueryContext(ctx, readRowsQuery, from.Format("2006-01-02"), to.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []ledger.Row
	for rows.Next() {
		var (
			amount, date  sql.NullString
			isIncome      sql.NullBool
			category, sub sql.NullString
		)
		if err := rows.Scan(&amount, &isIncome, &date, &category, &sub); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, toRow(amount, isIncome, date, category, sub))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

// toRow keeps NULL amounts and dates as empty strings so normalization
// rejects them instead of reading them as zero.
func toRow(amount sql.NullString, isIncome sql.NullBool, date, category, sub sql.NullString) ledger.Row {
	row := ledger.Row{
		Amount:         amount.String,
		IsIncome:       isIncome.Valid && isIncome.Bool,
		AccountingDate: date.String,
		Category:       category.String,
	}
	if sub.Valid {
		s := sub.String
		row.Subcategory = &s
	}
	return row
}
