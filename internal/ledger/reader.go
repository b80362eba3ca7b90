package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"planner/internal/core"
)

// Read loads the rows accounted in [from, to] and normalizes them.
func Read(ctx context.Context, r Reader, from, to time.Time) ([]core.LedgerEntry, error) {
	rows, err := r.ReadRows(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrLedgerQueryFailed, err)
	}
	return Normalize(rows)
}

// Normalize converts raw rows into ledger entries. The first row with an
// unparsable amount or date fails the whole batch.
func Normalize(rows []Row) ([]core.LedgerEntry, error) {
	out := make([]core.LedgerEntry, 0, len(rows))
	for i, row := range rows {
		amount, err := core.ParseAmount(row.Amount)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: amount %q: %v", core.ErrMalformedLedgerEntry, i, row.Amount, err)
		}
		date, err := core.ParseDate(row.AccountingDate)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", core.ErrMalformedLedgerEntry, i, err)
		}
		var sub *string
		if row.Subcategory != nil {
			if s := strings.TrimSpace(*row.Subcategory); s != "" {
				sub = &s
			}
		}
		out = append(out, core.LedgerEntry{
			Amount:         amount,
			IsIncome:       row.IsIncome,
			AccountingDate: date,
			Category:       strings.TrimSpace(row.Category),
			Subcategory:    sub,
		})
	}
	return out, nil
}

// YearToDate returns the reconciliation window: January 1st of asOf's
// year through the end of asOf's day.
func YearToDate(asOf time.Time) (from, to time.Time) {
	from = time.Date(asOf.Year(), time.January, 1, 0, 0, 0, 0, asOf.Location())
	to = time.Date(asOf.Year(), asOf.Month(), asOf.Day(), 23, 59, 59, 0, asOf.Location())
	return from, to
}

// InWindow reports whether a date falls in [from, to] at day granularity.
func InWindow(d core.Date, from, to time.Time) bool {
	day := d.Format("2006-01-02")
	return day >= from.Format("2006-01-02") && day <= to.Format("2006-01-02")
}
