// Package ledger reads raw transaction rows from a ledger backend and
// normalizes them into core.LedgerEntry values.
package ledger

import (
	"context"
	"time"
)

type (
	// Row is a transaction exactly as a backend returns it. Amounts and
	// dates stay as text so normalization reports every malformed value
	// the same way whatever the backend.
	Row struct {
		Amount         string
		IsIncome       bool
		AccountingDate string
		Category       string
		Subcategory    *string
	}

	// Reader returns the refund-adjusted transactions accounted between
	// from and to, both inclusive.
	Reader interface {
		ReadRows(ctx context.Context, from, to time.Time) ([]Row, error)
	}
)
