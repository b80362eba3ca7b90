package postgres

import (
	"database/sql"
	"errors"
	"testing"

	"planner/internal/core"
	"planner/internal/ledger"
)

func TestToRow(t *testing.T) {
	row := toRow(
		sql.NullString{String: "-12.40", Valid: true},
		sql.NullBool{Bool: false, Valid: true},
		sql.NullString{String: "2025-04-02", Valid: true},
		sql.NullString{String: "Food", Valid: true},
		sql.NullString{String: "Groceries", Valid: true},
	)
	if row.Amount != "-12.40" || row.IsIncome || row.AccountingDate != "2025-04-02" || row.Category != "Food" {
		t.Fatalf("unexpected row %+v", row)
	}
	if row.Subcategory == nil || *row.Subcategory != "Groceries" {
		t.Fatalf("unexpected subcategory %v", row.Subcategory)
	}

	noSub := toRow(sql.NullString{String: "5", Valid: true}, sql.NullBool{}, sql.NullString{String: "2025-04-02", Valid: true}, sql.NullString{}, sql.NullString{})
	if noSub.Subcategory != nil || noSub.Category != "" || noSub.IsIncome {
		t.Fatalf("unexpected row %+v", noSub)
	}
}

func TestToRowNullDateIsMalformed(t *testing.T) {
	row := toRow(sql.NullString{String: "5", Valid: true}, sql.NullBool{}, sql.NullString{}, sql.NullString{}, sql.NullString{})
	if _, err := ledger.Normalize([]ledger.Row{row}); !errors.Is(err, core.ErrMalformedLedgerEntry) {
		t.Fatalf("expected ErrMalformedLedgerEntry, got %v", err)
	}
}
