package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"planner/internal/ledger"
)

func TestStoreReadRowsFiltersWindow(t *testing.T) {
	s := New(
		ledger.Row{Amount: "1", AccountingDate: "2024-12-31"},
		ledger.Row{Amount: "2", AccountingDate: "2025-01-01"},
		ledger.Row{Amount: "3", AccountingDate: "2025-03-14"},
		ledger.Row{Amount: "4", AccountingDate: "2025-03-15"},
		ledger.Row{Amount: "5", AccountingDate: "garbage"},
	)

	from, to := ledger.YearToDate(time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC))
	rows, err := s.ReadRows(context.Background(), from, to)
	if err != nil {
		t.Fatalf("ReadRows() error = %v", err)
	}
	var amounts []string
	for _, r := range rows {
		amounts = append(amounts, r.Amount)
	}
	want := []string{"2", "3", "5"}
	if len(amounts) != len(want) {
		t.Fatalf("amounts = %v, want %v", amounts, want)
	}
	for i := range want {
		if amounts[i] != want[i] {
			t.Fatalf("amounts = %v, want %v", amounts, want)
		}
	}
}

func TestStoreFailWith(t *testing.T) {
	s := New()
	boom := errors.New("boom")
	s.FailWith(boom)
	if _, err := s.ReadRows(context.Background(), time.Time{}, time.Now()); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	s.FailWith(nil)
	if _, err := s.ReadRows(context.Background(), time.Time{}, time.Now()); err != nil {
		t.Fatalf("expected reads to recover, got %v", err)
	}
}

func TestNewFromFile(t *testing.T) {
	dir := t.TempDir()

	s, err := NewFromFile(filepath.Join(dir, "missing.csv"))
	if err != nil {
		t.Fatalf("missing file should yield an empty store, got %v", err)
	}
	if rows, _ := s.ReadRows(context.Background(), time.Time{}, time.Now()); len(rows) != 0 {
		t.Fatalf("expected no rows, got %v", rows)
	}

	path := filepath.Join(dir, "seed.csv")
	content := "# date,amount,type,category,subcategory\n" +
		"2025-01-02,-850.00,expense,Logement,Loyer\n" +
		"2025-01-28,2450.00,income,Salaire,\n" +
		"2025-01-30,-9,expense\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}

	s, err = NewFromFile(path)
	if err != nil {
		t.Fatalf("NewFromFile() error = %v", err)
	}
	rows, _ := s.ReadRows(context.Background(), time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC))
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0].Subcategory == nil || *rows[0].Subcategory != "Loyer" || rows[0].IsIncome {
		t.Errorf("row 0 = %+v", rows[0])
	}
	if !rows[1].IsIncome || rows[1].Subcategory != nil {
		t.Errorf("row 1 = %+v", rows[1])
	}
	if rows[2].Category != "" {
		t.Errorf("row 2 = %+v", rows[2])
	}
}
