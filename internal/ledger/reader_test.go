package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"planner/internal/core"
)

type fakeReader struct {
	rows []Row
	err  error

	from, to time.Time
}

func (f *fakeReader) ReadRows(_ context.Context, from, to time.Time) ([]Row, error) {
	f.from, f.to = from, to
	return f.rows, f.err
}

func strPtr(s string) *string { return &s }

func TestNormalize(t *testing.T) {
	rows := []Row{
		{Amount: "-42,50", AccountingDate: "2025-02-03", Category: " Food ", Subcategory: strPtr("Groceries")},
		{Amount: "1500", IsIncome: true, AccountingDate: "2025-02-27T00:00:00Z", Category: "Salary"},
		{Amount: "12", AccountingDate: "2025-02-04", Category: "Misc", Subcategory: strPtr("  ")},
	}

	got, err := Normalize(rows)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(got))
	}
	if got[0].Amount.String() != "-42.5" || got[0].Category != "Food" || *got[0].Subcategory != "Groceries" {
		t.Errorf("entry 0 = %+v", got[0])
	}
	if !got[1].IsIncome || !got[1].AccountingDate.Equal(core.NewDate(2025, 2, 27).Time) {
		t.Errorf("entry 1 = %+v", got[1])
	}
	if got[2].Subcategory != nil {
		t.Errorf("blank subcategory should normalize to nil, got %q", *got[2].Subcategory)
	}
}

func TestNormalize_Malformed(t *testing.T) {
	tests := []struct {
		name string
		row  Row
	}{
		{"bad amount", Row{Amount: "abc", AccountingDate: "2025-01-01"}},
		{"empty amount", Row{Amount: "", AccountingDate: "2025-01-01"}},
		{"missing date", Row{Amount: "1", AccountingDate: ""}},
		{"bad date", Row{Amount: "1", AccountingDate: "soon"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize([]Row{{Amount: "1", AccountingDate: "2025-01-01"}, tt.row})
			if !errors.Is(err, core.ErrMalformedLedgerEntry) {
				t.Fatalf("expected ErrMalformedLedgerEntry, got %v", err)
			}
		})
	}
}

func TestRead(t *testing.T) {
	asOf := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	from, to := YearToDate(asOf)

	r := &fakeReader{rows: []Row{{Amount: "10", AccountingDate: "2025-03-01"}}}
	got, err := Read(context.Background(), r, from, to)
	if err != nil || len(got) != 1 {
		t.Fatalf("Read() = %v, %v", got, err)
	}
	if !r.from.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("from = %v", r.from)
	}
	if r.to.Day() != 14 || r.to.Month() != time.March {
		t.Errorf("to = %v", r.to)
	}

	failing := &fakeReader{err: errors.New("connection reset")}
	if _, err := Read(context.Background(), failing, from, to); !errors.Is(err, core.ErrLedgerQueryFailed) {
		t.Fatalf("expected ErrLedgerQueryFailed, got %v", err)
	}
}

func TestInWindow(t *testing.T) {
	from, to := YearToDate(time.Date(2025, 6, 30, 18, 0, 0, 0, time.UTC))
	cases := []struct {
		d    core.Date
		want bool
	}{
		{core.NewDate(2025, 1, 1), true},
		{core.NewDate(2025, 6, 30), true},
		{core.NewDate(2025, 7, 1), false},
		{core.NewDate(2024, 12, 31), false},
	}
	for _, c := range cases {
		if got := InWindow(c.d, from, to); got != c.want {
			t.Errorf("InWindow(%v) = %v, want %v", c.d, got, c.want)
		}
	}
}
