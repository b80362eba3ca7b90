package core

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestParseDate(t *testing.T) {
	cases := []struct {
		in   string
		want Date
		ok   bool
	}{
		{"2025-03-14", NewDate(2025, 3, 14), true},
		{"2025-03-14T10:30:00Z", NewDate(2025, 3, 14), true},
		{"2025-03-14 10:30:00", NewDate(2025, 3, 14), true},
		{"14/03/2025", NewDate(2025, 3, 14), true},
		{"", Date{}, false},
		{"yesterday", Date{}, false},
		{"2025-13-01", Date{}, false},
	}
	for _, tc := range cases {
		got, err := ParseDate(tc.in)
		if !tc.ok {
			if !errors.Is(err, ErrInvalidDate) {
				t.Fatalf("%q expected ErrInvalidDate, got %v", tc.in, err)
			}
			continue
		}
		if err != nil || !got.Equal(tc.want.Time) {
			t.Fatalf("%q expected %v, got %v (err=%v)", tc.in, tc.want, got, err)
		}
	}
}

func TestLedgerEntryValidate(t *testing.T) {
	if err := (LedgerEntry{AccountingDate: NewDate(2025, 2, 1)}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (LedgerEntry{}).Validate(); err == nil {
		t.Fatalf("expected error for zero accounting date")
	}
}

func TestCategoryForecastRowProgress(t *testing.T) {
	d := decimal.RequireFromString
	cases := []struct {
		name      string
		actual    string
		forecast  string
		progress  string
		remaining string
	}{
		{"half spent", "50", "100", "50", "50"},
		{"overspent clamps", "150", "100", "100", "0"},
		{"no forecast", "20", "0", "0", "0"},
		{"exactly spent", "100", "100", "100", "0"},
		{"nothing spent", "0", "80", "0", "80"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := CategoryForecastRow{ActualAmount: d(tc.actual), ForecastAmount: d(tc.forecast)}
			if got := r.Progress(); !got.Equal(d(tc.progress)) {
				t.Errorf("Progress() = %s, want %s", got, tc.progress)
			}
			if got := r.Remaining(); !got.Equal(d(tc.remaining)) {
				t.Errorf("Remaining() = %s, want %s", got, tc.remaining)
			}
		})
	}
}

func TestReconciledPointEncodesMissingAsNull(t *testing.T) {
	v := decimal.NewFromInt(300)
	p := ReconciledPoint{Month: MonthKey{2025, time.February}, Actual: &v}
	b, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if raw["predicted"] != nil {
		t.Fatalf("expected predicted to be null, got %v", raw["predicted"])
	}
	if raw["month"] != "2025-02" {
		t.Fatalf("expected month 2025-02, got %v", raw["month"])
	}
}
