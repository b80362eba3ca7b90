package planner

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"

	"planner/internal/core"
)

func findRow(rows []core.CategoryForecastRow, sub string) (core.CategoryForecastRow, bool) {
	for _, r := range rows {
		if r.Subcategory == sub {
			return r, true
		}
	}
	return core.CategoryForecastRow{}, false
}

func TestAllocate_Proportional(t *testing.T) {
	actuals := map[string]SubcategoryActual{
		"Groceries":   {Category: "Food", ActualAmount: dec("320")},
		"Restaurants": {Category: "Food", ActualAmount: dec("80")},
	}
	rows := Allocate(actuals, map[string]decimal.Decimal{"Food": dec("200")})

	want := map[string]string{"Groceries": "480", "Restaurants": "120"}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Subcategory != "Groceries" {
		t.Errorf("expected Groceries first, got %s", rows[0].Subcategory)
	}
	for sub, w := range want {
		r, ok := findRow(rows, sub)
		if !ok {
			t.Fatalf("missing row %s", sub)
		}
		if !r.ForecastAmount.Equal(dec(w)) {
			t.Errorf("%s forecast = %s, want %s", sub, r.ForecastAmount, w)
		}
	}
}

func TestAllocate_Conservation(t *testing.T) {
	actuals := map[string]SubcategoryActual{
		"A": {Category: "Home", ActualAmount: dec("10")},
		"B": {Category: "Home", ActualAmount: dec("20")},
		"C": {Category: "Home", ActualAmount: dec("70.33")},
	}
	f := dec("333.33")
	rows := Allocate(actuals, map[string]decimal.Decimal{"Home": f})

	sum := decimal.Zero
	for _, r := range rows {
		sum = sum.Add(r.ForecastAmount)
	}
	want := dec("100.33").Add(f)
	if sum.Sub(want).Abs().GreaterThan(dec("0.000001")) {
		t.Fatalf("sum of forecasts = %s, want %s", sum, want)
	}
}

func TestAllocate_EdgeCases(t *testing.T) {
	tests := []struct {
		name     string
		actuals  map[string]SubcategoryActual
		forecast map[string]decimal.Decimal
		opts     []AllocateOption
		want     map[string]string // subcategory -> forecast
	}{
		{
			name: "no spend splits evenly",
			actuals: map[string]SubcategoryActual{
				"Bus":   {Category: "Transport", ActualAmount: dec("0")},
				"Train": {Category: "Transport", ActualAmount: dec("0")},
			},
			forecast: map[string]decimal.Decimal{"Transport": dec("90")},
			want:     map[string]string{"Bus": "45", "Train": "45"},
		},
		{
			name:     "category without subcategories emits nothing",
			actuals:  map[string]SubcategoryActual{},
			forecast: map[string]decimal.Decimal{"Leisure": dec("50")},
			want:     map[string]string{},
		},
		{
			name:     "unallocated row when requested",
			actuals:  map[string]SubcategoryActual{},
			forecast: map[string]decimal.Decimal{"Leisure": dec("50")},
			opts:     []AllocateOption{WithUnallocatedRows()},
			want:     map[string]string{UnallocatedSubcategory: "50"},
		},
		{
			name: "case-insensitive category match",
			actuals: map[string]SubcategoryActual{
				"Rent": {Category: "housing", ActualAmount: dec("100")},
			},
			forecast: map[string]decimal.Decimal{"Housing": dec("100")},
			want:     map[string]string{"Rent": "200"},
		},
		{
			name: "subcategory without category forecast keeps zero",
			actuals: map[string]SubcategoryActual{
				"Cinema": {Category: "Leisure", ActualAmount: dec("30")},
			},
			forecast: map[string]decimal.Decimal{"Food": dec("100")},
			want:     map[string]string{"Cinema": "0"},
		},
		{
			name: "zero-spend sibling gets no share",
			actuals: map[string]SubcategoryActual{
				"Gym":  {Category: "Health", ActualAmount: dec("40")},
				"Yoga": {Category: "Health", ActualAmount: dec("0")},
			},
			forecast: map[string]decimal.Decimal{"Health": dec("60")},
			want:     map[string]string{"Gym": "100", "Yoga": "0"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := Allocate(tt.actuals, tt.forecast, tt.opts...)
			if len(rows) != len(tt.want) {
				t.Fatalf("got %d rows, want %d: %+v", len(rows), len(tt.want), rows)
			}
			for sub, w := range tt.want {
				r, ok := findRow(rows, sub)
				if !ok {
					t.Fatalf("missing row %s", sub)
				}
				if !r.ForecastAmount.Equal(dec(w)) {
					t.Errorf("%s forecast = %s, want %s", sub, r.ForecastAmount, w)
				}
			}
		})
	}
}

func TestAllocate_OrderingAndLimit(t *testing.T) {
	actuals := make(map[string]SubcategoryActual)
	for i := 0; i < 20; i++ {
		actuals[fmt.Sprintf("sub%02d", i)] = SubcategoryActual{Category: "Misc", ActualAmount: decimal.NewFromInt(int64(i % 10))}
	}

	rows := Allocate(actuals, nil)
	if len(rows) != DefaultCategoryLimit {
		t.Fatalf("expected %d rows, got %d", DefaultCategoryLimit, len(rows))
	}
	for i := 1; i < len(rows); i++ {
		prev, cur := rows[i-1], rows[i]
		if prev.ActualAmount.LessThan(cur.ActualAmount) {
			t.Fatalf("rows not sorted by actual: %v before %v", prev.ActualAmount, cur.ActualAmount)
		}
		if prev.ActualAmount.Equal(cur.ActualAmount) && prev.Subcategory > cur.Subcategory {
			t.Fatalf("tie not broken by name: %s before %s", prev.Subcategory, cur.Subcategory)
		}
	}
	if rows[0].Subcategory != "sub09" {
		t.Errorf("expected sub09 first, got %s", rows[0].Subcategory)
	}

	if all := Allocate(actuals, nil, WithLimit(0)); len(all) != 20 {
		t.Errorf("WithLimit(0) returned %d rows, want 20", len(all))
	}
}

func TestActualsBySubcategory(t *testing.T) {
	entries := []core.LedgerEntry{
		{Amount: dec("-30"), Category: "Food", Subcategory: strPtr("Groceries"), AccountingDate: core.NewDate(2025, 2, 1)},
		{Amount: dec("12.5"), Category: "Food", Subcategory: strPtr("Groceries"), AccountingDate: core.NewDate(2025, 2, 3)},
		{Amount: dec("-9"), Category: "", Subcategory: strPtr("Gifts"), AccountingDate: core.NewDate(2025, 2, 4)},
		{Amount: dec("-100"), Category: "Home", AccountingDate: core.NewDate(2025, 2, 5)},
		{Amount: dec("2000"), IsIncome: true, Category: "Salary", Subcategory: strPtr("Main"), AccountingDate: core.NewDate(2025, 2, 6)},
	}

	got := ActualsBySubcategory(entries)
	if len(got) != 2 {
		t.Fatalf("expected 2 subcategories, got %v", got)
	}
	if g := got["Groceries"]; g.Category != "Food" || !g.ActualAmount.Equal(dec("42.5")) {
		t.Errorf("Groceries = %+v", g)
	}
	if g := got["Gifts"]; g.Category != "Autre" || !g.ActualAmount.Equal(dec("9")) {
		t.Errorf("Gifts = %+v", g)
	}
}

func TestCategoryTotals(t *testing.T) {
	series := core.ForecastSeries{CategoryBreakdown: map[string][]decimal.Decimal{
		"Food": {dec("100"), dec("120.5")},
		"Home": {},
	}}
	got := CategoryTotals(series)
	if !got["Food"].Equal(dec("220.5")) {
		t.Errorf("Food = %s, want 220.5", got["Food"])
	}
	if !got["Home"].IsZero() {
		t.Errorf("Home = %s, want 0", got["Home"])
	}
}
