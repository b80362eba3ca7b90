package planner

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"planner/internal/core"
)

const (
	// DefaultCategoryLimit is how many rows the planner view shows.
	DefaultCategoryLimit = 15
	// UnallocatedSubcategory names the row that carries a category
	// forecast nobody spent against yet.
	UnallocatedSubcategory = "(non réparti)"
	otherCategory          = "Autre"
)

// SubcategoryActual is the month's spending for one subcategory.
type SubcategoryActual struct {
	Category     string
	ActualAmount decimal.Decimal
}

type allocateConfig struct {
	limit       int
	unallocated bool
}

// AllocateOption customizes Allocate.
type AllocateOption func(*allocateConfig)

// WithLimit keeps the n rows with the highest actual spend. n <= 0 keeps all rows.
func WithLimit(n int) AllocateOption {
	return func(c *allocateConfig) { c.limit = n }
}

// WithUnallocatedRows emits one row per forecast category that has no
// observed subcategory, so its forecast does not vanish from the view.
func WithUnallocatedRows() AllocateOption {
	return func(c *allocateConfig) { c.unallocated = true }
}

// Allocate distributes each category forecast F over the category's
// subcategories.
//
// When the category has positive spending, a subcategory with actual a
// out of a category total T gets a + F*a/T, so the rows of a category sum
// to T + F. When nothing was spent yet F is split evenly. Category names
// match case-insensitively. Subcategories of categories without a
// forecast keep a zero forecast. Rows are sorted by actual descending,
// ties by subcategory name.
func Allocate(actuals map[string]SubcategoryActual, forecastByCategory map[string]decimal.Decimal, opts ...AllocateOption) []core.CategoryForecastRow {
	cfg := allocateConfig{limit: DefaultCategoryLimit}
	for _, opt := range opts {
		opt(&cfg)
	}

	rows := make(map[string]*core.CategoryForecastRow, len(actuals))
	members := make(map[string][]string)
	for _, sub := range sortedKeys(actuals) {
		a := actuals[sub]
		rows[sub] = &core.CategoryForecastRow{
			Subcategory:  sub,
			Category:     a.Category,
			ActualAmount: a.ActualAmount,
		}
		key := strings.ToLower(a.Category)
		members[key] = append(members[key], sub)
	}

	// Fold forecast keys differing only by case into one budget.
	budgets := make(map[string]decimal.Decimal)
	names := make(map[string]string)
	for _, cat := range sortedKeys(forecastByCategory) {
		key := strings.ToLower(cat)
		budgets[key] = budgets[key].Add(forecastByCategory[cat])
		if _, ok := names[key]; !ok {
			names[key] = cat
		}
	}

	var extra []core.CategoryForecastRow
	for _, key := range sortedKeys(budgets) {
		f := budgets[key]
		subs := members[key]
		if len(subs) == 0 {
			if cfg.unallocated {
				extra = append(extra, core.CategoryForecastRow{
					Subcategory:    UnallocatedSubcategory,
					Category:       names[key],
					ForecastAmount: f,
				})
			}
			continue
		}

		total := decimal.Zero
		for _, s := range subs {
			if a := rows[s].ActualAmount; a.IsPositive() {
				total = total.Add(a)
			}
		}
		if total.IsPositive() {
			for _, s := range subs {
				r := rows[s]
				if !r.ActualAmount.IsPositive() {
					continue
				}
				r.ForecastAmount = r.ActualAmount.Add(f.Mul(r.ActualAmount).Div(total))
			}
			continue
		}
		share := f.Div(decimal.NewFromInt(int64(len(subs))))
		for _, s := range subs {
			rows[s].ForecastAmount = share
		}
	}

	out := make([]core.CategoryForecastRow, 0, len(rows)+len(extra))
	for _, r := range rows {
		out = append(out, *r)
	}
	out = append(out, extra...)
	slices.SortFunc(out, func(a, b core.CategoryForecastRow) int {
		if c := b.ActualAmount.Cmp(a.ActualAmount); c != 0 {
			return c
		}
		if c := strings.Compare(a.Subcategory, b.Subcategory); c != 0 {
			return c
		}
		return strings.Compare(a.Category, b.Category)
	})
	if cfg.limit > 0 && len(out) > cfg.limit {
		out = out[:cfg.limit]
	}
	return out
}

// ActualsBySubcategory sums the expense magnitudes of entries per
// subcategory. Income and entries without a subcategory are skipped; an
// empty category becomes "Autre". Callers pass the entries of the month
// being planned.
func ActualsBySubcategory(entries []core.LedgerEntry) map[string]SubcategoryActual {
	out := make(map[string]SubcategoryActual)
	for _, e := range entries {
		if e.IsIncome || e.Subcategory == nil || strings.TrimSpace(*e.Subcategory) == "" {
			continue
		}
		sub := strings.TrimSpace(*e.Subcategory)
		cur, ok := out[sub]
		if !ok {
			cur.Category = strings.TrimSpace(e.Category)
			if cur.Category == "" {
				cur.Category = otherCategory
			}
		}
		cur.ActualAmount = cur.ActualAmount.Add(e.Amount.Abs())
		out[sub] = cur
	}
	return out
}

// CategoryTotals sums each category's forecast breakdown over the horizon.
func CategoryTotals(series core.ForecastSeries) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(series.CategoryBreakdown))
	for cat, values := range series.CategoryBreakdown {
		total := decimal.Zero
		for _, v := range values {
			total = total.Add(v)
		}
		out[cat] = total
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
