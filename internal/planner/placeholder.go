package planner

import (
	"time"

	"github.com/shopspring/decimal"

	"planner/internal/core"
)

// Placeholder totals shown when no forecast has ever been available.
var (
	PlaceholderTotalIncome  = decimal.NewFromInt(8000)
	PlaceholderTotalExpense = decimal.NewFromInt(7000)
)

// Seasonal offsets keep the placeholder chart from drawing a flat line.
var (
	placeholderIncome  = []int64{1400, 1300, 1350, 1450}
	placeholderExpense = []int64{1150, 1200, 1100, 1250}
)

// PlaceholderSeries builds the deterministic synthetic forecast used in
// degraded mode. It covers the transition month of asOf and the
// monthsAhead months after it.
func PlaceholderSeries(asOf time.Time, monthsAhead int) core.ForecastSeries {
	if monthsAhead < 0 {
		monthsAhead = 0
	}
	start := core.MonthKeyOf(asOf)
	points := make([]core.ForecastPoint, 0, monthsAhead+1)
	for i := 0; i <= monthsAhead; i++ {
		m := start.AddMonths(i)
		k := int(m.Month-1) % len(placeholderIncome)
		points = append(points, core.ForecastPoint{
			Month:   m,
			Income:  decimal.NewFromInt(placeholderIncome[k]),
			Expense: decimal.NewFromInt(placeholderExpense[k]),
		})
	}
	return core.ForecastSeries{
		Points:       points,
		TotalIncome:  PlaceholderTotalIncome,
		TotalExpense: PlaceholderTotalExpense,
	}
}
