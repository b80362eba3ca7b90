package forecast

import (
	"fmt"
	"slices"

	"github.com/shopspring/decimal"

	"planner/internal/core"
)

// response is the collaborator's wire schema.
type response struct {
	Dates    []string `json:"dates"`
	Forecast *struct {
		Income  []float64 `json:"income"`
		Expense []float64 `json:"expense"`
	} `json:"forecast"`
	Categories *struct {
		Expense map[string][]float64 `json:"expense"`
	} `json:"categories"`
	TotalIncome  *float64  `json:"total_income"`
	TotalExpense *float64  `json:"total_expense"`
	MinForecast  []float64 `json:"min_forecast"`
	MaxForecast  []float64 `json:"max_forecast"`
	Balance      *float64  `json:"balance"`
}

func (r response) toSeries() (core.ForecastSeries, error) {
	if r.Forecast == nil {
		return core.ForecastSeries{}, fmt.Errorf("schema: missing forecast")
	}
	n := len(r.Dates)
	if len(r.Forecast.Income) != n || len(r.Forecast.Expense) != n {
		return core.ForecastSeries{}, fmt.Errorf("schema: %d dates but %d income and %d expense values",
			n, len(r.Forecast.Income), len(r.Forecast.Expense))
	}
	if r.TotalIncome == nil || r.TotalExpense == nil {
		return core.ForecastSeries{}, fmt.Errorf("schema: missing totals")
	}

	byMonth := make(map[core.MonthKey]*core.ForecastPoint, n)
	for i, d := range r.Dates {
		m, err := core.ParseMonthKey(d)
		if err != nil {
			return core.ForecastSeries{}, fmt.Errorf("schema: dates[%d]: %v", i, err)
		}
		p, ok := byMonth[m]
		if !ok {
			p = &core.ForecastPoint{Month: m}
			byMonth[m] = p
		}
		p.Income = p.Income.Add(decimal.NewFromFloat(r.Forecast.Income[i]))
		p.Expense = p.Expense.Add(decimal.NewFromFloat(r.Forecast.Expense[i]))
	}
	points := make([]core.ForecastPoint, 0, len(byMonth))
	for _, p := range byMonth {
		points = append(points, *p)
	}
	slices.SortFunc(points, func(a, b core.ForecastPoint) int { return a.Month.Compare(b.Month) })

	series := core.ForecastSeries{
		Points:       points,
		TotalIncome:  decimal.NewFromFloat(*r.TotalIncome),
		TotalExpense: decimal.NewFromFloat(*r.TotalExpense),
		MinForecast:  decimals(r.MinForecast),
		MaxForecast:  decimals(r.MaxForecast),
	}
	if r.Balance != nil {
		b := decimal.NewFromFloat(*r.Balance)
		series.Balance = &b
	}
	if r.Categories != nil && len(r.Categories.Expense) > 0 {
		series.CategoryBreakdown = make(map[string][]decimal.Decimal, len(r.Categories.Expense))
		for cat, values := range r.Categories.Expense {
			if len(values) != n {
				return core.ForecastSeries{}, fmt.Errorf("schema: category %q has %d values for %d dates", cat, len(values), n)
			}
			series.CategoryBreakdown[cat] = decimals(values)
		}
	}
	return series, nil
}

func decimals(in []float64) []decimal.Decimal {
	if len(in) == 0 {
		return nil
	}
	out := make([]decimal.Decimal, len(in))
	for i, v := range in {
		out[i] = decimal.NewFromFloat(v)
	}
	return out
}
