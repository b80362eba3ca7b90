package planner

import (
	"slices"
	"time"

	"planner/internal/core"
)

// Summarize folds actual totals and the forecast into the planner's
// scalar roll-ups.
//
// Cumulative actuals cover the months up to the transition month of
// asOf. Forecast figures are the collaborator's own totals, not re-summed
// from the timeline, so the continuity anchor is never counted twice.
// The monthly flow table lists actual months up to the transition and
// forecast months after it. The timeline only contributes its span.
func Summarize(timeline []core.ReconciledPoint, actualsRaw []core.MonthlyTotal, forecast core.ForecastSeries, asOf time.Time) core.Summary {
	transition := core.MonthKeyOf(asOf)
	s := core.Summary{
		ForecastIncome:  forecast.TotalIncome,
		ForecastExpense: forecast.TotalExpense,
	}

	for _, a := range actualsRaw {
		if a.Month.After(transition) {
			continue
		}
		s.CumulativeActualIncome = s.CumulativeActualIncome.Add(a.Income)
		s.CumulativeActualExpense = s.CumulativeActualExpense.Add(a.Expense)
		s.Monthly = append(s.Monthly, core.MonthlyFlow{Month: a.Month, Income: a.Income, Expense: a.Expense})
	}
	for _, p := range forecast.Points {
		if !p.Month.After(transition) {
			continue
		}
		s.Monthly = append(s.Monthly, core.MonthlyFlow{Month: p.Month, Income: p.Income, Expense: p.Expense, Forecast: true})
	}
	slices.SortStableFunc(s.Monthly, func(a, b core.MonthlyFlow) int { return a.Month.Compare(b.Month) })

	s.TotalIncome = s.CumulativeActualIncome.Add(s.ForecastIncome)
	s.TotalExpense = s.CumulativeActualExpense.Add(s.ForecastExpense)
	s.EstimatedBalance = s.TotalIncome.Sub(s.TotalExpense)

	if len(timeline) > 0 {
		s.FirstMonth = timeline[0].Month
		s.LastMonth = timeline[len(timeline)-1].Month
	}
	return s
}
