package planner

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"planner/internal/core"
)

type reconcileConfig struct {
	labeler    MonthLabeler
	historical bool
}

// ReconcileOption customizes Reconcile.
type ReconcileOption func(*reconcileConfig)

// WithLabeler sets the labeler used for Label and DisplayLabel.
func WithLabeler(l MonthLabeler) ReconcileOption {
	return func(c *reconcileConfig) {
		if l != nil {
			c.labeler = l
		}
	}
}

// WithHistoricalForecast also fills predicted for months before the last
// actual month when the forecast covers them, so the two series overlap.
func WithHistoricalForecast() ReconcileOption {
	return func(c *reconcileConfig) { c.historical = true }
}

// Reconcile merges monthly actuals and a forecast series into one
// timeline ordered by month.
//
// The transition month is the month of asOf. The last actual month L is
// the latest month with actual data not after the transition. Months up
// to L carry their actual balance; months after L carry the forecast
// balance; L itself carries its actual balance in both series so the
// chart lines join. Missing data stays nil and months where both series
// would be nil are left out. With no actuals up to the transition every
// forecast month is shown as predicted only.
func Reconcile(actuals []core.MonthlyTotal, forecast core.ForecastSeries, asOf time.Time, opts ...ReconcileOption) []core.ReconciledPoint {
	cfg := reconcileConfig{labeler: French}
	for _, opt := range opts {
		opt(&cfg)
	}

	actual := make(map[core.MonthKey]decimal.Decimal, len(actuals))
	for _, a := range actuals {
		actual[a.Month] = actual[a.Month].Add(a.Balance())
	}
	predicted := make(map[core.MonthKey]decimal.Decimal, len(forecast.Points))
	for _, p := range forecast.Points {
		predicted[p.Month] = predicted[p.Month].Add(p.Income.Sub(p.Expense))
	}

	months := make([]core.MonthKey, 0, len(actual)+len(predicted))
	for m := range actual {
		months = append(months, m)
	}
	for m := range predicted {
		if _, dup := actual[m]; !dup {
			months = append(months, m)
		}
	}
	slices.SortFunc(months, core.MonthKey.Compare)

	transition := core.MonthKeyOf(asOf)
	var last core.MonthKey
	hasActual := false
	for _, m := range months {
		if _, ok := actual[m]; ok && !m.After(transition) {
			last, hasActual = m, true
		}
	}

	out := make([]core.ReconciledPoint, 0, len(months))
	for _, m := range months {
		p := core.ReconciledPoint{
			Month:        m,
			Label:        cfg.labeler.Short(m),
			DisplayLabel: cfg.labeler.Full(m),
		}
		a, hasA := actual[m]
		f, hasF := predicted[m]

		if hasActual && !m.After(last) && hasA {
			p.Actual = ptr(a)
		}
		switch {
		case hasActual && m == last:
			p.Predicted = ptr(a)
		case !hasActual || m.After(last):
			if hasF {
				p.Predicted = ptr(f)
			}
		case cfg.historical && hasF:
			p.Predicted = ptr(f)
		}

		if p.Actual == nil && p.Predicted == nil {
			continue
		}
		out = append(out, p)
	}
	return out
}

func ptr(d decimal.Decimal) *decimal.Decimal {
	return &d
}
