package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// PlanSource tells where the forecast half of a plan came from.
type PlanSource string

const (
	SourceLive          PlanSource = "live"
	SourceLastKnownGood PlanSource = "last_known_good"
	SourcePlaceholder   PlanSource = "placeholder"
)

type (
	ForecastPoint struct {
		Month   MonthKey        `json:"month"`
		Income  decimal.Decimal `json:"income"`
		Expense decimal.Decimal `json:"expense"`
	}

	// ForecastSeries is the validated response of the forecast collaborator.
	// Points are strictly increasing by month.
	ForecastSeries struct {
		Points            []ForecastPoint              `json:"points"`
		TotalIncome       decimal.Decimal              `json:"total_income"`
		TotalExpense      decimal.Decimal              `json:"total_expense"`
		CategoryBreakdown map[string][]decimal.Decimal `json:"category_breakdown,omitempty"`
		MinForecast       []decimal.Decimal            `json:"min_forecast,omitempty"`
		MaxForecast       []decimal.Decimal            `json:"max_forecast,omitempty"`
		Balance           *decimal.Decimal             `json:"balance,omitempty"`
	}

	// ReconciledPoint is one month of the chart-ready timeline. Nil
	// values mean "no data" and are encoded as JSON null, never as zero.
	ReconciledPoint struct {
		Month        MonthKey         `json:"month"`
		Actual       *decimal.Decimal `json:"actual"`
		Predicted    *decimal.Decimal `json:"predicted"`
		Label        string           `json:"label"`
		DisplayLabel string           `json:"display_label"`
	}

	CategoryForecastRow struct {
		Subcategory    string          `json:"subcategory"`
		Category       string          `json:"category"`
		ActualAmount   decimal.Decimal `json:"actual_amount"`
		ForecastAmount decimal.Decimal `json:"forecast_amount"`
	}

	MonthlyFlow struct {
		Month    MonthKey        `json:"month"`
		Income   decimal.Decimal `json:"income"`
		Expense  decimal.Decimal `json:"expense"`
		Forecast bool            `json:"forecast"`
	}

	Summary struct {
		CumulativeActualIncome  decimal.Decimal `json:"cumulative_actual_income"`
		CumulativeActualExpense decimal.Decimal `json:"cumulative_actual_expense"`
		ForecastIncome          decimal.Decimal `json:"forecast_income"`
		ForecastExpense         decimal.Decimal `json:"forecast_expense"`
		TotalIncome             decimal.Decimal `json:"total_income"`
		TotalExpense            decimal.Decimal `json:"total_expense"`
		EstimatedBalance        decimal.Decimal `json:"estimated_balance"`
		FirstMonth              MonthKey        `json:"first_month"`
		LastMonth               MonthKey        `json:"last_month"`
		Monthly                 []MonthlyFlow   `json:"monthly"`
	}

	// Plan is everything the planner view renders for one horizon.
	Plan struct {
		AsOf           time.Time             `json:"as_of"`
		MonthsAhead    int                   `json:"months_ahead"`
		Timeline       []ReconciledPoint     `json:"timeline"`
		Summary        Summary               `json:"summary"`
		Categories     []CategoryForecastRow `json:"categories"`
		Degraded       bool                  `json:"degraded"`
		DegradedReason string                `json:"degraded_reason,omitempty"`
		Source         PlanSource            `json:"source"`
		Token          uint64                `json:"token"`
		Stale          bool                  `json:"stale,omitempty"`

		// Forecast is the series the plan was computed from. It is
		// persisted with snapshots, not served.
		Forecast ForecastSeries `json:"-"`
	}
)

// Remaining is the forecast left to spend, floored at zero once the
// subcategory is overspent.
func (r CategoryForecastRow) Remaining() decimal.Decimal {
	left := r.ForecastAmount.Sub(r.ActualAmount)
	if left.IsNegative() {
		return decimal.Zero
	}
	return left
}

// Progress is actual/forecast as a percentage clamped to [0, 100].
// A non-positive forecast yields 0.
func (r CategoryForecastRow) Progress() decimal.Decimal {
	if !r.ForecastAmount.IsPositive() {
		return decimal.Zero
	}
	p := r.ActualAmount.Div(r.ForecastAmount).Mul(decimal.NewFromInt(100))
	switch {
	case p.IsNegative():
		return decimal.Zero
	case p.GreaterThan(decimal.NewFromInt(100)):
		return decimal.NewFromInt(100)
	}
	return p
}

// Months lists the forecast months in order.
func (s ForecastSeries) Months() []MonthKey {
	out := make([]MonthKey, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Month
	}
	return out
}
