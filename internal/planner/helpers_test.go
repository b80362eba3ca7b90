package planner

import (
	"time"

	"github.com/shopspring/decimal"

	"planner/internal/core"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func month(y int, m time.Month) core.MonthKey { return core.MonthKey{Year: y, Month: m} }

func strPtr(s string) *string { return &s }

func total(m core.MonthKey, income, expense string) core.MonthlyTotal {
	return core.MonthlyTotal{Month: m, Income: dec(income), Expense: dec(expense)}
}

func point(m core.MonthKey, income, expense string) core.ForecastPoint {
	return core.ForecastPoint{Month: m, Income: dec(income), Expense: dec(expense)}
}

func equalPtr(got *decimal.Decimal, want string) bool {
	if want == "" {
		return got == nil
	}
	return got != nil && got.Equal(dec(want))
}

func show(d *decimal.Decimal) string {
	if d == nil {
		return "null"
	}
	return d.String()
}
