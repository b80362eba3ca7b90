// Package planner turns ledger entries and a forecast series into the
// data behind the budget planner view: a reconciled actual/predicted
// timeline, per-subcategory spending targets and scalar roll-ups.
//
// Everything here is pure. Callers own I/O and the clock.
package planner

import (
	"fmt"
	"slices"

	"planner/internal/core"
)

// Aggregate groups ledger entries by calendar month. Income entries add
// their amount to income; expense entries add their magnitude to
// expense. Months without entries are absent from the result, which is
// sorted ascending.
func Aggregate(entries []core.LedgerEntry) ([]core.MonthlyTotal, error) {
	byMonth := make(map[core.MonthKey]*core.MonthlyTotal)
	for i, e := range entries {
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", core.ErrMalformedLedgerEntry, i, err)
		}
		key := e.Month()
		t, ok := byMonth[key]
		if !ok {
			t = &core.MonthlyTotal{Month: key}
			byMonth[key] = t
		}
		if e.IsIncome {
			t.Income = t.Income.Add(e.Amount)
		} else {
			t.Expense = t.Expense.Add(e.Amount.Abs())
		}
	}

	out := make([]core.MonthlyTotal, 0, len(byMonth))
	for _, t := range byMonth {
		out = append(out, *t)
	}
	slices.SortFunc(out, func(a, b core.MonthlyTotal) int { return a.Month.Compare(b.Month) })
	return out, nil
}
