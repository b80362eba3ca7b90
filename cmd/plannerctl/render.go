package main

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"planner/internal/core"
)

const noData = "-"

// TimelineMarkdown renders the reconciled timeline as a Markdown table.
func TimelineMarkdown(plan core.Plan) string {
	var b strings.Builder
	writeHeader(&b, "Timeline", plan)

	b.WriteString("| Month | Actual | Predicted |\n")
	b.WriteString("|:------|-------:|----------:|\n")
	for _, p := range plan.Timeline {
		fmt.Fprintf(&b, "| %s | %s | %s |\n", p.DisplayLabel, optionalEUR(p.Actual), optionalEUR(p.Predicted))
	}
	return b.String()
}

// SummaryMarkdown renders the summary totals and the monthly flows.
func SummaryMarkdown(plan core.Plan) string {
	s := plan.Summary
	var b strings.Builder
	writeHeader(&b, "Summary", plan)

	b.WriteString("|  | Income | Expense |\n")
	b.WriteString("|:--|------:|--------:|\n")
	fmt.Fprintf(&b, "| Actual | %s | %s |\n", core.FormatEUR(s.CumulativeActualIncome), core.FormatEUR(s.CumulativeActualExpense))
	fmt.Fprintf(&b, "| Forecast | %s | %s |\n", core.FormatEUR(s.ForecastIncome), core.FormatEUR(s.ForecastExpense))
	fmt.Fprintf(&b, "| **Total** | **%s** | **%s** |\n", core.FormatEUR(s.TotalIncome), core.FormatEUR(s.TotalExpense))
	fmt.Fprintf(&b, "\n**Estimated balance:** %s\n", core.FormatEUR(s.EstimatedBalance))

	if len(s.Monthly) == 0 {
		return b.String()
	}
	fmt.Fprintf(&b, "\n## %s to %s\n\n", s.FirstMonth, s.LastMonth)
	b.WriteString("| Month | Income | Expense | Kind |\n")
	b.WriteString("|:------|-------:|--------:|:-----|\n")
	for _, m := range s.Monthly {
		kind := "actual"
		if m.Forecast {
			kind = "forecast"
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", m.Month, core.FormatEUR(m.Income), core.FormatEUR(m.Expense), kind)
	}
	return b.String()
}

// CategoriesMarkdown renders the subcategory allocation rows.
func CategoriesMarkdown(plan core.Plan) string {
	var b strings.Builder
	writeHeader(&b, "Categories", plan)

	if len(plan.Categories) == 0 {
		b.WriteString("No subcategory spending to allocate.\n")
		return b.String()
	}
	b.WriteString("| Subcategory | Category | Spent | Forecast | Remaining | Progress |\n")
	b.WriteString("|:------------|:---------|------:|---------:|----------:|---------:|\n")
	for _, r := range plan.Categories {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s%% |\n",
			escapeCell(r.Subcategory),
			escapeCell(r.Category),
			core.FormatEUR(r.ActualAmount),
			core.FormatEUR(r.ForecastAmount),
			core.FormatEUR(r.Remaining()),
			r.Progress().Round(0).String())
	}
	return b.String()
}

func writeHeader(b *strings.Builder, title string, plan core.Plan) {
	fmt.Fprintf(b, "# %s\n\n", title)
	fmt.Fprintf(b, "As of %s, %d months ahead.\n\n", plan.AsOf.Format("2006-01-02"), plan.MonthsAhead)
	if plan.Degraded {
		fmt.Fprintf(b, "> Forecast unavailable (%s), showing %s data.\n\n", plan.DegradedReason, strings.ReplaceAll(string(plan.Source), "_", " "))
	}
}

func optionalEUR(d *decimal.Decimal) string {
	if d == nil {
		return noData
	}
	return core.FormatEUR(*d)
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
