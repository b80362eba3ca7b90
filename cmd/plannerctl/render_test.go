package main

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"planner/internal/core"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func samplePlan() core.Plan {
	return core.Plan{
		AsOf:        time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC),
		MonthsAhead: 2,
		Timeline: []core.ReconciledPoint{
			{Month: core.MonthKey{Year: 2025, Month: 2}, Actual: decPtr("200"), DisplayLabel: "Fév 2025"},
			{Month: core.MonthKey{Year: 2025, Month: 3}, Actual: decPtr("150"), Predicted: decPtr("150"), DisplayLabel: "Mar 2025"},
			{Month: core.MonthKey{Year: 2025, Month: 4}, Predicted: decPtr("400"), DisplayLabel: "Avr 2025"},
		},
		Summary: core.Summary{
			CumulativeActualIncome:  dec("1000"),
			CumulativeActualExpense: dec("650"),
			ForecastIncome:          dec("800"),
			ForecastExpense:         dec("400"),
			TotalIncome:             dec("1800"),
			TotalExpense:            dec("1050"),
			EstimatedBalance:        dec("750"),
			FirstMonth:              core.MonthKey{Year: 2025, Month: 2},
			LastMonth:               core.MonthKey{Year: 2025, Month: 4},
			Monthly: []core.MonthlyFlow{
				{Month: core.MonthKey{Year: 2025, Month: 2}, Income: dec("1000"), Expense: dec("650")},
				{Month: core.MonthKey{Year: 2025, Month: 4}, Income: dec("800"), Expense: dec("400"), Forecast: true},
			},
		},
		Categories: []core.CategoryForecastRow{
			{Subcategory: "Courses", Category: "Alimentation", ActualAmount: dec("120"), ForecastAmount: dec("480")},
			{Subcategory: "Cinéma | Théâtre", Category: "Loisirs", ActualAmount: dec("90"), ForecastAmount: dec("60")},
		},
		Source: core.SourceLive,
	}
}

func TestTimelineMarkdown(t *testing.T) {
	md := TimelineMarkdown(samplePlan())

	wantRows := []string{
		"| Fév 2025 | " + core.FormatEUR(dec("200")) + " | - |",
		"| Mar 2025 | " + core.FormatEUR(dec("150")) + " | " + core.FormatEUR(dec("150")) + " |",
		"| Avr 2025 | - | " + core.FormatEUR(dec("400")) + " |",
	}
	for _, row := range wantRows {
		if !strings.Contains(md, row) {
			t.Errorf("missing row %q in:\n%s", row, md)
		}
	}
	if !strings.Contains(md, "As of 2025-03-15, 2 months ahead.") {
		t.Errorf("missing header in:\n%s", md)
	}
}

func TestSummaryMarkdown(t *testing.T) {
	md := SummaryMarkdown(samplePlan())

	for _, want := range []string{
		"**Estimated balance:** " + core.FormatEUR(dec("750")),
		"## 2025-02 to 2025-04",
		"| 2025-04 | " + core.FormatEUR(dec("800")) + " | " + core.FormatEUR(dec("400")) + " | forecast |",
		"| 2025-02 | " + core.FormatEUR(dec("1000")) + " | " + core.FormatEUR(dec("650")) + " | actual |",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("missing %q in:\n%s", want, md)
		}
	}

	plan := samplePlan()
	plan.Summary.Monthly = nil
	if strings.Contains(SummaryMarkdown(plan), "## ") {
		t.Error("expected no monthly section without flows")
	}
}

func TestCategoriesMarkdown(t *testing.T) {
	t.Run("rows", func(t *testing.T) {
		md := CategoriesMarkdown(samplePlan())
		if !strings.Contains(md, "| Courses | Alimentation | "+core.FormatEUR(dec("120"))+" | "+core.FormatEUR(dec("480"))+" | "+core.FormatEUR(dec("360"))+" | 25% |") {
			t.Errorf("missing Courses row in:\n%s", md)
		}
		if !strings.Contains(md, `| Cinéma \| Théâtre | Loisirs |`) {
			t.Errorf("expected escaped pipe in:\n%s", md)
		}
		overspent := "| " + core.FormatEUR(dec("90")) + " | " + core.FormatEUR(dec("60")) + " | " + core.FormatEUR(decimal.Zero) + " | 100% |"
		if !strings.Contains(md, overspent) {
			t.Errorf("expected overspent row with zero remaining %q in:\n%s", overspent, md)
		}
		if !strings.Contains(md, "| 100% |") {
			t.Errorf("expected overspent progress clamped to 100 in:\n%s", md)
		}
	})

	t.Run("empty", func(t *testing.T) {
		plan := samplePlan()
		plan.Categories = nil
		if md := CategoriesMarkdown(plan); !strings.Contains(md, "No subcategory spending") {
			t.Errorf("expected empty notice in:\n%s", md)
		}
	})
}

func TestDegradedNotice(t *testing.T) {
	plan := samplePlan()
	plan.Degraded = true
	plan.DegradedReason = "forecast service unavailable"
	plan.Source = core.SourceLastKnownGood

	md := TimelineMarkdown(plan)
	if !strings.Contains(md, "> Forecast unavailable (forecast service unavailable), showing last known good data.") {
		t.Errorf("missing degraded notice in:\n%s", md)
	}
	if strings.Contains(TimelineMarkdown(samplePlan()), "Forecast unavailable") {
		t.Error("unexpected degraded notice for a live plan")
	}
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range Commands {
		names[c.Name()] = true
		if c.Synopsis() == "" || c.Usage() == "" {
			t.Errorf("command %q lacks help text", c.Name())
		}
	}
	for _, want := range []string{"timeline", "summary", "categories"} {
		if !names[want] {
			t.Errorf("command %q not registered", want)
		}
	}
}
