package sheets

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"planner/internal/core"
	"planner/internal/ledger"
)

type columns struct {
	date, amount, kind, category, subcategory int
}

// Column order of sheets without a header row.
var defaultColumns = columns{date: 0, amount: 2, kind: 3, category: 4, subcategory: 5}

var incomeKinds = map[string]bool{
	"income":  true,
	"revenu":  true,
	"revenus": true,
	"entrata": true,
	"in":      true,
}

// parseTransactions converts a values matrix (as returned by the Sheets
// API) into ledger rows dated in [from, to]. A first row naming a Date
// column is treated as a header and locates the columns. Blank rows are
// skipped; rows with an unreadable date are kept so normalization
// rejects them.
func parseTransactions(values [][]interface{}, from, to time.Time) []ledger.Row {
	if len(values) == 0 {
		return nil
	}
	cols := defaultColumns
	start := 0
	if header := toStrings(values[0]); indexOf(header, "Date") >= 0 {
		cols = columns{
			date:        indexOf(header, "Date"),
			amount:      indexOf(header, "Amount"),
			kind:        indexOf(header, "Type"),
			category:    indexOf(header, "Category"),
			subcategory: indexOf(header, "Subcategory"),
		}
		start = 1
	}

	var out []ledger.Row
	for _, raw := range values[start:] {
		row := toStrings(raw)
		if isBlank(row) {
			continue
		}
		date := safeGet(row, cols.date)
		if d, err := core.ParseDate(date); err == nil {
			if !ledger.InWindow(d, from, to) {
				continue
			}
			date = d.String()
		}
		r := ledger.Row{
			Amount:         safeGet(row, cols.amount),
			IsIncome:       incomeKinds[strings.ToLower(safeGet(row, cols.kind))],
			AccountingDate: date,
			Category:       safeGet(row, cols.category),
		}
		if sub := safeGet(row, cols.subcategory); sub != "" {
			r.Subcategory = &sub
		}
		out = append(out, r)
	}
	return out
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		switch n := v.(type) {
		case float64:
			out[i] = strconv.FormatFloat(n, 'f', -1, 64)
		default:
			out[i] = strings.TrimSpace(fmt.Sprint(v))
		}
	}
	return out
}

func isBlank(row []string) bool {
	for _, v := range row {
		if v != "" {
			return false
		}
	}
	return true
}

func indexOf(arr []string, target string) int {
	for i, v := range arr {
		if strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(target)) {
			return i
		}
	}
	return -1
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}
