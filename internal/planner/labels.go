package planner

import (
	"fmt"
	"strings"

	"planner/internal/core"
)

// MonthLabeler renders the short axis label and the tooltip label of a month.
type MonthLabeler interface {
	Short(m core.MonthKey) string
	Full(m core.MonthKey) string
}

type tableLabeler struct {
	short [12]string
	full  [12]string
}

func (l tableLabeler) Short(m core.MonthKey) string {
	return l.short[m.Month-1]
}

func (l tableLabeler) Full(m core.MonthKey) string {
	return fmt.Sprintf("%s %d", l.full[m.Month-1], m.Year)
}

var (
	// French is the default labeler of the planner view.
	French MonthLabeler = tableLabeler{
		short: [12]string{"Jan", "Fév", "Mar", "Avr", "Mai", "Jun", "Jul", "Aoû", "Sep", "Oct", "Nov", "Déc"},
		full:  [12]string{"Janvier", "Février", "Mars", "Avril", "Mai", "Juin", "Juillet", "Août", "Septembre", "Octobre", "Novembre", "Décembre"},
	}
	English MonthLabeler = tableLabeler{
		short: [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"},
		full:  [12]string{"January", "February", "March", "April", "May", "June", "July", "August", "September", "October", "November", "December"},
	}
)

// LabelerFor maps a locale name to a labeler, falling back to French.
func LabelerFor(locale string) MonthLabeler {
	switch strings.ToLower(strings.TrimSpace(locale)) {
	case "en", "en-us", "en-gb", "english":
		return English
	default:
		return French
	}
}
