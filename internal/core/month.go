package core

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// MonthKey identifies a calendar month. The zero value is not a valid month.
type MonthKey struct {
	Year  int
	Month time.Month
}

// MonthKeyOf truncates t to its calendar month.
func MonthKeyOf(t time.Time) MonthKey {
	return MonthKey{Year: t.Year(), Month: t.Month()}
}

// ParseMonthKey accepts "YYYY-MM" as well as full dates and timestamps,
// which are truncated to their month.
func ParseMonthKey(s string) (MonthKey, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01", s); err == nil {
		return MonthKeyOf(t), nil
	}
	d, err := ParseDate(s)
	if err != nil {
		return MonthKey{}, fmt.Errorf("parse month %q: %w", s, ErrInvalidMonth)
	}
	return MonthKeyOf(d.Time), nil
}

func (m MonthKey) IsZero() bool {
	return m.Year == 0 && m.Month == 0
}

// Compare returns -1, 0 or +1 following chronological order.
func (m MonthKey) Compare(o MonthKey) int {
	switch {
	case m.Year < o.Year:
		return -1
	case m.Year > o.Year:
		return 1
	case m.Month < o.Month:
		return -1
	case m.Month > o.Month:
		return 1
	}
	return 0
}

func (m MonthKey) Before(o MonthKey) bool { return m.Compare(o) < 0 }
func (m MonthKey) After(o MonthKey) bool  { return m.Compare(o) > 0 }

// AddMonths returns the month n months later (earlier for negative n).
func (m MonthKey) AddMonths(n int) MonthKey {
	return MonthKeyOf(m.Start().AddDate(0, n, 0))
}

// Start returns midnight UTC on the first day of the month.
func (m MonthKey) Start() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

func (m MonthKey) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// MarshalJSON encodes the zero month as an empty string.
func (m MonthKey) MarshalJSON() ([]byte, error) {
	if m.IsZero() {
		return json.Marshal("")
	}
	return json.Marshal(m.String())
}

func (m *MonthKey) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*m = MonthKey{}
		return nil
	}
	parsed, err := ParseMonthKey(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
