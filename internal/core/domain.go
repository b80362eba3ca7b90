package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

type (
	Date struct {
		time.Time
	}

	// LedgerEntry is one normalized ledger transaction. Amount is the
	// refund-adjusted signed amount as recorded; expense magnitude is
	// taken with Abs by the consumers.
	LedgerEntry struct {
		Amount         decimal.Decimal
		IsIncome       bool
		AccountingDate Date
		Category       string
		Subcategory    *string // nil when the transaction has no subcategory
	}

	// MonthlyTotal holds the aggregated income and expense magnitudes of one month.
	MonthlyTotal struct {
		Month   MonthKey        `json:"month"`
		Income  decimal.Decimal `json:"income"`
		Expense decimal.Decimal `json:"expense"`
	}
)

var (
	ErrInvalidDay    = errors.New("invalid day")
	ErrInvalidMonth  = errors.New("invalid month")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidDate   = errors.New("invalid date")

	// ErrLedgerQueryFailed is returned when the ledger backend cannot be read.
	ErrLedgerQueryFailed = errors.New("ledger query failed")
	// ErrForecastUnavailable covers transport, status and schema failures
	// of the forecast collaborator.
	ErrForecastUnavailable = errors.New("forecast unavailable")
	// ErrMalformedLedgerEntry is returned when a ledger row cannot be
	// normalized into a LedgerEntry.
	ErrMalformedLedgerEntry = errors.New("malformed ledger entry")
)

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate accepts the calendar-date shapes the ledger backends produce:
// plain dates, SQL timestamps and RFC 3339 timestamps.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, fmt.Errorf("%w: empty", ErrInvalidDate)
	}
	for _, layout := range []string{dateLayout, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05", "02/01/2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return NewDate(t.Year(), int(t.Month()), t.Day()), nil
		}
	}
	return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (e LedgerEntry) Validate() error {
	if err := e.AccountingDate.Validate(); err != nil {
		return fmt.Errorf("accounting date: %w", err)
	}
	return nil
}

// Month returns the calendar month the entry is accounted in.
func (e LedgerEntry) Month() MonthKey {
	return MonthKeyOf(e.AccountingDate.Time)
}

// Balance is income minus expense.
func (m MonthlyTotal) Balance() decimal.Decimal {
	return m.Income.Sub(m.Expense)
}
