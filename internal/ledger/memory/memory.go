// Package memory is an in-process ledger backend for tests and local
// development.
package memory

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"planner/internal/core"
	"planner/internal/ledger"
)

type Store struct {
	mu   sync.Mutex
	rows []ledger.Row
	err  error
}

var _ ledger.Reader = (*Store)(nil)

func New(rows ...ledger.Row) *Store {
	return &Store{rows: append([]ledger.Row(nil), rows...)}
}

// NewFromFile seeds a store from a CSV file with the columns
// date,amount,type,category,subcategory. Lines starting with '#' are
// comments. A missing file yields an empty store.
func NewFromFile(path string) (*Store, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()

	rows, err := parseCSV(f)
	if err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	return New(rows...), nil
}

// Append adds a row.
func (s *Store) Append(row ledger.Row) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, row)
}

// FailWith makes every subsequent read fail with err; nil restores reads.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// ReadRows returns the rows dated in [from, to]. Rows whose date does not
// parse are returned as well so normalization can reject them.
func (s *Store) ReadRows(ctx context.Context, from, to time.Time) ([]ledger.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	out := make([]ledger.Row, 0, len(s.rows))
	for _, r := range s.rows {
		d, err := core.ParseDate(r.AccountingDate)
		if err == nil && !ledger.InWindow(d, from, to) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func parseCSV(r io.Reader) ([]ledger.Row, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var rows []ledger.Row
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(rec) < 3 {
			return nil, fmt.Errorf("line %d: expected at least 3 columns, got %d", len(rows)+1, len(rec))
		}
		row := ledger.Row{
			AccountingDate: strings.TrimSpace(rec[0]),
			Amount:         strings.TrimSpace(rec[1]),
			IsIncome:       strings.EqualFold(strings.TrimSpace(rec[2]), "income"),
		}
		if len(rec) > 3 {
			row.Category = strings.TrimSpace(rec[3])
		}
		if len(rec) > 4 && strings.TrimSpace(rec[4]) != "" {
			sub := strings.TrimSpace(rec[4])
			row.Subcategory = &sub
		}
		rows = append(rows, row)
	}
	return rows, nil
}
