package forecast

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"planner/internal/core"
)

const validBody = `{
	"dates": ["2025-04-01", "2025-03-01", "2025-03-15"],
	"forecast": {"income": [1000, 1100, 50], "expense": [900, 1000, 25.5]},
	"categories": {"expense": {"Food": [100, 120, 0], "Home": [800, 800, 0]}},
	"total_income": 2150,
	"total_expense": 1925.5,
	"min_forecast": [10, 20, 30],
	"balance": 224.5
}`

func newServer(t *testing.T, status int, body string, calls *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			atomic.AddInt32(calls, 1)
		}
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Fetch(t *testing.T) {
	var got struct {
		method, path, apiKey, contentType string
		body                              Request
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.method, got.path = r.Method, r.URL.Path
		got.apiKey = r.Header.Get("X-API-Key")
		got.contentType = r.Header.Get("Content-Type")
		json.NewDecoder(r.Body).Decode(&got.body)
		w.Write([]byte(validBody))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL + "/", APIKey: "secret"})
	series, err := c.Fetch(context.Background(), Request{MonthsAhead: 2, IncludeRecurring: true, DetailedCategories: true})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if got.method != http.MethodPost || got.path != "/api/forecast" {
		t.Errorf("request = %s %s", got.method, got.path)
	}
	if got.apiKey != "secret" || got.contentType != "application/json" {
		t.Errorf("headers: api key %q, content type %q", got.apiKey, got.contentType)
	}
	if got.body != (Request{MonthsAhead: 2, IncludeRecurring: true, DetailedCategories: true}) {
		t.Errorf("body = %+v", got.body)
	}

	if len(series.Points) != 2 {
		t.Fatalf("expected 2 points after merging duplicate months, got %d", len(series.Points))
	}
	mar := series.Points[0]
	if mar.Month != (core.MonthKey{Year: 2025, Month: time.March}) {
		t.Errorf("points not sorted: first = %v", mar.Month)
	}
	if !mar.Income.Equal(decimal.NewFromInt(1150)) || !mar.Expense.Equal(decimal.RequireFromString("1025.5")) {
		t.Errorf("march = %+v", mar)
	}
	if !series.TotalIncome.Equal(decimal.NewFromInt(2150)) || !series.TotalExpense.Equal(decimal.RequireFromString("1925.5")) {
		t.Errorf("totals = %s / %s", series.TotalIncome, series.TotalExpense)
	}
	if len(series.CategoryBreakdown["Food"]) != 3 {
		t.Errorf("category breakdown = %v", series.CategoryBreakdown)
	}
	if series.Balance == nil || !series.Balance.Equal(decimal.RequireFromString("224.5")) {
		t.Errorf("balance = %v", series.Balance)
	}
	if len(series.MinForecast) != 3 || series.MaxForecast != nil {
		t.Errorf("bounds = %v / %v", series.MinForecast, series.MaxForecast)
	}
}

func TestClient_FetchFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `{"detail":"boom"}`},
		{"unauthorized", http.StatusUnauthorized, `{"detail":"bad key"}`},
		{"malformed json", http.StatusOK, `{"dates": [`},
		{"missing forecast", http.StatusOK, `{"dates": [], "total_income": 0, "total_expense": 0}`},
		{"length mismatch", http.StatusOK, `{"dates": ["2025-03-01"], "forecast": {"income": [], "expense": [1]}, "total_income": 0, "total_expense": 0}`},
		{"bad date", http.StatusOK, `{"dates": ["March"], "forecast": {"income": [1], "expense": [1]}, "total_income": 0, "total_expense": 0}`},
		{"missing totals", http.StatusOK, `{"dates": ["2025-03-01"], "forecast": {"income": [1], "expense": [1]}}`},
		{"category length mismatch", http.StatusOK, `{"dates": ["2025-03-01"], "forecast": {"income": [1], "expense": [1]}, "categories": {"expense": {"Food": [1, 2]}}, "total_income": 1, "total_expense": 1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newServer(t, tt.status, tt.body, nil)
			c := NewClient(Config{BaseURL: srv.URL})
			_, err := c.Fetch(context.Background(), Request{MonthsAhead: 1})
			if !errors.Is(err, core.ErrForecastUnavailable) {
				t.Fatalf("expected ErrForecastUnavailable, got %v", err)
			}
		})
	}
}

func TestClient_FetchInvalidHorizon(t *testing.T) {
	var calls int32
	srv := newServer(t, http.StatusOK, validBody, &calls)
	c := NewClient(Config{BaseURL: srv.URL})

	for _, n := range []int{0, -3} {
		if _, err := c.Fetch(context.Background(), Request{MonthsAhead: n}); !errors.Is(err, ErrInvalidHorizon) {
			t.Errorf("MonthsAhead=%d: expected ErrInvalidHorizon, got %v", n, err)
		}
	}
	if calls != 0 {
		t.Errorf("expected no network calls, got %d", calls)
	}
}

func TestClient_FetchExactlyOneCall(t *testing.T) {
	var calls int32
	srv := newServer(t, http.StatusBadGateway, "upstream down", &calls)
	c := NewClient(Config{BaseURL: srv.URL})
	c.Fetch(context.Background(), Request{MonthsAhead: 3})
	if calls != 1 {
		t.Errorf("expected exactly one call, got %d", calls)
	}
}

func TestClient_FetchResponsePath(t *testing.T) {
	srv := newServer(t, http.StatusOK, `{"status":"ok","data":`+validBody+`}`, nil)
	c := NewClient(Config{BaseURL: srv.URL, ResponsePath: "$.data"})
	series, err := c.Fetch(context.Background(), Request{MonthsAhead: 2})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(series.Points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(series.Points))
	}

	bad := NewClient(Config{BaseURL: srv.URL, ResponsePath: "$.missing"})
	if _, err := bad.Fetch(context.Background(), Request{MonthsAhead: 2}); !errors.Is(err, core.ErrForecastUnavailable) {
		t.Fatalf("expected ErrForecastUnavailable for unknown path, got %v", err)
	}
}

func TestClient_FetchHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := NewClient(Config{BaseURL: srv.URL}).Fetch(ctx, Request{MonthsAhead: 1})
	if !errors.Is(err, core.ErrForecastUnavailable) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected a wrapped deadline error, got %v", err)
	}
}
