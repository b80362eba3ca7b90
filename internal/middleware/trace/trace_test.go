package trace

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"planner/internal/log"
)

func TestMiddlewareLogsStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.Config{Level: slog.LevelInfo, Component: log.ComponentHTTP, Output: &buf})

	m := NewMiddleware(logger, func(r *http.Request) string { return "198.51.100.1" })
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/planner", nil))

	out := buf.String()
	if !strings.Contains(out, "status_code=502") {
		t.Errorf("expected status in log, got %q", out)
	}
	if !strings.Contains(out, "client_ip=198.51.100.1") {
		t.Errorf("expected client ip in log, got %q", out)
	}
	if got := m.GetMetrics().TotalRequests; got != 1 {
		t.Errorf("TotalRequests = %d, want 1", got)
	}
}
