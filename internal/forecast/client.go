// Package forecast is the HTTP client of the forecasting collaborator.
package forecast

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"

	"planner/internal/core"
)

const (
	forecastPath    = "/api/forecast"
	maxBodyExcerpt  = 256
	maxResponseSize = 4 << 20
)

// ErrInvalidHorizon is returned before any I/O when MonthsAhead is not positive.
var ErrInvalidHorizon = errors.New("months ahead must be positive")

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	// ResponsePath is a JSONPath selecting the forecast payload inside
	// the response body. Empty or "$" means the body is the payload.
	ResponsePath string
}

type Request struct {
	MonthsAhead        int  `json:"months_ahead"`
	IncludeRecurring   bool `json:"include_recurring"`
	DetailedCategories bool `json:"detailed_categories"`
}

type Client struct {
	baseURL      string
	apiKey       string
	responsePath string
	http         *http.Client
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:       cfg.APIKey,
		responsePath: strings.TrimSpace(cfg.ResponsePath),
		http:         &http.Client{Timeout: timeout},
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(h *http.Client) *Client {
	c.http = h
	return c
}

// Fetch performs exactly one POST to the collaborator. There is no retry
// and no cache; every failure wraps core.ErrForecastUnavailable.
func (c *Client) Fetch(ctx context.Context, req Request) (core.ForecastSeries, error) {
	if req.MonthsAhead <= 0 {
		return core.ForecastSeries{}, ErrInvalidHorizon
	}

	body, err := json.Marshal(req)
	if err != nil {
		return core.ForecastSeries{}, fmt.Errorf("marshal forecast request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+forecastPath, bytes.NewReader(body))
	if err != nil {
		return core.ForecastSeries{}, fmt.Errorf("%w: build request: %v", core.ErrForecastUnavailable, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-API-Key", c.apiKey)

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return core.ForecastSeries{}, fmt.Errorf("%w: request failed: %w", core.ErrForecastUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return core.ForecastSeries{}, fmt.Errorf("%w: read response: %v", core.ErrForecastUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return core.ForecastSeries{}, fmt.Errorf("%w: unexpected status %d: %s", core.ErrForecastUnavailable, resp.StatusCode, excerpt(raw))
	}

	payload, err := c.selectPayload(raw)
	if err != nil {
		return core.ForecastSeries{}, fmt.Errorf("%w: %v", core.ErrForecastUnavailable, err)
	}

	var decoded response
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return core.ForecastSeries{}, fmt.Errorf("%w: decode response: %v", core.ErrForecastUnavailable, err)
	}
	series, err := decoded.toSeries()
	if err != nil {
		return core.ForecastSeries{}, fmt.Errorf("%w: %v", core.ErrForecastUnavailable, err)
	}

	slog.InfoContext(ctx, "Forecast fetched",
		"months_ahead", req.MonthsAhead,
		"points", len(series.Points),
		"categories", len(series.CategoryBreakdown),
		"duration_ms", time.Since(start).Milliseconds())

	return series, nil
}

func (c *Client) selectPayload(raw []byte) ([]byte, error) {
	if c.responsePath == "" || c.responsePath == "$" {
		return raw, nil
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode response: %v", err)
	}
	v, err := jsonpath.Get(c.responsePath, doc)
	if err != nil {
		return nil, fmt.Errorf("select %q: %v", c.responsePath, err)
	}
	// A filter yields a list; keep its only match.
	if list, ok := v.([]any); ok && len(list) == 1 {
		if _, isObj := list[0].(map[string]any); isObj {
			v = list[0]
		}
	}
	return json.Marshal(v)
}

func excerpt(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > maxBodyExcerpt {
		s = s[:maxBodyExcerpt] + "..."
	}
	return s
}
