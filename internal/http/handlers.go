package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"planner/internal/core"
	"planner/internal/forecast"
	"planner/internal/log"
)

// planMeta is carried by every partial response.
type planMeta struct {
	AsOf           time.Time       `json:"as_of"`
	MonthsAhead    int             `json:"months_ahead"`
	Degraded       bool            `json:"degraded"`
	DegradedReason string          `json:"degraded_reason,omitempty"`
	Source         core.PlanSource `json:"source"`
	Token          uint64          `json:"token"`
	Stale          bool            `json:"stale,omitempty"`
}

type timelineResponse struct {
	planMeta
	Timeline []core.ReconciledPoint `json:"timeline"`
}

type summaryResponse struct {
	planMeta
	Summary core.Summary `json:"summary"`
}

type categoryView struct {
	core.CategoryForecastRow
	Remaining decimal.Decimal `json:"remaining"`
	Progress  decimal.Decimal `json:"progress"`
}

type categoriesResponse struct {
	planMeta
	Categories []categoryView `json:"categories"`
}

func metaOf(p core.Plan) planMeta {
	return planMeta{
		AsOf:           p.AsOf,
		MonthsAhead:    p.MonthsAhead,
		Degraded:       p.Degraded,
		DegradedReason: p.DegradedReason,
		Source:         p.Source,
		Token:          p.Token,
		Stale:          p.Stale,
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]string{"status": "ok"}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
			ErrorResponse(http.StatusServiceUnavailable, "ledger backend unavailable").Write(w)
			return
		}
	}
	NewJSONResponse().Body(map[string]string{"status": "ready"}).Write(w)
}

func handleRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, retry later").Write(w)
}

// computePlan parses the horizon and runs the planner. It writes the error
// response itself and reports false when the handler should stop.
func (s *Server) computePlan(w http.ResponseWriter, r *http.Request) (core.Plan, bool) {
	ctx := r.Context()
	logger := log.FromContext(ctx).WithComponent(log.ComponentPlanner)

	monthsAhead, err := ParseMonthsAhead(r.URL.Query(), s.defaultMonthsAhead)
	if err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return core.Plan{}, false
	}

	plan, err := s.planner.Plan(ctx, monthsAhead)
	if err != nil {
		status, msg := planErrorStatus(err)
		logger.ErrorContext(ctx, "Plan computation failed",
			log.FieldMonthsAhead, monthsAhead,
			log.FieldStatusCode, status,
			log.FieldError, err)
		ErrorResponse(status, msg).Write(w)
		return core.Plan{}, false
	}

	if plan.Degraded {
		logger.WarnContext(ctx, "Serving degraded plan",
			log.NewFields().WithPlan(plan.MonthsAhead, plan.Degraded, string(plan.Source), plan.Token).ToSlice()...)
	}
	return plan, true
}

func planErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, forecast.ErrInvalidHorizon):
		return http.StatusUnprocessableEntity, "invalid horizon"
	case errors.Is(err, core.ErrMalformedLedgerEntry):
		return http.StatusInternalServerError, "ledger contains malformed entries"
	case errors.Is(err, core.ErrLedgerQueryFailed):
		return http.StatusBadGateway, "ledger query failed"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "plan computation timed out"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	plan, ok := s.computePlan(w, r)
	if !ok {
		return
	}
	NewJSONResponse().Degraded(plan.Degraded).Body(plan).Write(w)
}

func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	plan, ok := s.computePlan(w, r)
	if !ok {
		return
	}
	timeline := plan.Timeline
	if timeline == nil {
		timeline = []core.ReconciledPoint{}
	}
	NewJSONResponse().Degraded(plan.Degraded).Body(timelineResponse{
		planMeta: metaOf(plan),
		Timeline: timeline,
	}).Write(w)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	plan, ok := s.computePlan(w, r)
	if !ok {
		return
	}
	NewJSONResponse().Degraded(plan.Degraded).Body(summaryResponse{
		planMeta: metaOf(plan),
		Summary:  plan.Summary,
	}).Write(w)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	plan, ok := s.computePlan(w, r)
	if !ok {
		return
	}
	views := make([]categoryView, 0, len(plan.Categories))
	for _, row := range plan.Categories {
		views = append(views, categoryView{
			CategoryForecastRow: row,
			Remaining:           row.Remaining(),
			Progress:            row.Progress(),
		})
	}
	NewJSONResponse().Degraded(plan.Degraded).Body(categoriesResponse{
		planMeta:   metaOf(plan),
		Categories: views,
	}).Write(w)
}
