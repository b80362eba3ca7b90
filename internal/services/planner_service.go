package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"planner/internal/cache"
	"planner/internal/core"
	"planner/internal/forecast"
	"planner/internal/ledger"
	"planner/internal/planner"
)

type (
	// ForecastFetcher is implemented by *forecast.Client.
	ForecastFetcher interface {
		Fetch(ctx context.Context, req forecast.Request) (core.ForecastSeries, error)
	}

	// SnapshotStore persists computed plans with the forecast they used.
	SnapshotStore interface {
		SaveSnapshot(ctx context.Context, plan core.Plan) (string, error)
		LatestForecast(ctx context.Context, monthsAhead int) (core.ForecastSeries, bool, error)
	}
)

// PlannerService joins the ledger and the forecast into a core.Plan and
// owns the degraded-mode fallback.
type PlannerService struct {
	ledger     ledger.Reader
	forecaster ForecastFetcher
	cache      cache.Cache[core.ForecastSeries]
	snapshots  SnapshotStore
	now        func() time.Time

	includeRecurring bool
	reconcileOpts    []planner.ReconcileOption
	allocateOpts     []planner.AllocateOption

	seq    atomic.Uint64
	mu     sync.Mutex
	latest map[int]uint64
}

type Option func(*PlannerService)

// WithCache keeps the last good forecast of every horizon for degraded mode.
func WithCache(c cache.Cache[core.ForecastSeries]) Option {
	return func(s *PlannerService) { s.cache = c }
}

// WithSnapshots falls back to persisted snapshots when the cache is empty.
func WithSnapshots(store SnapshotStore) Option {
	return func(s *PlannerService) { s.snapshots = store }
}

func WithClock(now func() time.Time) Option {
	return func(s *PlannerService) { s.now = now }
}

func WithLabeler(l planner.MonthLabeler) Option {
	return func(s *PlannerService) {
		s.reconcileOpts = append(s.reconcileOpts, planner.WithLabeler(l))
	}
}

func WithIncludeRecurring(include bool) Option {
	return func(s *PlannerService) { s.includeRecurring = include }
}

// WithAllocateOptions forwards options to planner.Allocate.
func WithAllocateOptions(opts ...planner.AllocateOption) Option {
	return func(s *PlannerService) { s.allocateOpts = append(s.allocateOpts, opts...) }
}

// WithReconcileOptions forwards options to planner.Reconcile.
func WithReconcileOptions(opts ...planner.ReconcileOption) Option {
	return func(s *PlannerService) { s.reconcileOpts = append(s.reconcileOpts, opts...) }
}

func NewPlannerService(reader ledger.Reader, forecaster ForecastFetcher, opts ...Option) *PlannerService {
	s := &PlannerService{
		ledger:     reader,
		forecaster: forecaster,
		now:        time.Now,
		latest:     make(map[int]uint64),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Plan computes the planner view for a horizon of monthsAhead months.
//
// The year-to-date ledger read and the forecast call run concurrently. A
// ledger failure aborts the plan; a forecast failure degrades it to the
// last known good forecast or, failing that, the placeholder series. A
// horizon of 0 skips the forecast call entirely.
func (s *PlannerService) Plan(ctx context.Context, monthsAhead int) (core.Plan, error) {
	if monthsAhead < 0 {
		return core.Plan{}, fmt.Errorf("%w: %d", forecast.ErrInvalidHorizon, monthsAhead)
	}
	token := s.begin(monthsAhead)
	asOf := s.now()
	from, to := ledger.YearToDate(asOf)

	var (
		entries     []core.LedgerEntry
		series      core.ForecastSeries
		forecastErr error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		e, err := ledger.Read(gctx, s.ledger, from, to)
		if err != nil {
			return err
		}
		entries = e
		return nil
	})
	if monthsAhead > 0 {
		g.Go(func() error {
			series, forecastErr = s.forecaster.Fetch(gctx, forecast.Request{
				MonthsAhead:        monthsAhead,
				IncludeRecurring:   s.includeRecurring,
				DetailedCategories: true,
			})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		slog.ErrorContext(ctx, "Ledger read failed", "months_ahead", monthsAhead, "error", err)
		return core.Plan{}, err
	}

	source := core.SourceLive
	if forecastErr != nil {
		series, source = s.fallback(ctx, monthsAhead, asOf)
		slog.WarnContext(ctx, "Forecast unavailable, serving degraded plan",
			"months_ahead", monthsAhead,
			"source", source,
			"error", forecastErr)
	}

	plan, err := s.build(entries, series, asOf, monthsAhead)
	if err != nil {
		slog.ErrorContext(ctx, "Ledger data malformed", "months_ahead", monthsAhead, "error", err)
		return core.Plan{}, err
	}
	plan.Source = source
	plan.Token = token
	if forecastErr != nil {
		plan.Degraded = true
		plan.DegradedReason = forecastErr.Error()
	}

	plan.Stale = s.isStale(monthsAhead, token)
	if plan.Stale {
		slog.InfoContext(ctx, "Newer plan request in flight, result marked stale",
			"months_ahead", monthsAhead, "token", token)
	} else if source == core.SourceLive && monthsAhead > 0 && s.cache != nil {
		s.cache.Set(horizonKey(monthsAhead), series)
	}

	return plan, nil
}

func (s *PlannerService) build(entries []core.LedgerEntry, series core.ForecastSeries, asOf time.Time, monthsAhead int) (core.Plan, error) {
	totals, err := planner.Aggregate(entries)
	if err != nil {
		return core.Plan{}, err
	}
	timeline := planner.Reconcile(totals, series, asOf, s.reconcileOpts...)

	current := core.MonthKeyOf(asOf)
	var monthEntries []core.LedgerEntry
	for _, e := range entries {
		if e.Month() == current {
			monthEntries = append(monthEntries, e)
		}
	}
	rows := planner.Allocate(planner.ActualsBySubcategory(monthEntries), planner.CategoryTotals(series), s.allocateOpts...)

	return core.Plan{
		AsOf:        asOf,
		MonthsAhead: monthsAhead,
		Timeline:    timeline,
		Summary:     planner.Summarize(timeline, totals, series, asOf),
		Categories:  rows,
		Forecast:    series,
	}, nil
}

func (s *PlannerService) fallback(ctx context.Context, monthsAhead int, asOf time.Time) (core.ForecastSeries, core.PlanSource) {
	if s.cache != nil {
		if series, ok := s.cache.Get(horizonKey(monthsAhead)); ok {
			return series, core.SourceLastKnownGood
		}
	}
	if s.snapshots != nil {
		series, ok, err := s.snapshots.LatestForecast(ctx, monthsAhead)
		switch {
		case err != nil:
			slog.WarnContext(ctx, "Snapshot lookup failed", "months_ahead", monthsAhead, "error", err)
		case ok:
			return series, core.SourceLastKnownGood
		}
	}
	return planner.PlaceholderSeries(asOf, monthsAhead), core.SourcePlaceholder
}

// begin records a new invocation for the horizon. Tokens are compared per
// horizon only: callers asking for different horizons never supersede each
// other.
func (s *PlannerService) begin(monthsAhead int) uint64 {
	token := s.seq.Add(1)
	s.mu.Lock()
	s.latest[monthsAhead] = token
	s.mu.Unlock()
	return token
}

func (s *PlannerService) isStale(monthsAhead int, token uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest[monthsAhead] != token
}

func horizonKey(monthsAhead int) string {
	return "forecast:" + strconv.Itoa(monthsAhead)
}
