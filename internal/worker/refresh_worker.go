// Package worker recomputes plans in the background, persists them as
// snapshots and announces them over AMQP.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"planner/internal/amqp"
	"planner/internal/config"
	"planner/internal/core"
)

// Planner computes a plan for a horizon.
type Planner interface {
	Plan(ctx context.Context, monthsAhead int) (core.Plan, error)
}

// SnapshotWriter persists plans and bounds how many are kept per horizon.
type SnapshotWriter interface {
	SaveSnapshot(ctx context.Context, plan core.Plan) (string, error)
	PruneSnapshots(ctx context.Context, monthsAhead, keep int) (int64, error)
}

// Publisher announces persisted snapshots.
type Publisher interface {
	PublishPlanComputed(ctx context.Context, msg *amqp.PlanComputedMessage) error
}

// Result describes one horizon refresh.
type Result struct {
	MonthsAhead int
	SnapshotID  string
	Skipped     bool
	Reason      string
}

// RefreshWorker recomputes the configured horizons.
type RefreshWorker struct {
	planner   Planner
	snapshots SnapshotWriter
	publisher Publisher
	horizons  []int
	keep      int

	// one refresh at a time; cron ticks and AMQP requests may overlap
	mu sync.Mutex
}

// NewRefreshWorker creates a worker. publisher may be nil when AMQP is
// not configured.
func NewRefreshWorker(p Planner, snapshots SnapshotWriter, publisher Publisher, horizons []int, keep int) *RefreshWorker {
	return &RefreshWorker{
		planner:   p,
		snapshots: snapshots,
		publisher: publisher,
		horizons:  horizons,
		keep:      keep,
	}
}

// RefreshHorizon computes, persists and announces the plan for one horizon.
// Placeholder and stale plans are not persisted.
func (w *RefreshWorker) RefreshHorizon(ctx context.Context, monthsAhead int) (Result, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	res := Result{MonthsAhead: monthsAhead}

	plan, err := w.planner.Plan(ctx, monthsAhead)
	if err != nil {
		return res, fmt.Errorf("compute plan: %w", err)
	}

	switch {
	case plan.Source == core.SourcePlaceholder:
		res.Skipped, res.Reason = true, "placeholder forecast"
	case plan.Stale:
		res.Skipped, res.Reason = true, "stale result"
	}
	if res.Skipped {
		slog.WarnContext(ctx, "Skipping snapshot",
			"months_ahead", monthsAhead,
			"reason", res.Reason,
			"degraded_reason", plan.DegradedReason)
		return res, nil
	}

	id, err := w.snapshots.SaveSnapshot(ctx, plan)
	if err != nil {
		return res, fmt.Errorf("save snapshot: %w", err)
	}
	res.SnapshotID = id

	if w.keep > 0 {
		removed, err := w.snapshots.PruneSnapshots(ctx, monthsAhead, w.keep)
		if err != nil {
			slog.WarnContext(ctx, "Failed to prune snapshots", "months_ahead", monthsAhead, "error", err)
		} else if removed > 0 {
			slog.DebugContext(ctx, "Pruned snapshots", "months_ahead", monthsAhead, "removed", removed)
		}
	}

	// The snapshot is the source of truth; a failed announcement is logged
	// and picked up by the next refresh.
	if w.publisher != nil {
		if err := w.publisher.PublishPlanComputed(ctx, amqp.NewPlanComputedMessage(id, plan)); err != nil {
			slog.ErrorContext(ctx, "Failed to publish plan computed message",
				"snapshot_id", id,
				"months_ahead", monthsAhead,
				"error", err)
		}
	}

	slog.InfoContext(ctx, "Plan snapshot saved",
		"snapshot_id", id,
		"months_ahead", monthsAhead,
		"degraded", plan.Degraded,
		"source", plan.Source,
		"estimated_balance", plan.Summary.EstimatedBalance.StringFixed(2))

	return res, nil
}

// RefreshAll refreshes every configured horizon and joins the failures.
func (w *RefreshWorker) RefreshAll(ctx context.Context) error {
	var errs []error
	saved, skipped := 0, 0
	for _, h := range w.horizons {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		res, err := w.RefreshHorizon(ctx, h)
		if err != nil {
			slog.ErrorContext(ctx, "Horizon refresh failed", "months_ahead", h, "error", err)
			errs = append(errs, fmt.Errorf("horizon %d: %w", h, err))
			continue
		}
		if res.Skipped {
			skipped++
		} else {
			saved++
		}
	}

	slog.InfoContext(ctx, "Refresh completed",
		"horizons", len(w.horizons),
		"saved", saved,
		"skipped", skipped,
		"errors", len(errs))

	return errors.Join(errs...)
}

// HandleRefreshRequest processes a refresh request received over AMQP.
func (w *RefreshWorker) HandleRefreshRequest(ctx context.Context, msg *amqp.RefreshRequestMessage) error {
	if msg.MonthsAhead < 0 || msg.MonthsAhead > config.MaxMonthsAhead {
		// Not retryable; acknowledge and drop.
		slog.WarnContext(ctx, "Ignoring refresh request with invalid horizon",
			"request_id", msg.RequestID,
			"months_ahead", msg.MonthsAhead)
		return nil
	}

	slog.InfoContext(ctx, "Processing refresh request",
		"request_id", msg.RequestID,
		"months_ahead", msg.MonthsAhead,
		"reason", msg.Reason)

	_, err := w.RefreshHorizon(ctx, msg.MonthsAhead)
	return err
}

// Start runs RefreshAll on the cron schedule spec until ctx is done, then
// waits for a running refresh to finish.
func (w *RefreshWorker) Start(ctx context.Context, spec string) error {
	c := cron.New()
	if _, err := c.AddFunc(spec, func() {
		if err := w.RefreshAll(ctx); err != nil && ctx.Err() == nil {
			slog.ErrorContext(ctx, "Scheduled refresh failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", spec, err)
	}

	c.Start()
	slog.InfoContext(ctx, "Refresh schedule started", "schedule", spec, "horizons", w.horizons)

	<-ctx.Done()
	<-c.Stop().Done()
	slog.InfoContext(ctx, "Refresh schedule stopped")
	return nil
}
