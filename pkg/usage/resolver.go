package usage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/voicedesk/pkg/logger"
	"github.com/dmitrymomot/voicedesk/pkg/plans"
	"github.com/dmitrymomot/voicedesk/pkg/tenant"
)

// Resolver builds subscription snapshots.
type Resolver struct {
	tenants  TenantReader
	counters CounterStore
	timeout  time.Duration
	log      *slog.Logger
	metrics  *Metrics
}

// NewResolver creates a Resolver. Panics if either store is nil.
func NewResolver(tenants TenantReader, counters CounterStore, opts ...Option) *Resolver {
	if tenants == nil {
		panic("usage: TenantReader is required")
	}
	if counters == nil {
		panic("usage: CounterStore is required")
	}
	o := newOptions(opts)
	return &Resolver{
		tenants:  tenants,
		counters: counters,
		timeout:  o.timeout,
		log:      o.log,
		metrics:  o.metrics,
	}
}

// Resolve fetches the tenant's plan and status, then all usage counters in one
// round trip, and derives limits and percentages. Both reads share one timeout.
//
// Returns an error wrapping ErrNotFound when the tenant does not exist and one
// wrapping ErrDependencyUnavailable for any other store failure, timeouts included.
// A plan identifier outside the catalog resolves to plans.Lowest with PlanFallback set.
func (r *Resolver) Resolve(ctx context.Context, tenantID uuid.UUID) (*Snapshot, error) {
	defer r.metrics.observeResolve(time.Now())

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	ps, err := r.tenants.TenantPlan(ctx, tenantID)
	if err != nil {
		return nil, classify("read tenant plan", err)
	}

	planID, known := plans.ParseID(ps.Plan)
	if !known {
		planID = plans.Lowest
		r.log.WarnContext(ctx, "unrecognised plan, applying lowest tier limits",
			logger.TenantID(tenantID),
			logger.Plan(ps.Plan),
			slog.Bool("fallback", true),
		)
	}

	counts, err := r.counters.Counts(ctx, tenantID)
	if err != nil {
		return nil, classify("read usage counts", err)
	}

	return newSnapshot(tenantID, plans.Get(planID), ps.Status, !known, counts), nil
}

// classify maps store errors onto the package taxonomy, keeping the cause in the chain.
func classify(op string, err error) error {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrDependencyUnavailable):
		return fmt.Errorf("%s: %w", op, err)
	case errors.Is(err, tenant.ErrNotFound):
		return fmt.Errorf("%s: %w", op, errors.Join(ErrNotFound, err))
	}
	return fmt.Errorf("%s: %w", op, errors.Join(ErrDependencyUnavailable, err))
}
