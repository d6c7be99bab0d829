package usage

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/voicedesk/pkg/logger"
	"github.com/dmitrymomot/voicedesk/pkg/plans"
)

// Check outcomes, used as log and metric labels.
const (
	outcomeAllowed     = "allowed"
	outcomeLimited     = "limit_reached"
	outcomeNotFound    = "not_found"
	outcomeUnavailable = "dependency_unavailable"
	outcomeInvalid     = "invalid_category"
)

// Gate is the enforcement point consulted before and after a metered action.
type Gate struct {
	resolver    *Resolver
	counters    CounterStore
	timeout     time.Duration
	policy      FailurePolicy
	recordRetry bool
	log         *slog.Logger
	metrics     *Metrics
}

// NewGate creates a Gate. Panics if resolver or counters is nil.
func NewGate(resolver *Resolver, counters CounterStore, opts ...Option) *Gate {
	if resolver == nil {
		panic("usage: Resolver is required")
	}
	if counters == nil {
		panic("usage: CounterStore is required")
	}
	o := newOptions(opts)
	return &Gate{
		resolver:    resolver,
		counters:    counters,
		timeout:     o.timeout,
		policy:      o.policy,
		recordRetry: o.recordRetry,
		log:         o.log,
		metrics:     o.metrics,
	}
}

// Policy returns the configured failure policy.
func (g *Gate) Policy() FailurePolicy { return g.policy }

// Resolve exposes the gate's resolver.
func (g *Gate) Resolve(ctx context.Context, tenantID uuid.UUID) (*Snapshot, error) {
	return g.resolver.Resolve(ctx, tenantID)
}

// Decision is a limit check and the guard view derived from the same snapshot.
type Decision struct {
	Allowed bool      `json:"allowed"`
	View    GuardView `json:"view"`
}

// CheckLimit reports whether one more unit of category may be consumed.
//
// Unlimited categories are always allowed. Otherwise the answer is usage < limit,
// so reaching the limit exactly blocks the next action. When the tenant is missing
// the answer is false with ErrNotFound. When the store is unavailable the answer
// follows the failure policy and the error is returned alongside it.
// The result is advisory: it is not held across the later RecordUsage call.
func (g *Gate) CheckLimit(ctx context.Context, tenantID uuid.UUID, category plans.Category) (bool, error) {
	d, err := g.Decide(ctx, tenantID, category)
	return d.Allowed, err
}

// Decide works like CheckLimit and also returns the guard view, both computed
// from a single resolution. On a resolution failure the view is unverified.
func (g *Gate) Decide(ctx context.Context, tenantID uuid.UUID, category plans.Category) (Decision, error) {
	if !category.Valid() {
		g.metrics.check(string(category), outcomeInvalid)
		return Decision{}, plans.ErrInvalidCategory
	}

	snap, err := g.resolver.Resolve(ctx, tenantID)
	if err != nil {
		view := UnverifiedView(category, err)
		if errors.Is(err, ErrNotFound) {
			g.metrics.check(string(category), outcomeNotFound)
			return Decision{View: view}, err
		}

		allowed := g.policy == FailOpen
		g.metrics.check(string(category), outcomeUnavailable)
		g.log.WarnContext(ctx, "usage check could not be verified",
			logger.TenantID(tenantID),
			logger.Category(string(category)),
			slog.String("policy", g.policy.String()),
			slog.Bool("allowed", allowed),
			logger.Error(err),
		)
		return Decision{Allowed: allowed, View: view}, err
	}

	d := Decision{Allowed: snap.Allows(category), View: snap.Guard(category)}
	if d.Allowed {
		g.metrics.check(string(category), outcomeAllowed)
		return d, nil
	}

	g.metrics.check(string(category), outcomeLimited)
	g.log.InfoContext(ctx, "usage limit reached",
		logger.TenantID(tenantID),
		logger.Category(string(category)),
		logger.Plan(string(snap.Plan.ID)),
		slog.Int64("usage", snap.Usage[category]),
	)
	return d, nil
}

// RecordUsage adds amount to the category counter without reading it first.
// Returns false on failure after logging it; the metered action is not undone.
func (g *Gate) RecordUsage(ctx context.Context, tenantID uuid.UUID, category plans.Category, amount int64) bool {
	return g.apply(ctx, tenantID, category, amount, "record")
}

// ReleaseUsage subtracts amount from the category counter, for countable
// resources such as data sources and users that were removed.
func (g *Gate) ReleaseUsage(ctx context.Context, tenantID uuid.UUID, category plans.Category, amount int64) bool {
	return g.apply(ctx, tenantID, category, -amount, "release")
}

func (g *Gate) apply(ctx context.Context, tenantID uuid.UUID, category plans.Category, delta int64, op string) bool {
	attrs := []any{
		logger.TenantID(tenantID),
		logger.Category(string(category)),
		logger.Delta(delta),
		slog.String("op", op),
	}

	if !category.Valid() {
		g.metrics.record(string(category), "invalid")
		g.log.ErrorContext(ctx, "usage not recorded", append(attrs, logger.Error(plans.ErrInvalidCategory))...)
		return false
	}
	if (op == "record" && delta < 1) || (op == "release" && delta > -1) {
		g.metrics.record(string(category), "invalid")
		g.log.ErrorContext(ctx, "usage not recorded", append(attrs, logger.Error(ErrInvalidAmount))...)
		return false
	}

	attempts := 1
	if g.recordRetry {
		attempts = 2
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = g.increment(ctx, tenantID, category, delta)
		if err == nil {
			if attempt > 1 {
				g.metrics.record(string(category), "retried")
			} else {
				g.metrics.record(string(category), "ok")
			}
			return true
		}
		if errors.Is(err, ErrNotFound) || ctx.Err() != nil {
			break
		}
		if attempt < attempts {
			g.log.WarnContext(ctx, "usage increment failed, retrying", append(attrs, logger.Attempt(attempt), logger.Error(err))...)
		}
	}

	g.metrics.record(string(category), "failed")
	g.log.ErrorContext(ctx, "usage not recorded", append(attrs, logger.Error(err))...)
	return false
}

func (g *Gate) increment(ctx context.Context, tenantID uuid.UUID, category plans.Category, delta int64) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	if err := g.counters.Increment(ctx, tenantID, category, delta); err != nil {
		return classify("increment usage", err)
	}
	return nil
}
