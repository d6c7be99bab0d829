package usage

import (
	"context"

	"github.com/google/uuid"

	"github.com/dmitrymomot/voicedesk/pkg/plans"
	"github.com/dmitrymomot/voicedesk/pkg/tenant"
)

// PlanStatus is the raw billing state read for a tenant.
// Plan is kept as stored text so stale identifiers can be detected.
type PlanStatus struct {
	Plan   string
	Status tenant.Status
}

// Counts maps each category to its current counter value. Missing categories read as 0.
type Counts map[plans.Category]int64

// TenantReader reads a tenant's plan and status.
// Implementations return ErrNotFound or tenant.ErrNotFound for unknown tenants.
type TenantReader interface {
	TenantPlan(ctx context.Context, tenantID uuid.UUID) (PlanStatus, error)
}

// CounterStore reads and mutates usage counters.
type CounterStore interface {
	// Counts returns every category's counter in a single round trip.
	Counts(ctx context.Context, tenantID uuid.UUID) (Counts, error)

	// Increment atomically adds delta to one counter. Negative deltas never take
	// the counter below zero.
	Increment(ctx context.Context, tenantID uuid.UUID, category plans.Category, delta int64) error
}
