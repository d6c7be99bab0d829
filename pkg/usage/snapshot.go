package usage

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/dmitrymomot/voicedesk/pkg/plans"
	"github.com/dmitrymomot/voicedesk/pkg/tenant"
)

// Snapshot is a point-in-time view of a tenant's plan, status and usage.
// It is rebuilt on every Resolve and goes stale as soon as it is returned.
type Snapshot struct {
	TenantID uuid.UUID     `json:"tenant_id"`
	Plan     plans.Plan    `json:"plan"`
	Status   tenant.Status `json:"status"`

	// PlanFallback is set when the stored plan was unrecognised and the lowest
	// tier's limits were applied instead.
	PlanFallback bool `json:"plan_fallback,omitempty"`

	Usage      map[plans.Category]int64   `json:"usage"`
	Limits     plans.Limits               `json:"limits"`
	Percentage map[plans.Category]float64 `json:"percentage"`
}

// Allows reports whether one more unit of c fits within the plan.
func (s *Snapshot) Allows(c plans.Category) bool {
	return s.Limits[c].Allows(s.Usage[c])
}

// Remaining returns how many more units of c are allowed. ok is false for unlimited limits.
func (s *Snapshot) Remaining(c plans.Category) (n uint64, ok bool) {
	bound, finite := s.Limits[c].Value()
	if !finite {
		return 0, false
	}
	used := s.Usage[c]
	if used <= 0 {
		return bound, true
	}
	if uint64(used) >= bound {
		return 0, true
	}
	return bound - uint64(used), true
}

// CanDowngrade reports whether current usage fits target's limits. The returned
// *DowngradeError names the first category that does not fit and wraps ErrDowngradeBlocked.
func (s *Snapshot) CanDowngrade(target plans.ID) error {
	limits := plans.LimitsFor(target)
	for _, c := range plans.Categories {
		l := limits[c]
		bound, finite := l.Value()
		if !finite {
			continue
		}
		if used := s.Usage[c]; used > 0 && uint64(used) > bound {
			return &DowngradeError{Category: c, Usage: used, Limit: l}
		}
	}
	return nil
}

// DowngradeError names the category blocking a plan change.
type DowngradeError struct {
	Category plans.Category
	Usage    int64
	Limit    plans.Limit
}

func (e *DowngradeError) Error() string {
	return fmt.Sprintf("%s: %s usage %d exceeds limit %s", ErrDowngradeBlocked, e.Category, e.Usage, e.Limit)
}

func (e *DowngradeError) Unwrap() error { return ErrDowngradeBlocked }

func newSnapshot(id uuid.UUID, plan plans.Plan, status tenant.Status, fallback bool, counts Counts) *Snapshot {
	s := &Snapshot{
		TenantID:     id,
		Plan:         plan,
		Status:       status,
		PlanFallback: fallback,
		Usage:        make(map[plans.Category]int64, len(plans.Categories)),
		Limits:       make(plans.Limits, len(plans.Categories)),
		Percentage:   make(map[plans.Category]float64, len(plans.Categories)),
	}
	for _, c := range plans.Categories {
		used := counts[c]
		limit := plan.Limit(c)
		s.Usage[c] = used
		s.Limits[c] = limit
		s.Percentage[c] = limit.Percentage(used)
	}
	return s
}
