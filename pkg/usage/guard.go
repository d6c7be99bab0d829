package usage

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/dmitrymomot/voicedesk/pkg/plans"
)

// Guard thresholds in percent of the limit. Fixed for every tenant.
const (
	WarningThreshold = 80
	BlockThreshold   = 100
)

// GuardState is what the portal renders around gated content for one category.
type GuardState string

const (
	// GuardNormal renders the content.
	GuardNormal GuardState = "normal"
	// GuardWarning renders the content with a non-blocking notice.
	GuardWarning GuardState = "warning"
	// GuardBlocked replaces the content with an upgrade prompt.
	GuardBlocked GuardState = "blocked"
	// GuardUnverified is shown when usage could not be resolved. It is never
	// presented as a reached limit.
	GuardUnverified GuardState = "unverified"
)

// GuardReason refines GuardUnverified.
type GuardReason string

const (
	ReasonTenantNotFound GuardReason = "tenant_not_found"
	ReasonUnavailable    GuardReason = "unavailable"
)

// StateFor derives the guard state from a limit and current usage.
// Unlimited limits are always normal; reaching a finite limit blocks.
func StateFor(limit plans.Limit, usage int64) GuardState {
	if limit.IsUnlimited() {
		return GuardNormal
	}
	if limit.Reached(usage) {
		return GuardBlocked
	}
	if limit.Percentage(usage) >= WarningThreshold {
		return GuardWarning
	}
	return GuardNormal
}

// GuardView is the per-category input for the usage banner.
type GuardView struct {
	Category   plans.Category `json:"category"`
	State      GuardState     `json:"state"`
	Reason     GuardReason    `json:"reason,omitempty"`
	Plan       plans.ID       `json:"plan,omitempty"`
	Usage      int64          `json:"usage"`
	Limit      *plans.Limit   `json:"limit,omitempty"`
	Percentage float64        `json:"percentage"`
	// UpgradeTo is the next tier, offered when the view is warning or blocked.
	UpgradeTo plans.ID `json:"upgrade_to,omitempty"`
}

// Guard derives the view for one category.
func (s *Snapshot) Guard(c plans.Category) GuardView {
	limit := s.Limits[c]
	v := GuardView{
		Category:   c,
		State:      StateFor(limit, s.Usage[c]),
		Plan:       s.Plan.ID,
		Usage:      s.Usage[c],
		Limit:      &limit,
		Percentage: s.Percentage[c],
	}
	if v.State == GuardWarning || v.State == GuardBlocked {
		if next, ok := plans.Next(s.Plan.ID); ok {
			v.UpgradeTo = next.ID
		}
	}
	return v
}

// UnverifiedView is the view rendered when resolution failed with err.
func UnverifiedView(c plans.Category, err error) GuardView {
	reason := ReasonUnavailable
	if errors.Is(err, ErrNotFound) {
		reason = ReasonTenantNotFound
	}
	return GuardView{Category: c, State: GuardUnverified, Reason: reason}
}

// Evaluate resolves the tenant and returns the guard view for category.
// Resolution failures yield GuardUnverified, never blocked or normal.
func (g *Gate) Evaluate(ctx context.Context, tenantID uuid.UUID, category plans.Category) GuardView {
	snap, err := g.resolver.Resolve(ctx, tenantID)
	if err != nil {
		return UnverifiedView(category, err)
	}
	return snap.Guard(category)
}
