package tenant

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/voicedesk/pkg/plans"
)

// Status is the billing state of a tenant as last reported by the payments processor.
type Status string

const (
	StatusTrialing  Status = "trialing"
	StatusActive    Status = "active"
	StatusPastDue   Status = "past_due"
	StatusCanceling Status = "canceling"
	StatusCanceled  Status = "canceled"
	StatusInactive  Status = "inactive"
)

// ParseStatus maps stored text to a Status. Empty or unknown values become inactive.
func ParseStatus(s string) Status {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusTrialing, StatusActive, StatusPastDue, StatusCanceling, StatusCanceled:
		return st
	case "cancelled":
		return StatusCanceled
	default:
		return StatusInactive
	}
}

// Tenant is a billed customer organisation.
type Tenant struct {
	ID                    uuid.UUID  `json:"id"`
	Name                  string     `json:"name"`
	Email                 string     `json:"email"`
	Plan                  plans.ID   `json:"plan"`
	Status                Status     `json:"status"`
	TrialEndsAt           *time.Time `json:"trial_ends_at,omitempty"`
	BillingCustomerID     string     `json:"-"`
	BillingSubscriptionID string     `json:"-"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

func (t *Tenant) IsTrialing() bool { return t.Status == StatusTrialing }

func (t *Tenant) HasSubscription() bool { return t.BillingSubscriptionID != "" }

// TrialDaysRemainingAt returns the number of days remaining in the trial at a given time.
// Returns 0 if not trialing or the trial has ended.
func (t *Tenant) TrialDaysRemainingAt(now time.Time) int {
	if !t.IsTrialing() || t.TrialEndsAt == nil {
		return 0
	}

	remaining := t.TrialEndsAt.Sub(now)
	if remaining <= 0 {
		return 0
	}

	// round partial days up
	days := remaining.Hours() / 24
	return int(days + 0.5)
}

// Store persists tenants and their billing fields.
// Get and the update methods return ErrNotFound for unknown tenants.
type Store interface {
	// Create inserts the tenant and seeds its usage counters in one transaction.
	Create(ctx context.Context, t *Tenant) error
	Get(ctx context.Context, id uuid.UUID) (*Tenant, error)

	// ApplyCheckout records a completed checkout: new plan, active status and processor identifiers.
	ApplyCheckout(ctx context.Context, id uuid.UUID, plan plans.ID, customerID, subscriptionID string) error
	SetStatus(ctx context.Context, id uuid.UUID, status Status) error
	SetStatusBySubscription(ctx context.Context, subscriptionID string, status Status) error
}
