package billing

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/voicedesk/pkg/plans"
)

// Provider is a payments processor integration.
type Provider interface {
	// Name is the key used in the price book, e.g. "stripe".
	Name() string

	// CreateCheckoutLink starts a hosted subscription checkout. The tenant and plan
	// must come back in the checkout-completed webhook.
	CreateCheckoutLink(ctx context.Context, req CheckoutRequest) (*CheckoutLink, error)

	// CancelAtPeriodEnd schedules cancellation at the end of the paid period.
	CancelAtPeriodEnd(ctx context.Context, subscriptionID string) error

	// ParseWebhook verifies the signature and normalises the event.
	// Returns ErrInvalidSignature or ErrInvalidWebhook.
	ParseWebhook(ctx context.Context, payload []byte, signature string) (*WebhookEvent, error)
}

type CheckoutRequest struct {
	TenantID   uuid.UUID
	PlanID     plans.ID
	PriceID    string
	Email      string
	SuccessURL string
	CancelURL  string
}

// CheckoutLink is a hosted checkout session.
type CheckoutLink struct {
	URL       string    `json:"url"`
	SessionID string    `json:"session_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// EventType is the normalised billing event.
type EventType string

const (
	EventCheckoutCompleted    EventType = "checkout_completed"
	EventPaymentSucceeded     EventType = "payment_succeeded"
	EventPaymentFailed        EventType = "payment_failed"
	EventSubscriptionCanceled EventType = "subscription_canceled"
	EventIgnored              EventType = "ignored"
)

// WebhookEvent is a verified processor event reduced to what the tenant record needs.
type WebhookEvent struct {
	Type          EventType
	ProviderEvent string
	EventID       string

	// TenantID and PlanID come from checkout metadata and are set on checkout events.
	TenantID string
	PlanID   string
	PriceID  string

	CustomerID     string
	SubscriptionID string
}

// Metadata keys attached to checkouts and echoed back by webhooks.
const (
	metaTenantID = "tenant_id"
	metaPlanID   = "plan_id"
)
