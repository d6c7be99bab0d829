package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"github.com/stripe/stripe-go/v79/webhook"
)

// StripeConfig holds configuration for the Stripe provider.
type StripeConfig struct {
	SecretKey     string `env:"STRIPE_SECRET_KEY"`
	WebhookSecret string `env:"STRIPE_WEBHOOK_SECRET"`
}

// StripeProvider implements Provider with Stripe Checkout and subscriptions.
type StripeProvider struct {
	api           *client.API
	webhookSecret string
}

// NewStripeProvider creates a Stripe provider with its own API client.
func NewStripeProvider(cfg StripeConfig) (*StripeProvider, error) {
	if cfg.SecretKey == "" {
		return nil, fmt.Errorf("%w: stripe secret key is required", ErrProviderConfig)
	}
	if cfg.WebhookSecret == "" {
		return nil, fmt.Errorf("%w: stripe webhook secret is required", ErrProviderConfig)
	}

	api := &client.API{}
	api.Init(cfg.SecretKey, nil)

	return &StripeProvider{api: api, webhookSecret: cfg.WebhookSecret}, nil
}

func (p *StripeProvider) Name() string { return "stripe" }

// CreateCheckoutLink creates a subscription-mode Checkout Session. Tenant and plan
// are attached both to the session and to the resulting subscription.
func (p *StripeProvider) CreateCheckoutLink(ctx context.Context, req CheckoutRequest) (*CheckoutLink, error) {
	if req.PriceID == "" {
		return nil, ErrPriceNotConfigured
	}

	meta := map[string]string{
		metaTenantID: req.TenantID.String(),
		metaPlanID:   string(req.PlanID),
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(req.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		ClientReferenceID: stripe.String(req.TenantID.String()),
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: meta,
		},
	}
	if req.Email != "" {
		params.CustomerEmail = stripe.String(req.Email)
	}
	for k, v := range meta {
		params.AddMetadata(k, v)
	}
	params.Context = ctx

	sess, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("create stripe checkout session: %w", err)
	}

	return &CheckoutLink{
		URL:       sess.URL,
		SessionID: sess.ID,
		ExpiresAt: time.Unix(sess.ExpiresAt, 0).UTC(),
	}, nil
}

func (p *StripeProvider) CancelAtPeriodEnd(ctx context.Context, subscriptionID string) error {
	params := &stripe.SubscriptionParams{
		CancelAtPeriodEnd: stripe.Bool(true),
	}
	params.Context = ctx

	if _, err := p.api.Subscriptions.Update(subscriptionID, params); err != nil {
		return fmt.Errorf("cancel stripe subscription: %w", err)
	}
	return nil
}

// ParseWebhook verifies the Stripe-Signature header value and normalises the event.
func (p *StripeProvider) ParseWebhook(_ context.Context, payload []byte, signature string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, p.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
	if err != nil {
		return nil, errors.Join(ErrInvalidSignature, err)
	}
	return normalizeStripeEvent(event)
}

func normalizeStripeEvent(event stripe.Event) (*WebhookEvent, error) {
	out := &WebhookEvent{
		Type:          EventIgnored,
		ProviderEvent: string(event.Type),
		EventID:       event.ID,
	}
	if event.Data == nil {
		return out, nil
	}

	switch string(event.Type) {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return nil, errors.Join(ErrInvalidWebhook, err)
		}
		out.Type = EventCheckoutCompleted
		out.TenantID = sess.Metadata[metaTenantID]
		if out.TenantID == "" {
			out.TenantID = sess.ClientReferenceID
		}
		out.PlanID = sess.Metadata[metaPlanID]
		if sess.Customer != nil {
			out.CustomerID = sess.Customer.ID
		}
		if sess.Subscription != nil {
			out.SubscriptionID = sess.Subscription.ID
		}

	case "invoice.payment_succeeded", "invoice.payment_failed":
		var inv stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
			return nil, errors.Join(ErrInvalidWebhook, err)
		}
		out.Type = EventPaymentSucceeded
		if string(event.Type) == "invoice.payment_failed" {
			out.Type = EventPaymentFailed
		}
		if inv.Subscription != nil {
			out.SubscriptionID = inv.Subscription.ID
		}
		if inv.Customer != nil {
			out.CustomerID = inv.Customer.ID
		}

	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return nil, errors.Join(ErrInvalidWebhook, err)
		}
		out.Type = EventSubscriptionCanceled
		out.SubscriptionID = sub.ID
		if sub.Customer != nil {
			out.CustomerID = sub.Customer.ID
		}
	}

	return out, nil
}
