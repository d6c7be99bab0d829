package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	paddle "github.com/PaddleHQ/paddle-go-sdk/v4"
)

// PaddleConfig holds configuration for the Paddle provider.
type PaddleConfig struct {
	APIKey        string `env:"PADDLE_API_KEY"`
	WebhookSecret string `env:"PADDLE_WEBHOOK_SECRET"`
	Environment   string `env:"PADDLE_ENVIRONMENT" envDefault:"production"`
}

// PaddleProvider implements Provider with Paddle Billing transactions.
type PaddleProvider struct {
	client   *paddle.SDK
	verifier *paddle.WebhookVerifier
}

// NewPaddleProvider creates a Paddle provider for the configured environment.
func NewPaddleProvider(cfg PaddleConfig) (*PaddleProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: paddle API key is required", ErrProviderConfig)
	}
	if cfg.WebhookSecret == "" {
		return nil, fmt.Errorf("%w: paddle webhook secret is required", ErrProviderConfig)
	}

	var (
		sdk *paddle.SDK
		err error
	)
	switch strings.ToLower(cfg.Environment) {
	case "sandbox":
		sdk, err = paddle.NewSandbox(cfg.APIKey)
	case "production", "":
		sdk, err = paddle.New(cfg.APIKey)
	default:
		return nil, fmt.Errorf("%w: invalid paddle environment %q", ErrProviderConfig, cfg.Environment)
	}
	if err != nil {
		return nil, fmt.Errorf("create paddle client: %w", err)
	}

	return &PaddleProvider{
		client:   sdk,
		verifier: paddle.NewWebhookVerifier(cfg.WebhookSecret),
	}, nil
}

func (p *PaddleProvider) Name() string { return "paddle" }

// CreateCheckoutLink creates a transaction whose checkout URL the tenant is sent to.
// Tenant and plan travel in custom_data.
func (p *PaddleProvider) CreateCheckoutLink(ctx context.Context, req CheckoutRequest) (*CheckoutLink, error) {
	if req.PriceID == "" {
		return nil, ErrPriceNotConfigured
	}

	item := paddle.NewCreateTransactionItemsTransactionItemFromCatalog(&paddle.TransactionItemFromCatalog{
		PriceID:  req.PriceID,
		Quantity: 1,
	})

	txReq := &paddle.CreateTransactionRequest{
		Items: []paddle.CreateTransactionItems{*item},
		CustomData: paddle.CustomData{
			metaTenantID: req.TenantID.String(),
			metaPlanID:   string(req.PlanID),
		},
	}
	if req.Email != "" {
		txReq.CustomData["email"] = req.Email
	}
	if req.SuccessURL != "" {
		txReq.Checkout = &paddle.TransactionCheckout{URL: paddle.PtrTo(req.SuccessURL)}
	}

	tx, err := p.client.TransactionsClient.CreateTransaction(ctx, txReq)
	if err != nil {
		return nil, fmt.Errorf("create paddle transaction: %w", err)
	}
	if tx.Checkout == nil || tx.Checkout.URL == nil {
		return nil, errors.New("no checkout URL returned from paddle")
	}

	return &CheckoutLink{
		URL:       *tx.Checkout.URL,
		SessionID: tx.ID,
		ExpiresAt: time.Now().Add(24 * time.Hour).UTC(),
	}, nil
}

func (p *PaddleProvider) CancelAtPeriodEnd(ctx context.Context, subscriptionID string) error {
	_, err := p.client.SubscriptionsClient.CancelSubscription(ctx, &paddle.CancelSubscriptionRequest{
		SubscriptionID: subscriptionID,
		EffectiveFrom:  paddle.PtrTo(paddle.EffectiveFromNextBillingPeriod),
	})
	if err != nil {
		return fmt.Errorf("cancel paddle subscription: %w", err)
	}
	return nil
}

// ParseWebhook verifies the Paddle-Signature header value and normalises the event.
func (p *PaddleProvider) ParseWebhook(ctx context.Context, payload []byte, signature string) (*WebhookEvent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "/webhook", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build verification request: %w", err)
	}
	req.Header.Set("Paddle-Signature", signature)

	valid, err := p.verifier.Verify(req)
	if err != nil {
		return nil, errors.Join(ErrInvalidSignature, err)
	}
	if !valid {
		return nil, ErrInvalidSignature
	}

	return normalizePaddleEvent(payload)
}

type paddleEvent struct {
	EventID   string `json:"event_id"`
	EventType string `json:"event_type"`
	Data      struct {
		ID             string         `json:"id"`
		Status         string         `json:"status"`
		CustomerID     string         `json:"customer_id"`
		SubscriptionID string         `json:"subscription_id"`
		CustomData     map[string]any `json:"custom_data"`
		Items          []struct {
			PriceID string `json:"price_id"`
			Price   struct {
				ID string `json:"id"`
			} `json:"price"`
		} `json:"items"`
	} `json:"data"`
}

func normalizePaddleEvent(payload []byte) (*WebhookEvent, error) {
	var ev paddleEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, errors.Join(ErrInvalidWebhook, err)
	}

	out := &WebhookEvent{
		Type:          EventIgnored,
		ProviderEvent: ev.EventType,
		EventID:       ev.EventID,
		CustomerID:    ev.Data.CustomerID,
	}
	if len(ev.Data.Items) > 0 {
		out.PriceID = ev.Data.Items[0].PriceID
		if out.PriceID == "" {
			out.PriceID = ev.Data.Items[0].Price.ID
		}
	}

	switch ev.EventType {
	case "transaction.completed":
		out.SubscriptionID = ev.Data.SubscriptionID
		out.TenantID = customString(ev.Data.CustomData, metaTenantID)
		out.PlanID = customString(ev.Data.CustomData, metaPlanID)
		if out.TenantID != "" {
			out.Type = EventCheckoutCompleted
		} else {
			// renewals carry no checkout metadata
			out.Type = EventPaymentSucceeded
		}
	case "transaction.payment_failed":
		out.Type = EventPaymentFailed
		out.SubscriptionID = ev.Data.SubscriptionID
	case "subscription.past_due":
		out.Type = EventPaymentFailed
		out.SubscriptionID = ev.Data.ID
	case "subscription.canceled":
		out.Type = EventSubscriptionCanceled
		out.SubscriptionID = ev.Data.ID
	}

	return out, nil
}

// customString reads a string value from custom_data. Other keys may hold any
// JSON value set from the dashboard and are ignored.
func customString(data map[string]any, key string) string {
	s, _ := data[key].(string)
	return s
}
