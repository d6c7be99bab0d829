package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/dmitrymomot/voicedesk/pkg/logger"
	"github.com/dmitrymomot/voicedesk/pkg/plans"
	"github.com/dmitrymomot/voicedesk/pkg/tenant"
	"github.com/dmitrymomot/voicedesk/pkg/usage"
)

// Config selects the provider and checkout redirects.
type Config struct {
	Provider   string `env:"BILLING_PROVIDER" envDefault:"stripe"`
	PricesFile string `env:"BILLING_PRICES_FILE" envDefault:"config/prices.yaml"`
	SuccessURL string `env:"BILLING_SUCCESS_URL" envDefault:"http://localhost:8080/dashboard?success=true"`
	CancelURL  string `env:"BILLING_CANCEL_URL" envDefault:"http://localhost:8080/pricing?canceled=true"`
}

// NewProvider builds the provider named in cfg.
func NewProvider(cfg Config, stripeCfg StripeConfig, paddleCfg PaddleConfig) (Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "stripe":
		return NewStripeProvider(stripeCfg)
	case "paddle":
		return NewPaddleProvider(paddleCfg)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
}

// TenantStore is the part of tenant.Store that billing writes through.
type TenantStore interface {
	Get(ctx context.Context, id uuid.UUID) (*tenant.Tenant, error)
	ApplyCheckout(ctx context.Context, id uuid.UUID, plan plans.ID, customerID, subscriptionID string) error
	SetStatus(ctx context.Context, id uuid.UUID, status tenant.Status) error
	SetStatusBySubscription(ctx context.Context, subscriptionID string, status tenant.Status) error
}

// SnapshotResolver is satisfied by *usage.Gate and *usage.Resolver.
type SnapshotResolver interface {
	Resolve(ctx context.Context, tenantID uuid.UUID) (*usage.Snapshot, error)
}

// EventLog remembers processed webhook events so provider redeliveries are applied once.
type EventLog interface {
	// MarkProcessed records the event and reports whether this is its first delivery.
	MarkProcessed(ctx context.Context, provider, eventID string) (bool, error)
	// Forget removes the mark so a failed event can be retried.
	Forget(ctx context.Context, provider, eventID string) error
}

// CheckoutOptions overrides the configured redirects for one checkout.
type CheckoutOptions struct {
	SuccessURL string
	CancelURL  string
}

// Service runs checkout, cancellation and webhook sync.
type Service struct {
	provider Provider
	prices   *PriceBook
	tenants  TenantStore
	usage    SnapshotResolver
	events   EventLog
	cfg      Config
	log      *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithUsageCheck refuses checkouts to plans whose limits current usage exceeds.
func WithUsageCheck(r SnapshotResolver) ServiceOption {
	return func(s *Service) { s.usage = r }
}

// WithEventLog skips webhook events that were already processed.
func WithEventLog(l EventLog) ServiceOption {
	return func(s *Service) { s.events = l }
}

func WithLogger(log *slog.Logger) ServiceOption {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// NewService creates a billing Service. Panics if a required dependency is nil.
func NewService(provider Provider, prices *PriceBook, tenants TenantStore, cfg Config, opts ...ServiceOption) *Service {
	if provider == nil {
		panic("billing: Provider is required")
	}
	if prices == nil {
		panic("billing: PriceBook is required")
	}
	if tenants == nil {
		panic("billing: TenantStore is required")
	}

	s := &Service{
		provider: provider,
		prices:   prices,
		tenants:  tenants,
		cfg:      cfg,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Checkout starts a hosted checkout moving the tenant to plan.
func (s *Service) Checkout(ctx context.Context, tenantID uuid.UUID, plan plans.ID, opts CheckoutOptions) (*CheckoutLink, error) {
	t, err := s.tenants.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if t.Plan == plan && t.Status == tenant.StatusActive {
		return nil, ErrAlreadySubscribed
	}

	if s.usage != nil {
		snap, err := s.usage.Resolve(ctx, tenantID)
		if err != nil {
			return nil, err
		}
		if err := snap.CanDowngrade(plan); err != nil {
			return nil, err
		}
	}

	priceID, ok := s.prices.PriceID(s.provider.Name(), plan)
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrPriceNotConfigured, s.provider.Name(), plan)
	}

	req := CheckoutRequest{
		TenantID:   tenantID,
		PlanID:     plan,
		PriceID:    priceID,
		Email:      t.Email,
		SuccessURL: firstNonEmpty(opts.SuccessURL, s.cfg.SuccessURL),
		CancelURL:  firstNonEmpty(opts.CancelURL, s.cfg.CancelURL),
	}

	link, err := s.provider.CreateCheckoutLink(ctx, req)
	if err != nil {
		s.log.ErrorContext(ctx, "checkout failed",
			logger.TenantID(tenantID),
			logger.Plan(string(plan)),
			logger.Provider(s.provider.Name()),
			logger.Error(err),
		)
		return nil, err
	}
	return link, nil
}

// Cancel schedules cancellation at period end and marks the tenant canceling.
func (s *Service) Cancel(ctx context.Context, tenantID uuid.UUID) error {
	t, err := s.tenants.Get(ctx, tenantID)
	if err != nil {
		return err
	}
	if !t.HasSubscription() {
		return ErrNoSubscription
	}

	if err := s.provider.CancelAtPeriodEnd(ctx, t.BillingSubscriptionID); err != nil {
		s.log.ErrorContext(ctx, "cancel failed",
			logger.TenantID(tenantID),
			logger.Provider(s.provider.Name()),
			logger.Error(err),
		)
		return err
	}

	return s.tenants.SetStatus(ctx, tenantID, tenant.StatusCanceling)
}

// HandleWebhook verifies an event and applies it to the tenant record.
// Unhandled event types and events for unknown subscriptions are acknowledged.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	ev, err := s.provider.ParseWebhook(ctx, payload, signature)
	if err != nil {
		return err
	}

	log := s.log.With(
		logger.Provider(s.provider.Name()),
		logger.EventType(ev.ProviderEvent),
		slog.String("event_id", ev.EventID),
	)

	if s.events == nil || ev.EventID == "" || ev.Type == EventIgnored {
		return s.dispatch(ctx, log, ev)
	}

	first, err := s.events.MarkProcessed(ctx, s.provider.Name(), ev.EventID)
	if err != nil {
		// an unavailable event log must not drop the event
		log.WarnContext(ctx, "webhook dedup unavailable", logger.Error(err))
		return s.dispatch(ctx, log, ev)
	}
	if !first {
		log.InfoContext(ctx, "duplicate webhook event skipped")
		return nil
	}

	if err := s.dispatch(ctx, log, ev); err != nil {
		if ferr := s.events.Forget(ctx, s.provider.Name(), ev.EventID); ferr != nil {
			log.WarnContext(ctx, "failed to unmark webhook event", logger.Error(ferr))
		}
		return err
	}
	return nil
}

func (s *Service) dispatch(ctx context.Context, log *slog.Logger, ev *WebhookEvent) error {
	switch ev.Type {
	case EventCheckoutCompleted:
		return s.applyCheckout(ctx, log, ev)
	case EventPaymentSucceeded:
		return s.syncStatus(ctx, log, ev, tenant.StatusActive)
	case EventPaymentFailed:
		return s.syncStatus(ctx, log, ev, tenant.StatusPastDue)
	case EventSubscriptionCanceled:
		return s.syncStatus(ctx, log, ev, tenant.StatusCanceled)
	default:
		log.DebugContext(ctx, "webhook event ignored")
		return nil
	}
}

func (s *Service) applyCheckout(ctx context.Context, log *slog.Logger, ev *WebhookEvent) error {
	tenantID, err := uuid.Parse(ev.TenantID)
	if err != nil {
		return fmt.Errorf("%w: tenant id %q", ErrInvalidWebhook, ev.TenantID)
	}

	plan, ok := plans.ParseID(ev.PlanID)
	if !ok {
		plan, ok = s.prices.PlanForPrice(s.provider.Name(), ev.PriceID)
	}
	if !ok {
		return fmt.Errorf("%w: plan %q", ErrInvalidWebhook, ev.PlanID)
	}

	if err := s.tenants.ApplyCheckout(ctx, tenantID, plan, ev.CustomerID, ev.SubscriptionID); err != nil {
		log.ErrorContext(ctx, "failed to apply checkout", logger.TenantID(tenantID), logger.Error(err))
		return err
	}

	log.InfoContext(ctx, "subscription activated", logger.TenantID(tenantID), logger.Plan(string(plan)))
	return nil
}

func (s *Service) syncStatus(ctx context.Context, log *slog.Logger, ev *WebhookEvent, status tenant.Status) error {
	if ev.SubscriptionID == "" {
		log.WarnContext(ctx, "webhook event without subscription id")
		return nil
	}

	err := s.tenants.SetStatusBySubscription(ctx, ev.SubscriptionID, status)
	switch {
	case errors.Is(err, tenant.ErrNotFound):
		log.WarnContext(ctx, "webhook for unknown subscription", slog.String("subscription_id", ev.SubscriptionID))
		return nil
	case err != nil:
		log.ErrorContext(ctx, "failed to sync subscription status", logger.Error(err))
		return err
	}

	log.InfoContext(ctx, "subscription status synced",
		slog.String("subscription_id", ev.SubscriptionID),
		slog.String("status", string(status)),
	)
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
