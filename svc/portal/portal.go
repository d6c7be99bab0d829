package portal

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrymomot/voicedesk/pkg/billing"
	"github.com/dmitrymomot/voicedesk/pkg/httpserver"
	"github.com/dmitrymomot/voicedesk/pkg/plans"
	"github.com/dmitrymomot/voicedesk/pkg/requestid"
	"github.com/dmitrymomot/voicedesk/pkg/tenant"
	"github.com/dmitrymomot/voicedesk/pkg/usage"
	"github.com/dmitrymomot/voicedesk/svc/aiconfig"
	"github.com/dmitrymomot/voicedesk/svc/conversation"
	"github.com/dmitrymomot/voicedesk/svc/datasource"
)

type Config struct {
	TenantHeader     string        `env:"TENANT_HEADER" envDefault:"X-Tenant-ID"`
	ReadinessTimeout time.Duration `env:"READINESS_TIMEOUT" envDefault:"5s"`
}

type Tenants interface {
	Register(ctx context.Context, in tenant.RegisterInput) (*tenant.Tenant, error)
}

// Gate is satisfied by *usage.Gate.
type Gate interface {
	Resolve(ctx context.Context, tenantID uuid.UUID) (*usage.Snapshot, error)
	CheckLimit(ctx context.Context, tenantID uuid.UUID, category plans.Category) (bool, error)
	Decide(ctx context.Context, tenantID uuid.UUID, category plans.Category) (usage.Decision, error)
	RecordUsage(ctx context.Context, tenantID uuid.UUID, category plans.Category, amount int64) bool
	Evaluate(ctx context.Context, tenantID uuid.UUID, category plans.Category) usage.GuardView
}

// Billing is satisfied by *billing.Service.
type Billing interface {
	Checkout(ctx context.Context, tenantID uuid.UUID, plan plans.ID, opts billing.CheckoutOptions) (*billing.CheckoutLink, error)
	Cancel(ctx context.Context, tenantID uuid.UUID) error
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

// DataSources is satisfied by *datasource.Service.
type DataSources interface {
	Create(ctx context.Context, tenantID uuid.UUID, in datasource.CreateInput) (*datasource.DataSource, error)
	List(ctx context.Context, tenantID uuid.UUID) ([]datasource.DataSource, error)
	Update(ctx context.Context, tenantID, id uuid.UUID, in datasource.UpdateInput) (*datasource.DataSource, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

// AIConfigs is satisfied by *aiconfig.Service.
type AIConfigs interface {
	Create(ctx context.Context, tenantID uuid.UUID, in aiconfig.CreateInput) (*aiconfig.Config, error)
	List(ctx context.Context, tenantID uuid.UUID) ([]aiconfig.Config, error)
	Get(ctx context.Context, tenantID, id uuid.UUID) (*aiconfig.Config, error)
	Update(ctx context.Context, tenantID, id uuid.UUID, in aiconfig.UpdateInput) (*aiconfig.Config, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

// Conversations is satisfied by *conversation.Service.
type Conversations interface {
	Start(ctx context.Context, tenantID uuid.UUID, in conversation.StartInput) (*conversation.Conversation, error)
	Finish(ctx context.Context, tenantID, id uuid.UUID, status conversation.Status) (*conversation.Conversation, error)
	AddMessage(ctx context.Context, tenantID, conversationID uuid.UUID, in conversation.MessageInput) (*conversation.Message, error)
	Messages(ctx context.Context, tenantID, conversationID uuid.UUID) ([]conversation.Message, error)
}

type Portal struct {
	cfg           Config
	tenants       Tenants
	gate          Gate
	sources       DataSources
	aiConfigs     AIConfigs
	conversations Conversations
	billing       Billing
	gatherer      prometheus.Gatherer
	checks        []httpserver.Check
	log           *slog.Logger
}

type Option func(*Portal)

func WithLogger(log *slog.Logger) Option {
	return func(p *Portal) {
		if log != nil {
			p.log = log
		}
	}
}

// WithBilling mounts the checkout, cancel and webhook routes.
func WithBilling(b Billing) Option {
	return func(p *Portal) { p.billing = b }
}

// WithAIConfigs mounts the /api/ai-configurations routes.
func WithAIConfigs(a AIConfigs) Option {
	return func(p *Portal) { p.aiConfigs = a }
}

// WithConversations mounts the /api/conversations routes.
func WithConversations(c Conversations) Option {
	return func(p *Portal) { p.conversations = c }
}

// WithMetrics serves /metrics from g.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(p *Portal) { p.gatherer = g }
}

// WithHealthChecks adds readiness checks.
func WithHealthChecks(checks ...httpserver.Check) Option {
	return func(p *Portal) { p.checks = append(p.checks, checks...) }
}

// New creates the portal. Panics if a required dependency is nil.
func New(cfg Config, tenants Tenants, gate Gate, sources DataSources, opts ...Option) *Portal {
	if tenants == nil || gate == nil || sources == nil {
		panic("portal: tenants, gate and data sources are required")
	}
	p := &Portal{
		cfg:     cfg,
		tenants: tenants,
		gate:    gate,
		sources: sources,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.cfg.ReadinessTimeout <= 0 {
		p.cfg.ReadinessTimeout = 5 * time.Second
	}
	return p
}

// Routes builds the router.
func (p *Portal) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(p.accessLog)
	r.Use(middleware.Recoverer)

	r.Get("/health/live", httpserver.LivenessHandler())
	r.Get("/health/ready", httpserver.ReadinessHandler(p.log, p.cfg.ReadinessTimeout, p.checks...))
	if p.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(p.gatherer, promhttp.HandlerOpts{}))
	}

	tenantErr := func(w http.ResponseWriter, r *http.Request, err error) {
		_ = JSONError(err).Render(w, r)
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/tenants", handle(p.log, p.signup))
		if p.billing != nil {
			r.Post("/billing/webhook", handle(p.log, p.webhook))
		}

		r.Group(func(r chi.Router) {
			r.Use(tenant.Middleware(tenant.NewHeaderResolver(p.cfg.TenantHeader), tenantErr))
			r.Use(tenant.RequireTenant(tenantErr))

			r.Get("/billing/subscription-info", handle(p.log, p.subscriptionInfo))
			if p.billing != nil {
				r.Post("/billing/checkout", handle(p.log, p.checkout))
				r.Post("/billing/cancel", handle(p.log, p.cancel))
			}

			r.Post("/usage/check", handle(p.log, p.checkUsage))
			r.Post("/usage/increment", handle(p.log, p.incrementUsage))
			r.Get("/usage/guard/{category}", handle(p.log, p.guard))

			r.Get("/data-sources", handle(p.log, p.listDataSources))
			r.Post("/data-sources", handle(p.log, p.createDataSource))
			r.Put("/data-sources/{id}", handle(p.log, p.updateDataSource))
			r.Delete("/data-sources/{id}", handle(p.log, p.deleteDataSource))

			if p.aiConfigs != nil {
				r.Get("/ai-configurations", handle(p.log, p.listAIConfigs))
				r.Post("/ai-configurations", handle(p.log, p.createAIConfig))
				r.Get("/ai-configurations/{id}", handle(p.log, p.getAIConfig))
				r.Put("/ai-configurations/{id}", handle(p.log, p.updateAIConfig))
				r.Delete("/ai-configurations/{id}", handle(p.log, p.deleteAIConfig))
			}
			if p.conversations != nil {
				r.Post("/conversations", handle(p.log, p.startConversation))
				r.Patch("/conversations/{id}", handle(p.log, p.finishConversation))
				r.Get("/conversations/{id}/messages", handle(p.log, p.listMessages))
				r.Post("/conversations/{id}/messages", handle(p.log, p.addMessage))
			}
		})
	})

	return r
}

func (p *Portal) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		p.log.DebugContext(r.Context(), "http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Int("bytes", ww.BytesWritten()),
			slog.Duration("duration", time.Since(start)),
		)
	})
}

// tenantID is only called behind RequireTenant.
func tenantID(r *http.Request) uuid.UUID {
	id, _ := tenant.IDFromContext(r.Context())
	return id
}
