package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/dmitrymomot/voicedesk/pkg/billing"
	"github.com/dmitrymomot/voicedesk/pkg/httpserver"
	"github.com/dmitrymomot/voicedesk/pkg/logger"
	"github.com/dmitrymomot/voicedesk/pkg/pg"
	"github.com/dmitrymomot/voicedesk/pkg/redis"
	"github.com/dmitrymomot/voicedesk/pkg/requestid"
	"github.com/dmitrymomot/voicedesk/pkg/tenant"
	"github.com/dmitrymomot/voicedesk/pkg/usage"
	"github.com/dmitrymomot/voicedesk/svc/aiconfig"
	"github.com/dmitrymomot/voicedesk/svc/conversation"
	"github.com/dmitrymomot/voicedesk/svc/datasource"
	"github.com/dmitrymomot/voicedesk/svc/portal"
	"github.com/dmitrymomot/voicedesk/svc/store"
)

func runServer(ctx context.Context, cfg appConfig) error {
	if ctx == nil {
		ctx = context.Background()
	}

	log := logger.New(
		logger.FromConfig(cfg.Log),
		logger.WithOutput(os.Stdout),
		logger.WithContextExtractors(requestid.LoggerExtractor(), tenant.LoggerExtractor()),
	)
	slog.SetDefault(log)

	pool, err := pg.Connect(ctx, cfg.PG)
	if err != nil {
		return err
	}
	defer pool.Close()
	if err := store.Migrate(ctx, pool, cfg.PG, log); err != nil {
		return err
	}
	db := store.NewPostgres(pool)

	checks := []httpserver.Check{{Name: "postgres", Fn: pg.Healthcheck(pool)}}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	usageOpts := []usage.Option{
		usage.FromConfig(cfg.Usage),
		usage.WithLogger(log.With(logger.Component("usage"))),
		usage.WithMetrics(usage.NewMetrics(reg)),
	}
	gate := usage.NewGate(usage.NewResolver(db, db, usageOpts...), db, usageOpts...)

	portalOpts := []portal.Option{
		portal.WithLogger(log),
		portal.WithMetrics(reg),
	}

	var events billing.EventLog
	if cfg.Redis.Enabled() {
		client, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer func() { _ = client.Close() }()
		checks = append(checks, httpserver.Check{Name: "redis", Fn: redis.Healthcheck(client)})
		events = store.NewEventLog(client, cfg.Redis.KeyPrefix, store.DefaultEventTTL)
	}

	billingSvc, err := newBilling(ctx, cfg, db, gate, events, log)
	switch {
	case err == nil:
		portalOpts = append(portalOpts, portal.WithBilling(billingSvc))
	case errors.Is(err, billing.ErrProviderConfig):
		log.WarnContext(ctx, "billing disabled", logger.Error(err))
	default:
		return err
	}
	portalOpts = append(portalOpts,
		portal.WithHealthChecks(checks...),
		portal.WithAIConfigs(aiconfig.NewService(db, log.With(logger.Component("aiconfig")))),
		portal.WithConversations(conversation.NewService(db, gate, log.With(logger.Component("conversation")))),
	)

	tenants := tenant.NewService(db, log.With(logger.Component("tenant")))
	sources := datasource.NewService(db, gate, log.With(logger.Component("datasource")))

	p := portal.New(cfg.Portal, tenants, gate, sources, portalOpts...)
	return httpserver.New(cfg.HTTP, log).Run(ctx, p.Routes())
}

// newBilling returns an error wrapping billing.ErrProviderConfig when the
// selected processor has no credentials.
func newBilling(ctx context.Context, cfg appConfig, db *store.Postgres, gate *usage.Gate, events billing.EventLog, log *slog.Logger) (*billing.Service, error) {
	provider, err := billing.NewProvider(cfg.Billing, cfg.Stripe, cfg.Paddle)
	if err != nil {
		return nil, err
	}
	prices, err := billing.LoadPriceBookFile(cfg.Billing.PricesFile)
	if err != nil {
		return nil, err
	}
	opts := []billing.ServiceOption{
		billing.WithUsageCheck(gate),
		billing.WithLogger(log.With(logger.Component("billing"))),
	}
	if events != nil {
		opts = append(opts, billing.WithEventLog(events))
	}

	log.InfoContext(ctx, "billing enabled", logger.Provider(provider.Name()), slog.Bool("webhook_dedup", events != nil))
	return billing.NewService(provider, prices, db, cfg.Billing, opts...), nil
}
