package main

import (
	"github.com/dmitrymomot/voicedesk/pkg/billing"
	"github.com/dmitrymomot/voicedesk/pkg/config"
	"github.com/dmitrymomot/voicedesk/pkg/httpserver"
	"github.com/dmitrymomot/voicedesk/pkg/logger"
	"github.com/dmitrymomot/voicedesk/pkg/pg"
	"github.com/dmitrymomot/voicedesk/pkg/redis"
	"github.com/dmitrymomot/voicedesk/pkg/usage"
	"github.com/dmitrymomot/voicedesk/svc/portal"
)

type appConfig struct {
	Log     logger.Config
	PG      pg.Config
	Redis   redis.Config
	HTTP    httpserver.Config
	Usage   usage.Config
	Portal  portal.Config
	Billing billing.Config
	Stripe  billing.StripeConfig
	Paddle  billing.PaddleConfig
}

// migrateConfig avoids requiring HTTP and billing settings for schema changes.
type migrateConfig struct {
	Log logger.Config
	PG  pg.Config
}

func loadConfig[T any](envFiles []string) (T, error) {
	return config.Load[T](config.WithEnvFiles(envFiles...))
}
