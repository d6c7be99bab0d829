// Package logger builds the service's *slog.Logger and keeps attribute naming
// consistent across packages.
//
// New selects a text or JSON handler from Config and wraps it with a decorator
// that runs ContextExtractor callbacks on every record, so request-scoped values
// such as the request ID and tenant ID appear without being passed explicitly:
//
//	log := logger.New(
//	    logger.FromConfig(cfg.Log),
//	    logger.WithContextExtractors(requestid.LoggerExtractor(), tenant.LoggerExtractor()),
//	)
//	log.InfoContext(ctx, "usage recorded", logger.Category("conversations"), logger.Delta(1))
//
// Attribute helpers such as Error, TenantID and Outcome return an empty slog.Attr
// for nil inputs, which slog drops.
package logger
