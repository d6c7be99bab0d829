package billing

var (
	NormalizeStripeEvent = normalizeStripeEvent
	NormalizePaddleEvent = normalizePaddleEvent
)
