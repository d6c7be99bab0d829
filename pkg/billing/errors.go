package billing

import "errors"

var (
	ErrInvalidSignature   = errors.New("invalid webhook signature")
	ErrInvalidWebhook     = errors.New("invalid webhook payload")
	ErrPriceNotConfigured = errors.New("no price configured for plan")
	ErrNoSubscription     = errors.New("tenant has no billing subscription")
	ErrAlreadySubscribed  = errors.New("tenant is already subscribed to this plan")
	ErrUnknownProvider    = errors.New("unknown billing provider")
	ErrProviderConfig     = errors.New("billing provider is not configured")
	ErrInvalidPriceBook   = errors.New("invalid price book")
)
