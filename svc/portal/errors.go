package portal

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/voicedesk/pkg/billing"
	"github.com/dmitrymomot/voicedesk/pkg/plans"
	"github.com/dmitrymomot/voicedesk/pkg/tenant"
	"github.com/dmitrymomot/voicedesk/pkg/usage"
	"github.com/dmitrymomot/voicedesk/svc/aiconfig"
	"github.com/dmitrymomot/voicedesk/svc/conversation"
	"github.com/dmitrymomot/voicedesk/svc/datasource"
)

var (
	ErrInvalidJSON          = errors.New("invalid JSON body")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrInvalidID            = errors.New("invalid identifier")
	ErrLimitReached         = errors.New("usage limit reached")
	ErrRecordFailed         = errors.New("usage could not be recorded")

	errNilResponse = errors.New("handler returned nil response")
)

type errorMapping struct {
	target  error
	status  int
	code    string
	message string
}

// First match wins. Decode errors can wrap plan and category errors, and
// unverified usage is checked before not-found.
var errorMappings = []errorMapping{
	{plans.ErrInvalidCategory, http.StatusBadRequest, "invalid_category", ""},
	{plans.ErrUnknownPlan, http.StatusBadRequest, "invalid_plan", ""},
	{ErrInvalidJSON, http.StatusBadRequest, "invalid_json", ""},
	{ErrUnsupportedMediaType, http.StatusUnsupportedMediaType, "unsupported_media_type", ""},
	{ErrInvalidID, http.StatusBadRequest, "invalid_id", ""},
	{usage.ErrInvalidAmount, http.StatusBadRequest, "invalid_amount", ""},

	{datasource.ErrUsageUnverified, http.StatusServiceUnavailable, "usage_unverified", "unable to verify usage"},
	{conversation.ErrUsageUnverified, http.StatusServiceUnavailable, "usage_unverified", "unable to verify usage"},
	{usage.ErrDependencyUnavailable, http.StatusServiceUnavailable, "usage_unverified", "unable to verify usage"},
	{usage.ErrNotFound, http.StatusNotFound, "tenant_not_found", ""},
	{tenant.ErrNotFound, http.StatusNotFound, "tenant_not_found", ""},
	{datasource.ErrNotFound, http.StatusNotFound, "not_found", ""},
	{aiconfig.ErrNotFound, http.StatusNotFound, "not_found", ""},
	{conversation.ErrNotFound, http.StatusNotFound, "not_found", ""},

	{ErrLimitReached, http.StatusTooManyRequests, "limit_reached", ""},
	{datasource.ErrLimitReached, http.StatusTooManyRequests, "limit_reached", ""},
	{conversation.ErrLimitReached, http.StatusTooManyRequests, "limit_reached", ""},
	{usage.ErrDowngradeBlocked, http.StatusConflict, "downgrade_blocked", ""},
	{ErrRecordFailed, http.StatusInternalServerError, "record_failed", ""},

	{tenant.ErrNameRequired, http.StatusUnprocessableEntity, "validation_error", ""},
	{tenant.ErrEmailRequired, http.StatusUnprocessableEntity, "validation_error", ""},
	{tenant.ErrInvalidEmail, http.StatusUnprocessableEntity, "validation_error", ""},
	{tenant.ErrInvalidPlan, http.StatusUnprocessableEntity, "validation_error", ""},
	{tenant.ErrAlreadyExists, http.StatusConflict, "already_exists", ""},
	{tenant.ErrInvalidIdentifier, http.StatusBadRequest, "invalid_tenant", ""},
	{tenant.ErrNoTenantInContext, http.StatusUnauthorized, "unauthorized", ""},
	{datasource.ErrNameRequired, http.StatusUnprocessableEntity, "validation_error", ""},
	{datasource.ErrConfigRequired, http.StatusUnprocessableEntity, "validation_error", ""},
	{datasource.ErrInvalidType, http.StatusUnprocessableEntity, "validation_error", ""},
	{datasource.ErrInvalidSync, http.StatusUnprocessableEntity, "validation_error", ""},
	{datasource.ErrInvalidStatus, http.StatusUnprocessableEntity, "validation_error", ""},
	{aiconfig.ErrNameRequired, http.StatusUnprocessableEntity, "validation_error", ""},
	{aiconfig.ErrInvalidWebhookURL, http.StatusUnprocessableEntity, "validation_error", ""},
	{conversation.ErrInvalidStatus, http.StatusUnprocessableEntity, "validation_error", ""},
	{conversation.ErrInvalidSpeaker, http.StatusUnprocessableEntity, "validation_error", ""},
	{conversation.ErrMessageRequired, http.StatusUnprocessableEntity, "validation_error", ""},
	{conversation.ErrInvalidConfidence, http.StatusUnprocessableEntity, "validation_error", ""},
	{conversation.ErrUnknownAIConfig, http.StatusUnprocessableEntity, "validation_error", ""},

	{billing.ErrInvalidSignature, http.StatusBadRequest, "invalid_signature", ""},
	{billing.ErrInvalidWebhook, http.StatusBadRequest, "invalid_webhook", ""},
	{billing.ErrNoSubscription, http.StatusConflict, "no_subscription", ""},
	{billing.ErrAlreadySubscribed, http.StatusConflict, "already_subscribed", ""},
	{billing.ErrPriceNotConfigured, http.StatusUnprocessableEntity, "price_not_configured", ""},
}

// classify maps err to a status, code and client-safe message. Unknown errors
// become 500 without leaking their text.
func classify(err error) (status int, code, message string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			msg := m.message
			if msg == "" {
				msg = m.target.Error()
			}
			return m.status, m.code, msg
		}
	}
	return http.StatusInternalServerError, "internal_error", http.StatusText(http.StatusInternalServerError)
}
