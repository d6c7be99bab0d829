// Package aiconfig manages the assistant configurations of a tenant: model,
// voice, system prompt, escalation and webhook settings.
package aiconfig

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// DefaultName is used when a configuration is created without a name.
const DefaultName = "New Configuration"

var (
	ErrNotFound          = errors.New("ai configuration not found")
	ErrNameRequired      = errors.New("ai configuration name is required")
	ErrInvalidWebhookURL = errors.New("webhook url must be an absolute http or https url")
)

// Config is one assistant configuration. Provider specific settings are kept as
// free-form documents.
type Config struct {
	ID              uuid.UUID      `json:"id"`
	TenantID        uuid.UUID      `json:"tenant_id"`
	Name            string         `json:"name"`
	ModelProvider   string         `json:"model_provider"`
	ModelName       string         `json:"model_name"`
	ModelParameters map[string]any `json:"model_parameters"`
	VoiceProvider   string         `json:"voice_provider"`
	VoiceID         string         `json:"voice_id"`
	VoiceSettings   map[string]any `json:"voice_settings"`
	SystemPrompt    string         `json:"system_prompt"`
	ResponseStyle   string         `json:"response_style"`
	EscalationRules map[string]any `json:"escalation_rules"`
	WebhookURL      string         `json:"webhook_url"`
	WebhookSettings map[string]any `json:"webhook_settings"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// Store persists configurations. Every method is scoped to a tenant; rows of
// other tenants read as ErrNotFound.
type Store interface {
	CreateAIConfig(ctx context.Context, c *Config) error
	ListAIConfigs(ctx context.Context, tenantID uuid.UUID) ([]Config, error)
	GetAIConfig(ctx context.Context, tenantID, id uuid.UUID) (*Config, error)
	UpdateAIConfig(ctx context.Context, c *Config) error
	DeleteAIConfig(ctx context.Context, tenantID, id uuid.UUID) error
}
