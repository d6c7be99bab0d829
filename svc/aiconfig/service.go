package aiconfig

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/voicedesk/pkg/logger"
)

type CreateInput struct {
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
}

// UpdateInput changes only the non-nil fields. A non-nil document replaces the
// stored one.
type UpdateInput struct {
	Name            *string        `json:"name"`
	ModelProvider   *string        `json:"model_provider"`
	ModelName       *string        `json:"model_name"`
	ModelParameters map[string]any `json:"model_parameters"`
	VoiceProvider   *string        `json:"voice_provider"`
	VoiceID         *string        `json:"voice_id"`
	VoiceSettings   map[string]any `json:"voice_settings"`
	SystemPrompt    *string        `json:"system_prompt"`
	ResponseStyle   *string        `json:"response_style"`
	EscalationRules map[string]any `json:"escalation_rules"`
	WebhookURL      *string        `json:"webhook_url"`
	WebhookSettings map[string]any `json:"webhook_settings"`
}

type Service struct {
	store Store
	log   *slog.Logger
	now   func() time.Time
}

func NewService(store Store, log *slog.Logger) *Service {
	if store == nil {
		panic("aiconfig: Store is required")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{store: store, log: log, now: time.Now}
}

// Create stores a configuration. A blank name becomes DefaultName and nil
// documents are stored as empty objects.
func (s *Service) Create(ctx context.Context, tenantID uuid.UUID, in CreateInput) (*Config, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = DefaultName
	}
	webhook := strings.TrimSpace(in.WebhookURL)
	if err := validateWebhookURL(webhook); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	c := &Config{
		ID:              uuid.New(),
		TenantID:        tenantID,
		Name:            name,
		ModelProvider:   strings.TrimSpace(in.ModelProvider),
		ModelName:       strings.TrimSpace(in.ModelName),
		ModelParameters: document(in.ModelParameters),
		VoiceProvider:   strings.TrimSpace(in.VoiceProvider),
		VoiceID:         strings.TrimSpace(in.VoiceID),
		VoiceSettings:   document(in.VoiceSettings),
		SystemPrompt:    in.SystemPrompt,
		ResponseStyle:   strings.TrimSpace(in.ResponseStyle),
		EscalationRules: document(in.EscalationRules),
		WebhookURL:      webhook,
		WebhookSettings: document(in.WebhookSettings),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.store.CreateAIConfig(ctx, c); err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "ai configuration created",
		logger.TenantID(tenantID),
		slog.String("ai_config_id", c.ID.String()),
	)
	return c, nil
}

// List returns the tenant's configurations, newest first.
func (s *Service) List(ctx context.Context, tenantID uuid.UUID) ([]Config, error) {
	return s.store.ListAIConfigs(ctx, tenantID)
}

func (s *Service) Get(ctx context.Context, tenantID, id uuid.UUID) (*Config, error) {
	return s.store.GetAIConfig(ctx, tenantID, id)
}

func (s *Service) Update(ctx context.Context, tenantID, id uuid.UUID, in UpdateInput) (*Config, error) {
	c, err := s.store.GetAIConfig(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, ErrNameRequired
		}
		c.Name = name
	}
	if in.WebhookURL != nil {
		webhook := strings.TrimSpace(*in.WebhookURL)
		if err := validateWebhookURL(webhook); err != nil {
			return nil, err
		}
		c.WebhookURL = webhook
	}
	setString(&c.ModelProvider, in.ModelProvider)
	setString(&c.ModelName, in.ModelName)
	setString(&c.VoiceProvider, in.VoiceProvider)
	setString(&c.VoiceID, in.VoiceID)
	setString(&c.ResponseStyle, in.ResponseStyle)
	if in.SystemPrompt != nil {
		c.SystemPrompt = *in.SystemPrompt
	}
	setDocument(&c.ModelParameters, in.ModelParameters)
	setDocument(&c.VoiceSettings, in.VoiceSettings)
	setDocument(&c.EscalationRules, in.EscalationRules)
	setDocument(&c.WebhookSettings, in.WebhookSettings)
	c.UpdatedAt = s.now().UTC()

	if err := s.store.UpdateAIConfig(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.store.DeleteAIConfig(ctx, tenantID, id)
}

// validateWebhookURL accepts an empty value.
func validateWebhookURL(raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return ErrInvalidWebhookURL
	}
	return nil
}

func document(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

func setDocument(dst *map[string]any, v map[string]any) {
	if v != nil {
		*dst = v
	}
}
