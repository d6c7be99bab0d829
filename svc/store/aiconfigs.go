package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/voicedesk/pkg/pg"
	"github.com/dmitrymomot/voicedesk/svc/aiconfig"
)

const aiConfigColumns = `id, tenant_id, name, model_provider, model_name, model_parameters,
	voice_provider, voice_id, voice_settings, system_prompt, response_style,
	escalation_rules, webhook_url, webhook_settings, created_at, updated_at`

// aiConfigDocuments encodes the four JSONB columns in column order.
func aiConfigDocuments(c *aiconfig.Config) (params, voice, escalation, webhook []byte, err error) {
	docs := []struct {
		name string
		v    map[string]any
		dst  *[]byte
	}{
		{"model parameters", c.ModelParameters, &params},
		{"voice settings", c.VoiceSettings, &voice},
		{"escalation rules", c.EscalationRules, &escalation},
		{"webhook settings", c.WebhookSettings, &webhook},
	}
	for _, d := range docs {
		v := d.v
		if v == nil {
			v = map[string]any{}
		}
		b, err := json.Marshal(v)
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("encode %s: %w", d.name, err)
		}
		*d.dst = b
	}
	return params, voice, escalation, webhook, nil
}

func (p *Postgres) CreateAIConfig(ctx context.Context, c *aiconfig.Config) error {
	params, voice, escalation, webhook, err := aiConfigDocuments(c)
	if err != nil {
		return err
	}
	_, err = p.db.Exec(ctx, `
		INSERT INTO ai_configurations (`+aiConfigColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		c.ID, c.TenantID, c.Name, c.ModelProvider, c.ModelName, params,
		c.VoiceProvider, c.VoiceID, voice, c.SystemPrompt, c.ResponseStyle,
		escalation, c.WebhookURL, webhook, c.CreatedAt, c.UpdatedAt,
	)
	return err
}

func (p *Postgres) ListAIConfigs(ctx context.Context, tenantID uuid.UUID) ([]aiconfig.Config, error) {
	rows, err := p.db.Query(ctx, `
		SELECT `+aiConfigColumns+`
		FROM ai_configurations
		WHERE tenant_id = $1
		ORDER BY created_at DESC`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]aiconfig.Config, 0)
	for rows.Next() {
		c, err := scanAIConfig(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (p *Postgres) GetAIConfig(ctx context.Context, tenantID, id uuid.UUID) (*aiconfig.Config, error) {
	c, err := scanAIConfig(p.db.QueryRow(ctx, `
		SELECT `+aiConfigColumns+`
		FROM ai_configurations
		WHERE id = $1 AND tenant_id = $2`, id, tenantID))
	if pg.IsNotFoundError(err) {
		return nil, aiconfig.ErrNotFound
	}
	return c, err
}

func (p *Postgres) UpdateAIConfig(ctx context.Context, c *aiconfig.Config) error {
	params, voice, escalation, webhook, err := aiConfigDocuments(c)
	if err != nil {
		return err
	}
	tag, err := p.db.Exec(ctx, `
		UPDATE ai_configurations SET
			name = $3,
			model_provider = $4,
			model_name = $5,
			model_parameters = $6,
			voice_provider = $7,
			voice_id = $8,
			voice_settings = $9,
			system_prompt = $10,
			response_style = $11,
			escalation_rules = $12,
			webhook_url = $13,
			webhook_settings = $14,
			updated_at = $15
		WHERE id = $1 AND tenant_id = $2`,
		c.ID, c.TenantID, c.Name, c.ModelProvider, c.ModelName, params,
		c.VoiceProvider, c.VoiceID, voice, c.SystemPrompt, c.ResponseStyle,
		escalation, c.WebhookURL, webhook, c.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return aiconfig.ErrNotFound
	}
	return nil
}

func (p *Postgres) DeleteAIConfig(ctx context.Context, tenantID, id uuid.UUID) error {
	tag, err := p.db.Exec(ctx, `DELETE FROM ai_configurations WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return aiconfig.ErrNotFound
	}
	return nil
}

func scanAIConfig(row pgx.Row) (*aiconfig.Config, error) {
	var (
		c                                  aiconfig.Config
		params, voice, escalation, webhook []byte
	)
	if err := row.Scan(
		&c.ID, &c.TenantID, &c.Name, &c.ModelProvider, &c.ModelName, &params,
		&c.VoiceProvider, &c.VoiceID, &voice, &c.SystemPrompt, &c.ResponseStyle,
		&escalation, &c.WebhookURL, &webhook, &c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	for _, d := range []struct {
		name string
		raw  []byte
		dst  *map[string]any
	}{
		{"model parameters", params, &c.ModelParameters},
		{"voice settings", voice, &c.VoiceSettings},
		{"escalation rules", escalation, &c.EscalationRules},
		{"webhook settings", webhook, &c.WebhookSettings},
	} {
		if len(d.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(d.raw, d.dst); err != nil {
			return nil, fmt.Errorf("decode %s: %w", d.name, err)
		}
	}
	return &c, nil
}
