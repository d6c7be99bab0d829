package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/voicedesk/pkg/pg"
	"github.com/dmitrymomot/voicedesk/svc/conversation"
)

func (p *Postgres) CreateConversation(ctx context.Context, c *conversation.Conversation) error {
	// the referenced configuration must belong to the same tenant
	tag, err := p.db.Exec(ctx, `
		INSERT INTO conversations (id, tenant_id, ai_config_id, session_id, customer_name, customer_phone, status, created_at, updated_at)
		SELECT $1, $2, $3, $4, $5, $6, $7, $8, $9
		WHERE $3::uuid IS NULL
			OR EXISTS (SELECT 1 FROM ai_configurations WHERE id = $3 AND tenant_id = $2)`,
		c.ID, c.TenantID, c.AIConfigID, c.SessionID, c.CustomerName, c.CustomerPhone,
		string(c.Status), c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return conversation.ErrUnknownAIConfig
	}
	return nil
}

func (p *Postgres) GetConversation(ctx context.Context, tenantID, id uuid.UUID) (*conversation.Conversation, error) {
	var (
		c      conversation.Conversation
		status string
	)
	err := p.db.QueryRow(ctx, `
		SELECT id, tenant_id, ai_config_id, session_id, customer_name, customer_phone, status, created_at, updated_at
		FROM conversations
		WHERE id = $1 AND tenant_id = $2`, id, tenantID,
	).Scan(&c.ID, &c.TenantID, &c.AIConfigID, &c.SessionID, &c.CustomerName, &c.CustomerPhone, &status, &c.CreatedAt, &c.UpdatedAt)
	if pg.IsNotFoundError(err) {
		return nil, conversation.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	c.Status = conversation.Status(status)
	return &c, nil
}

func (p *Postgres) SetConversationStatus(ctx context.Context, tenantID, id uuid.UUID, status conversation.Status, at time.Time) error {
	tag, err := p.db.Exec(ctx, `
		UPDATE conversations SET status = $3, updated_at = $4
		WHERE id = $1 AND tenant_id = $2`, id, tenantID, string(status), at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return conversation.ErrNotFound
	}
	return nil
}

func (p *Postgres) AddMessage(ctx context.Context, m *conversation.Message) error {
	_, err := p.db.Exec(ctx, `
		INSERT INTO conversation_messages (id, conversation_id, speaker, message, confidence, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		m.ID, m.ConversationID, string(m.Speaker), m.Message, m.Confidence, m.CreatedAt,
	)
	if pg.IsForeignKeyViolationError(err) {
		return conversation.ErrNotFound
	}
	return err
}

func (p *Postgres) ListMessages(ctx context.Context, conversationID uuid.UUID) ([]conversation.Message, error) {
	rows, err := p.db.Query(ctx, `
		SELECT id, conversation_id, speaker, message, confidence, created_at
		FROM conversation_messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC, id ASC`, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]conversation.Message, 0)
	for rows.Next() {
		var (
			m       conversation.Message
			speaker string
		)
		if err := rows.Scan(&m.ID, &m.ConversationID, &speaker, &m.Message, &m.Confidence, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.Speaker = conversation.Speaker(speaker)
		out = append(out, m)
	}
	return out, rows.Err()
}
