// Package conversation logs customer conversations handled by the assistant and
// their transcripts. Starting a conversation consumes one unit of the plan's
// conversations limit.
package conversation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound          = errors.New("conversation not found")
	ErrInvalidStatus     = errors.New("invalid conversation status")
	ErrInvalidSpeaker    = errors.New("invalid speaker")
	ErrMessageRequired   = errors.New("message text is required")
	ErrInvalidConfidence = errors.New("confidence must be between 0 and 1")
	ErrUnknownAIConfig   = errors.New("ai configuration not found for tenant")
	ErrLimitReached      = errors.New("conversation limit reached for current plan")
	ErrUsageUnverified   = errors.New("unable to verify usage")
)

type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusEscalated Status = "escalated"
	StatusAbandoned Status = "abandoned"
)

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusCompleted, StatusEscalated, StatusAbandoned:
		return true
	}
	return false
}

type Speaker string

const (
	SpeakerCustomer Speaker = "customer"
	SpeakerAI       Speaker = "ai"
)

func (s Speaker) Valid() bool {
	return s == SpeakerCustomer || s == SpeakerAI
}

type Conversation struct {
	ID            uuid.UUID  `json:"id"`
	TenantID      uuid.UUID  `json:"tenant_id"`
	AIConfigID    *uuid.UUID `json:"ai_config_id,omitempty"`
	SessionID     string     `json:"session_id"`
	CustomerName  string     `json:"customer_name"`
	CustomerPhone string     `json:"customer_phone"`
	Status        Status     `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type Message struct {
	ID             uuid.UUID `json:"id"`
	ConversationID uuid.UUID `json:"conversation_id"`
	Speaker        Speaker   `json:"speaker"`
	Message        string    `json:"message"`
	Confidence     *float64  `json:"confidence,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Store persists conversations and messages. Conversation lookups are scoped to
// a tenant; rows of other tenants read as ErrNotFound.
type Store interface {
	// CreateConversation returns ErrUnknownAIConfig when AIConfigID names a
	// configuration of another tenant or none at all.
	CreateConversation(ctx context.Context, c *Conversation) error
	GetConversation(ctx context.Context, tenantID, id uuid.UUID) (*Conversation, error)
	SetConversationStatus(ctx context.Context, tenantID, id uuid.UUID, status Status, at time.Time) error
	AddMessage(ctx context.Context, m *Message) error
	// ListMessages returns the transcript oldest first.
	ListMessages(ctx context.Context, conversationID uuid.UUID) ([]Message, error)
}
