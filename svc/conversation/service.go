package conversation

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/voicedesk/pkg/logger"
	"github.com/dmitrymomot/voicedesk/pkg/plans"
	"github.com/dmitrymomot/voicedesk/pkg/usage"
)

// Gate is the subset of *usage.Gate the service meters through.
type Gate interface {
	CheckLimit(ctx context.Context, tenantID uuid.UUID, category plans.Category) (bool, error)
	RecordUsage(ctx context.Context, tenantID uuid.UUID, category plans.Category, amount int64) bool
}

type StartInput struct {
	AIConfigID    *uuid.UUID `json:"ai_config_id"`
	SessionID     string     `json:"session_id"`
	CustomerName  string     `json:"customer_name"`
	CustomerPhone string     `json:"customer_phone"`
}

type MessageInput struct {
	Speaker    Speaker  `json:"speaker"`
	Message    string   `json:"message"`
	Confidence *float64 `json:"confidence"`
}

type Service struct {
	store Store
	gate  Gate
	log   *slog.Logger
	now   func() time.Time
}

func NewService(store Store, gate Gate, log *slog.Logger) *Service {
	if store == nil {
		panic("conversation: Store is required")
	}
	if gate == nil {
		panic("conversation: Gate is required")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{store: store, gate: gate, log: log, now: time.Now}
}

// Start checks the conversations limit, opens the conversation and records one
// unit of usage. A failed usage record is logged and the conversation is kept.
func (s *Service) Start(ctx context.Context, tenantID uuid.UUID, in StartInput) (*Conversation, error) {
	allowed, err := s.gate.CheckLimit(ctx, tenantID, plans.Conversations)
	if !allowed {
		switch {
		case err == nil:
			return nil, ErrLimitReached
		case errors.Is(err, usage.ErrNotFound):
			return nil, err
		default:
			return nil, errors.Join(ErrUsageUnverified, err)
		}
	}

	now := s.now().UTC()
	c := &Conversation{
		ID:            uuid.New(),
		TenantID:      tenantID,
		AIConfigID:    in.AIConfigID,
		SessionID:     strings.TrimSpace(in.SessionID),
		CustomerName:  strings.TrimSpace(in.CustomerName),
		CustomerPhone: strings.TrimSpace(in.CustomerPhone),
		Status:        StatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if c.SessionID == "" {
		c.SessionID = c.ID.String()
	}
	if err := s.store.CreateConversation(ctx, c); err != nil {
		return nil, err
	}

	if !s.gate.RecordUsage(ctx, tenantID, plans.Conversations, 1) {
		s.log.WarnContext(ctx, "conversation started without usage record",
			logger.TenantID(tenantID),
			slog.String("conversation_id", c.ID.String()),
		)
	}
	return c, nil
}

// Finish sets a terminal or active status. Usage is not released: a conversation
// that happened stays counted.
func (s *Service) Finish(ctx context.Context, tenantID, id uuid.UUID, status Status) (*Conversation, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	now := s.now().UTC()
	if err := s.store.SetConversationStatus(ctx, tenantID, id, status, now); err != nil {
		return nil, err
	}
	return s.store.GetConversation(ctx, tenantID, id)
}

func (s *Service) AddMessage(ctx context.Context, tenantID, conversationID uuid.UUID, in MessageInput) (*Message, error) {
	if !in.Speaker.Valid() {
		return nil, ErrInvalidSpeaker
	}
	text := strings.TrimSpace(in.Message)
	if text == "" {
		return nil, ErrMessageRequired
	}
	if in.Confidence != nil && (*in.Confidence < 0 || *in.Confidence > 1) {
		return nil, ErrInvalidConfidence
	}
	if _, err := s.store.GetConversation(ctx, tenantID, conversationID); err != nil {
		return nil, err
	}

	m := &Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		Speaker:        in.Speaker,
		Message:        text,
		Confidence:     in.Confidence,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.store.AddMessage(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Messages returns the transcript oldest first. Conversations of other tenants
// read as ErrNotFound.
func (s *Service) Messages(ctx context.Context, tenantID, conversationID uuid.UUID) ([]Message, error) {
	if _, err := s.store.GetConversation(ctx, tenantID, conversationID); err != nil {
		return nil, err
	}
	return s.store.ListMessages(ctx, conversationID)
}
