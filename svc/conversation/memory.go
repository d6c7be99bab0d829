package conversation

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store for tests and local runs.
type MemoryStore struct {
	mu            sync.Mutex
	conversations map[uuid.UUID]Conversation
	messages      map[uuid.UUID][]Message
	aiConfigs     map[uuid.UUID]uuid.UUID
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		conversations: make(map[uuid.UUID]Conversation),
		messages:      make(map[uuid.UUID][]Message),
		aiConfigs:     make(map[uuid.UUID]uuid.UUID),
	}
}

// AddAIConfig registers a configuration conversations of tenantID may reference.
func (m *MemoryStore) AddAIConfig(tenantID, id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.aiConfigs[id] = tenantID
}

func (m *MemoryStore) CreateConversation(_ context.Context, c *Conversation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.AIConfigID != nil {
		if owner, ok := m.aiConfigs[*c.AIConfigID]; !ok || owner != c.TenantID {
			return ErrUnknownAIConfig
		}
	}
	m.conversations[c.ID] = *c
	return nil
}

func (m *MemoryStore) GetConversation(_ context.Context, tenantID, id uuid.UUID) (*Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.conversations[id]
	if !ok || c.TenantID != tenantID {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (m *MemoryStore) SetConversationStatus(_ context.Context, tenantID, id uuid.UUID, status Status, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.conversations[id]
	if !ok || c.TenantID != tenantID {
		return ErrNotFound
	}
	c.Status = status
	c.UpdatedAt = at
	m.conversations[id] = c
	return nil
}

func (m *MemoryStore) AddMessage(_ context.Context, msg *Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.conversations[msg.ConversationID]; !ok {
		return ErrNotFound
	}
	m.messages[msg.ConversationID] = append(m.messages[msg.ConversationID], *msg)
	return nil
}

func (m *MemoryStore) ListMessages(_ context.Context, conversationID uuid.UUID) ([]Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := slices.Clone(m.messages[conversationID])
	if out == nil {
		out = make([]Message, 0)
	}
	slices.SortStableFunc(out, func(a, b Message) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return out, nil
}
