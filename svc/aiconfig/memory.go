package aiconfig

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store for tests and local runs.
type MemoryStore struct {
	mu   sync.Mutex
	rows map[uuid.UUID]Config
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[uuid.UUID]Config)}
}

func (m *MemoryStore) CreateAIConfig(_ context.Context, c *Config) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[c.ID] = clone(*c)
	return nil
}

func (m *MemoryStore) ListAIConfigs(_ context.Context, tenantID uuid.UUID) ([]Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Config, 0)
	for _, c := range m.rows {
		if c.TenantID == tenantID {
			out = append(out, clone(c))
		}
	}
	slices.SortFunc(out, func(a, b Config) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out, nil
}

func (m *MemoryStore) GetAIConfig(_ context.Context, tenantID, id uuid.UUID) (*Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[id]
	if !ok || c.TenantID != tenantID {
		return nil, ErrNotFound
	}
	out := clone(c)
	return &out, nil
}

func (m *MemoryStore) UpdateAIConfig(_ context.Context, c *Config) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.rows[c.ID]
	if !ok || cur.TenantID != c.TenantID {
		return ErrNotFound
	}
	m.rows[c.ID] = clone(*c)
	return nil
}

func (m *MemoryStore) DeleteAIConfig(_ context.Context, tenantID, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[id]
	if !ok || c.TenantID != tenantID {
		return ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func clone(c Config) Config {
	c.ModelParameters = maps.Clone(c.ModelParameters)
	c.VoiceSettings = maps.Clone(c.VoiceSettings)
	c.EscalationRules = maps.Clone(c.EscalationRules)
	c.WebhookSettings = maps.Clone(c.WebhookSettings)
	return c
}
