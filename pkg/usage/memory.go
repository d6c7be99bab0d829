package usage

import (
	"context"
	"maps"
	"sync"

	"github.com/google/uuid"

	"github.com/dmitrymomot/voicedesk/pkg/plans"
	"github.com/dmitrymomot/voicedesk/pkg/tenant"
)

// MemoryStore is an in-process TenantReader and CounterStore.
// Increments are atomic under a mutex, which makes it a faithful stand-in for the
// database in tests.
type MemoryStore struct {
	mu      sync.Mutex
	tenants map[uuid.UUID]PlanStatus
	counts  map[uuid.UUID]Counts
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tenants: make(map[uuid.UUID]PlanStatus),
		counts:  make(map[uuid.UUID]Counts),
	}
}

// SetTenant creates or replaces a tenant record. Plan is stored as given so
// unrecognised identifiers can be simulated.
func (m *MemoryStore) SetTenant(id uuid.UUID, plan string, status tenant.Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tenants[id] = PlanStatus{Plan: plan, Status: status}
	if _, ok := m.counts[id]; !ok {
		m.counts[id] = make(Counts)
	}
}

// SetUsage overwrites one counter.
func (m *MemoryStore) SetUsage(id uuid.UUID, c plans.Category, n int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.counts[id]; !ok {
		m.counts[id] = make(Counts)
	}
	m.counts[id][c] = max(n, 0)
}

func (m *MemoryStore) TenantPlan(ctx context.Context, id uuid.UUID) (PlanStatus, error) {
	if err := ctx.Err(); err != nil {
		return PlanStatus{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ps, ok := m.tenants[id]
	if !ok {
		return PlanStatus{}, ErrNotFound
	}
	return ps, nil
}

// Counts returns a copy of the tenant's counters.
func (m *MemoryStore) Counts(ctx context.Context, id uuid.UUID) (Counts, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tenants[id]; !ok {
		return nil, ErrNotFound
	}
	return maps.Clone(m.counts[id]), nil
}

func (m *MemoryStore) Increment(ctx context.Context, id uuid.UUID, c plans.Category, delta int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tenants[id]; !ok {
		return ErrNotFound
	}
	m.counts[id][c] = max(m.counts[id][c]+delta, 0)
	return nil
}
