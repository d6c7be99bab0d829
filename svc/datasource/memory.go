package datasource

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
	rows map[uuid.UUID]DataSource
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[uuid.UUID]DataSource)}
}

func (m *MemoryStore) CreateDataSource(_ context.Context, ds *DataSource) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[ds.ID] = clone(*ds)
	return nil
}

func (m *MemoryStore) ListDataSources(_ context.Context, tenantID uuid.UUID) ([]DataSource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]DataSource, 0)
	for _, ds := range m.rows {
		if ds.TenantID == tenantID {
			out = append(out, clone(ds))
		}
	}
	slices.SortFunc(out, func(a, b DataSource) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out, nil
}

func (m *MemoryStore) GetDataSource(_ context.Context, tenantID, id uuid.UUID) (*DataSource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ds, ok := m.rows[id]
	if !ok || ds.TenantID != tenantID {
		return nil, ErrNotFound
	}
	c := clone(ds)
	return &c, nil
}

func (m *MemoryStore) UpdateDataSource(_ context.Context, ds *DataSource) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.rows[ds.ID]
	if !ok || cur.TenantID != ds.TenantID {
		return ErrNotFound
	}
	m.rows[ds.ID] = clone(*ds)
	return nil
}

func (m *MemoryStore) DeleteDataSource(_ context.Context, tenantID, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ds, ok := m.rows[id]
	if !ok || ds.TenantID != tenantID {
		return ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func clone(ds DataSource) DataSource {
	ds.ConnectionConfig = maps.Clone(ds.ConnectionConfig)
	return ds
}
