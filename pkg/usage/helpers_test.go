package usage_test

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/dmitrymomot/voicedesk/pkg/logger"
	"github.com/dmitrymomot/voicedesk/pkg/plans"
	"github.com/dmitrymomot/voicedesk/pkg/tenant"
	"github.com/dmitrymomot/voicedesk/pkg/usage"
)

type mockCounters struct {
	mock.Mock
}

func (m *mockCounters) Counts(ctx context.Context, id uuid.UUID) (usage.Counts, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(usage.Counts), args.Error(1)
}

func (m *mockCounters) Increment(ctx context.Context, id uuid.UUID, c plans.Category, delta int64) error {
	args := m.Called(ctx, id, c, delta)
	return args.Error(0)
}

type mockTenants struct {
	mock.Mock
}

func (m *mockTenants) TenantPlan(ctx context.Context, id uuid.UUID) (usage.PlanStatus, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(usage.PlanStatus), args.Error(1)
}

// hangingTenants blocks until the call's context expires.
type hangingTenants struct{}

func (hangingTenants) TenantPlan(ctx context.Context, _ uuid.UUID) (usage.PlanStatus, error) {
	<-ctx.Done()
	return usage.PlanStatus{}, ctx.Err()
}

func newTenant(store *usage.MemoryStore, plan plans.ID, counts map[plans.Category]int64) uuid.UUID {
	id := uuid.New()
	store.SetTenant(id, string(plan), tenant.StatusActive)
	for c, n := range counts {
		store.SetUsage(id, c, n)
	}
	return id
}

func newGate(store *usage.MemoryStore, opts ...usage.Option) *usage.Gate {
	opts = append([]usage.Option{usage.WithLogger(logger.Discard())}, opts...)
	return usage.NewGate(usage.NewResolver(store, store, opts...), store, opts...)
}
