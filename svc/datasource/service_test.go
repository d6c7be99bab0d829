package datasource_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/voicedesk/pkg/logger"
	"github.com/dmitrymomot/voicedesk/pkg/plans"
	"github.com/dmitrymomot/voicedesk/pkg/tenant"
	"github.com/dmitrymomot/voicedesk/pkg/usage"
	"github.com/dmitrymomot/voicedesk/svc/datasource"
)

type failingCounters struct {
	*usage.MemoryStore
	countsErr error
	incErr    error
}

func (f *failingCounters) Counts(ctx context.Context, id uuid.UUID) (usage.Counts, error) {
	if f.countsErr != nil {
		return nil, f.countsErr
	}
	return f.MemoryStore.Counts(ctx, id)
}

func (f *failingCounters) Increment(ctx context.Context, id uuid.UUID, c plans.Category, delta int64) error {
	if f.incErr != nil {
		return f.incErr
	}
	return f.MemoryStore.Increment(ctx, id, c, delta)
}

func setup(t *testing.T, plan plans.ID, sources int64) (*datasource.Service, *usage.MemoryStore, uuid.UUID) {
	t.Helper()
	mem := usage.NewMemoryStore()
	id := uuid.New()
	mem.SetTenant(id, string(plan), tenant.StatusActive)
	mem.SetUsage(id, plans.DataSources, sources)

	log := logger.Discard()
	gate := usage.NewGate(usage.NewResolver(mem, mem, usage.WithLogger(log)), mem, usage.WithLogger(log))
	return datasource.NewService(datasource.NewMemoryStore(), gate, log), mem, id
}

func validInput() datasource.CreateInput {
	return datasource.CreateInput{
		Name:             "Orders DB",
		Type:             datasource.TypePostgreSQL,
		ConnectionConfig: map[string]any{"host": "db.internal"},
	}
}

func usageOf(t *testing.T, mem *usage.MemoryStore, id uuid.UUID) int64 {
	t.Helper()
	counts, err := mem.Counts(context.Background(), id)
	require.NoError(t, err)
	return counts[plans.DataSources]
}

func TestService_Create(t *testing.T) {
	t.Parallel()

	t.Run("applies defaults and records usage", func(t *testing.T) {
		t.Parallel()
		svc, mem, id := setup(t, plans.Starter, 0)

		ds, err := svc.Create(context.Background(), id, validInput())
		require.NoError(t, err)
		assert.Equal(t, datasource.SyncManual, ds.SyncFrequency)
		assert.Equal(t, datasource.StatusDisconnected, ds.Status)
		assert.Equal(t, id, ds.TenantID)
		assert.Equal(t, int64(1), usageOf(t, mem, id))
	})

	t.Run("blocks at the plan limit", func(t *testing.T) {
		t.Parallel()
		svc, mem, id := setup(t, plans.Starter, 2)

		_, err := svc.Create(context.Background(), id, validInput())
		assert.ErrorIs(t, err, datasource.ErrLimitReached)
		assert.Equal(t, int64(2), usageOf(t, mem, id))

		list, err := svc.List(context.Background(), id)
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("unlimited plan never blocks", func(t *testing.T) {
		t.Parallel()
		svc, _, id := setup(t, plans.Enterprise, 5000)

		_, err := svc.Create(context.Background(), id, validInput())
		assert.NoError(t, err)
	})

	t.Run("unknown tenant", func(t *testing.T) {
		t.Parallel()
		svc, _, _ := setup(t, plans.Starter, 0)

		_, err := svc.Create(context.Background(), uuid.New(), validInput())
		assert.ErrorIs(t, err, usage.ErrNotFound)
	})

	t.Run("unverifiable usage denies", func(t *testing.T) {
		t.Parallel()
		mem := usage.NewMemoryStore()
		id := uuid.New()
		mem.SetTenant(id, string(plans.Starter), tenant.StatusActive)
		counters := &failingCounters{MemoryStore: mem, countsErr: errors.New("connection refused")}
		log := logger.Discard()
		gate := usage.NewGate(usage.NewResolver(mem, counters, usage.WithLogger(log)), counters, usage.WithLogger(log))
		svc := datasource.NewService(datasource.NewMemoryStore(), gate, log)

		_, err := svc.Create(context.Background(), id, validInput())
		assert.ErrorIs(t, err, datasource.ErrUsageUnverified)
		assert.ErrorIs(t, err, usage.ErrDependencyUnavailable)
	})

	t.Run("failed record keeps the data source", func(t *testing.T) {
		t.Parallel()
		mem := usage.NewMemoryStore()
		id := uuid.New()
		mem.SetTenant(id, string(plans.Starter), tenant.StatusActive)
		counters := &failingCounters{MemoryStore: mem, incErr: errors.New("write timeout")}
		log := logger.Discard()
		gate := usage.NewGate(usage.NewResolver(mem, counters, usage.WithLogger(log)), counters, usage.WithLogger(log))
		svc := datasource.NewService(datasource.NewMemoryStore(), gate, log)

		ds, err := svc.Create(context.Background(), id, validInput())
		require.NoError(t, err)

		list, err := svc.List(context.Background(), id)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, ds.ID, list[0].ID)
	})

	t.Run("validation", func(t *testing.T) {
		t.Parallel()
		svc, mem, id := setup(t, plans.Starter, 0)

		cases := map[string]struct {
			mutate func(*datasource.CreateInput)
			want   error
		}{
			"blank name":     {func(in *datasource.CreateInput) { in.Name = "  " }, datasource.ErrNameRequired},
			"bad type":       {func(in *datasource.CreateInput) { in.Type = "ftp" }, datasource.ErrInvalidType},
			"missing config": {func(in *datasource.CreateInput) { in.ConnectionConfig = nil }, datasource.ErrConfigRequired},
			"bad sync":       {func(in *datasource.CreateInput) { in.SyncFrequency = "minutely" }, datasource.ErrInvalidSync},
		}
		for name, tc := range cases {
			in := validInput()
			tc.mutate(&in)
			_, err := svc.Create(context.Background(), id, in)
			assert.ErrorIs(t, err, tc.want, name)
		}
		assert.Zero(t, usageOf(t, mem, id))
	})
}

func TestService_UpdateDelete(t *testing.T) {
	t.Parallel()

	svc, mem, id := setup(t, plans.Professional, 0)
	ctx := context.Background()

	ds, err := svc.Create(ctx, id, validInput())
	require.NoError(t, err)

	name := "Renamed"
	status := datasource.StatusConnected
	sync := datasource.SyncDaily
	updated, err := svc.Update(ctx, id, ds.ID, datasource.UpdateInput{Name: &name, Status: &status, SyncFrequency: &sync})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, datasource.StatusConnected, updated.Status)
	assert.Equal(t, datasource.SyncDaily, updated.SyncFrequency)
	assert.Equal(t, "db.internal", updated.ConnectionConfig["host"])

	bad := datasource.Status("broken")
	_, err = svc.Update(ctx, id, ds.ID, datasource.UpdateInput{Status: &bad})
	assert.ErrorIs(t, err, datasource.ErrInvalidStatus)

	other := uuid.New()
	_, err = svc.Update(ctx, other, ds.ID, datasource.UpdateInput{Name: &name})
	assert.ErrorIs(t, err, datasource.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, other, ds.ID), datasource.ErrNotFound)
	assert.Equal(t, int64(1), usageOf(t, mem, id))

	require.NoError(t, svc.Delete(ctx, id, ds.ID))
	assert.Zero(t, usageOf(t, mem, id))

	list, err := svc.List(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, list)
}
