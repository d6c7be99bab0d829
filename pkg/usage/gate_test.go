package usage_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/voicedesk/pkg/logger"
	"github.com/dmitrymomot/voicedesk/pkg/plans"
	"github.com/dmitrymomot/voicedesk/pkg/tenant"
	"github.com/dmitrymomot/voicedesk/pkg/usage"
)

func TestGate_CheckLimit(t *testing.T) {
	t.Parallel()

	t.Run("finite limit allows strictly below", func(t *testing.T) {
		t.Parallel()
		for _, tc := range []struct {
			used int64
			want bool
		}{
			{0, true},
			{1, true},
			{2, false},
			{3, false},
		} {
			store := usage.NewMemoryStore()
			id := newTenant(store, plans.Starter, map[plans.Category]int64{plans.DataSources: tc.used})
			ok, err := newGate(store).CheckLimit(context.Background(), id, plans.DataSources)
			require.NoError(t, err)
			assert.Equal(t, tc.want, ok, "usage %d", tc.used)
		}
	})

	t.Run("scenario: last conversation then blocked", func(t *testing.T) {
		t.Parallel()
		store := usage.NewMemoryStore()
		id := newTenant(store, plans.Starter, map[plans.Category]int64{plans.Conversations: 999})
		gate := newGate(store)
		ctx := context.Background()

		ok, err := gate.CheckLimit(ctx, id, plans.Conversations)
		require.NoError(t, err)
		assert.True(t, ok)

		assert.True(t, gate.RecordUsage(ctx, id, plans.Conversations, 1))

		snap, err := gate.Resolve(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, int64(1000), snap.Usage[plans.Conversations])

		ok, err = gate.CheckLimit(ctx, id, plans.Conversations)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("scenario: enterprise is never limited", func(t *testing.T) {
		t.Parallel()
		store := usage.NewMemoryStore()
		id := newTenant(store, plans.Enterprise, map[plans.Category]int64{
			plans.Conversations: 999999,
			plans.DataSources:   999999,
			plans.Users:         999999,
		})
		gate := newGate(store)
		for _, c := range plans.Categories {
			ok, err := gate.CheckLimit(context.Background(), id, c)
			require.NoError(t, err)
			assert.True(t, ok, c)
		}
	})

	t.Run("scenario: unknown tenant denied", func(t *testing.T) {
		t.Parallel()
		store := usage.NewMemoryStore()
		gate := newGate(store, usage.WithFailurePolicy(usage.FailOpen))

		ok, err := gate.CheckLimit(context.Background(), uuid.New(), plans.Users)
		assert.False(t, ok)
		assert.ErrorIs(t, err, usage.ErrNotFound)
	})

	t.Run("scenario: timeout follows failure policy", func(t *testing.T) {
		t.Parallel()
		for _, tc := range []struct {
			policy usage.FailurePolicy
			want   bool
		}{
			{usage.FailClosed, false},
			{usage.FailOpen, true},
		} {
			opts := []usage.Option{
				usage.WithTimeout(20 * time.Millisecond),
				usage.WithFailurePolicy(tc.policy),
				usage.WithLogger(logger.Discard()),
			}
			counters := &mockCounters{}
			gate := usage.NewGate(usage.NewResolver(hangingTenants{}, counters, opts...), counters, opts...)

			for range 3 {
				ok, err := gate.CheckLimit(context.Background(), uuid.New(), plans.Conversations)
				assert.Equal(t, tc.want, ok, tc.policy.String())
				assert.ErrorIs(t, err, usage.ErrDependencyUnavailable)
			}
		}
	})

	t.Run("default policy is fail closed", func(t *testing.T) {
		t.Parallel()
		gate := newGate(usage.NewMemoryStore())
		assert.Equal(t, usage.FailClosed, gate.Policy())
	})

	t.Run("invalid category", func(t *testing.T) {
		t.Parallel()
		store := usage.NewMemoryStore()
		id := newTenant(store, plans.Starter, nil)
		ok, err := newGate(store).CheckLimit(context.Background(), id, plans.Category("minutes"))
		assert.False(t, ok)
		assert.ErrorIs(t, err, plans.ErrInvalidCategory)
	})
}

func TestGate_Decide(t *testing.T) {
	t.Parallel()

	t.Run("allowed and view share one snapshot", func(t *testing.T) {
		t.Parallel()
		tenants := &mockTenants{}
		counters := &mockCounters{}
		id := uuid.New()
		tenants.On("TenantPlan", mock.Anything, id).Return(usage.PlanStatus{Plan: "starter", Status: tenant.StatusActive}, nil)
		counters.On("Counts", mock.Anything, id).Return(usage.Counts{plans.Conversations: 999}, nil).Once()
		counters.On("Counts", mock.Anything, id).Return(usage.Counts{plans.Conversations: 1000}, nil).Once()

		log := usage.WithLogger(logger.Discard())
		gate := usage.NewGate(usage.NewResolver(tenants, counters, log), counters, log)

		d, err := gate.Decide(context.Background(), id, plans.Conversations)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Equal(t, usage.GuardWarning, d.View.State)
		assert.Equal(t, int64(999), d.View.Usage)
		counters.AssertNumberOfCalls(t, "Counts", 1)

		d, err = gate.Decide(context.Background(), id, plans.Conversations)
		require.NoError(t, err)
		assert.False(t, d.Allowed)
		assert.Equal(t, usage.GuardBlocked, d.View.State)
	})

	t.Run("unavailable store follows the policy and is unverified", func(t *testing.T) {
		t.Parallel()
		for _, policy := range []usage.FailurePolicy{usage.FailClosed, usage.FailOpen} {
			tenants := &mockTenants{}
			counters := &mockCounters{}
			id := uuid.New()
			tenants.On("TenantPlan", mock.Anything, id).Return(usage.PlanStatus{Plan: "starter", Status: tenant.StatusActive}, nil)
			counters.On("Counts", mock.Anything, id).Return(nil, errors.New("connection refused"))

			opts := []usage.Option{usage.WithLogger(logger.Discard()), usage.WithFailurePolicy(policy)}
			gate := usage.NewGate(usage.NewResolver(tenants, counters, opts...), counters, opts...)

			d, err := gate.Decide(context.Background(), id, plans.Users)
			assert.ErrorIs(t, err, usage.ErrDependencyUnavailable)
			assert.Equal(t, policy == usage.FailOpen, d.Allowed, policy.String())
			assert.Equal(t, usage.GuardUnverified, d.View.State)
			assert.Equal(t, usage.ReasonUnavailable, d.View.Reason)
		}
	})

	t.Run("unknown tenant", func(t *testing.T) {
		t.Parallel()
		d, err := newGate(usage.NewMemoryStore()).Decide(context.Background(), uuid.New(), plans.Users)
		assert.ErrorIs(t, err, usage.ErrNotFound)
		assert.False(t, d.Allowed)
		assert.Equal(t, usage.ReasonTenantNotFound, d.View.Reason)
	})
}

func TestGate_RecordUsage(t *testing.T) {
	t.Parallel()

	t.Run("increases usage by exactly the amount", func(t *testing.T) {
		t.Parallel()
		store := usage.NewMemoryStore()
		id := newTenant(store, plans.Professional, map[plans.Category]int64{plans.Conversations: 10})
		gate := newGate(store)
		ctx := context.Background()

		for _, k := range []int64{1, 5, 37} {
			before, err := gate.Resolve(ctx, id)
			require.NoError(t, err)
			require.True(t, gate.RecordUsage(ctx, id, plans.Conversations, k))
			after, err := gate.Resolve(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, before.Usage[plans.Conversations]+k, after.Usage[plans.Conversations])
		}
	})

	t.Run("concurrent records are not lost", func(t *testing.T) {
		t.Parallel()
		store := usage.NewMemoryStore()
		id := newTenant(store, plans.Enterprise, nil)
		gate := newGate(store)

		var wg sync.WaitGroup
		for range 50 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				gate.RecordUsage(context.Background(), id, plans.Conversations, 2)
			}()
		}
		wg.Wait()

		snap, err := gate.Resolve(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, int64(100), snap.Usage[plans.Conversations])
	})

	t.Run("never reads before incrementing", func(t *testing.T) {
		t.Parallel()
		counters := &mockCounters{}
		counters.On("Increment", mock.Anything, mock.Anything, plans.Users, int64(1)).Return(nil).Once()
		gate := usage.NewGate(usage.NewResolver(&mockTenants{}, counters), counters, usage.WithLogger(logger.Discard()))

		assert.True(t, gate.RecordUsage(context.Background(), uuid.New(), plans.Users, 1))
		counters.AssertExpectations(t)
		counters.AssertNotCalled(t, "Counts", mock.Anything, mock.Anything)
	})

	t.Run("failure returns false without retry by default", func(t *testing.T) {
		t.Parallel()
		counters := &mockCounters{}
		counters.On("Increment", mock.Anything, mock.Anything, plans.Conversations, int64(1)).
			Return(errors.New("timeout"))
		gate := usage.NewGate(usage.NewResolver(&mockTenants{}, counters), counters, usage.WithLogger(logger.Discard()))

		assert.False(t, gate.RecordUsage(context.Background(), uuid.New(), plans.Conversations, 1))
		counters.AssertNumberOfCalls(t, "Increment", 1)
	})

	t.Run("retry allows exactly one more attempt", func(t *testing.T) {
		t.Parallel()
		counters := &mockCounters{}
		counters.On("Increment", mock.Anything, mock.Anything, plans.Conversations, int64(1)).
			Return(errors.New("timeout"))
		opts := []usage.Option{usage.WithRecordRetry(true), usage.WithLogger(logger.Discard())}
		gate := usage.NewGate(usage.NewResolver(&mockTenants{}, counters), counters, opts...)

		assert.False(t, gate.RecordUsage(context.Background(), uuid.New(), plans.Conversations, 1))
		counters.AssertNumberOfCalls(t, "Increment", 2)
	})

	t.Run("retry succeeds on second attempt", func(t *testing.T) {
		t.Parallel()
		counters := &mockCounters{}
		counters.On("Increment", mock.Anything, mock.Anything, plans.Conversations, int64(1)).
			Return(errors.New("timeout")).Once()
		counters.On("Increment", mock.Anything, mock.Anything, plans.Conversations, int64(1)).
			Return(nil).Once()
		opts := []usage.Option{usage.WithRecordRetry(true), usage.WithLogger(logger.Discard())}
		gate := usage.NewGate(usage.NewResolver(&mockTenants{}, counters), counters, opts...)

		assert.True(t, gate.RecordUsage(context.Background(), uuid.New(), plans.Conversations, 1))
		counters.AssertExpectations(t)
	})

	t.Run("not found is not retried", func(t *testing.T) {
		t.Parallel()
		counters := &mockCounters{}
		counters.On("Increment", mock.Anything, mock.Anything, plans.Users, int64(1)).Return(tenant.ErrNotFound)
		opts := []usage.Option{usage.WithRecordRetry(true), usage.WithLogger(logger.Discard())}
		gate := usage.NewGate(usage.NewResolver(&mockTenants{}, counters), counters, opts...)

		assert.False(t, gate.RecordUsage(context.Background(), uuid.New(), plans.Users, 1))
		counters.AssertNumberOfCalls(t, "Increment", 1)
	})

	t.Run("rejects non-positive amounts", func(t *testing.T) {
		t.Parallel()
		counters := &mockCounters{}
		gate := usage.NewGate(usage.NewResolver(&mockTenants{}, counters), counters, usage.WithLogger(logger.Discard()))

		assert.False(t, gate.RecordUsage(context.Background(), uuid.New(), plans.Users, 0))
		assert.False(t, gate.RecordUsage(context.Background(), uuid.New(), plans.Users, -3))
		assert.False(t, gate.ReleaseUsage(context.Background(), uuid.New(), plans.Users, 0))
		counters.AssertNotCalled(t, "Increment", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestGate_ReleaseUsage(t *testing.T) {
	t.Parallel()

	store := usage.NewMemoryStore()
	id := newTenant(store, plans.Starter, map[plans.Category]int64{plans.DataSources: 2})
	gate := newGate(store)
	ctx := context.Background()

	ok, err := gate.CheckLimit(ctx, id, plans.DataSources)
	require.NoError(t, err)
	assert.False(t, ok)

	require.True(t, gate.ReleaseUsage(ctx, id, plans.DataSources, 1))
	ok, err = gate.CheckLimit(ctx, id, plans.DataSources)
	require.NoError(t, err)
	assert.True(t, ok)

	require.True(t, gate.ReleaseUsage(ctx, id, plans.DataSources, 5))
	snap, err := gate.Resolve(ctx, id)
	require.NoError(t, err)
	assert.Zero(t, snap.Usage[plans.DataSources])
}

func TestGate_Metrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	metrics := usage.NewMetrics(reg)
	store := usage.NewMemoryStore()
	id := newTenant(store, plans.Starter, map[plans.Category]int64{plans.Users: 3})
	gate := newGate(store, usage.WithMetrics(metrics))
	ctx := context.Background()

	_, _ = gate.CheckLimit(ctx, id, plans.Users)
	_, _ = gate.CheckLimit(ctx, id, plans.Conversations)
	_, _ = gate.CheckLimit(ctx, uuid.New(), plans.Conversations)
	gate.RecordUsage(ctx, id, plans.Conversations, 1)

	expected := `
# HELP voicedesk_usage_checks_total Usage limit checks by category and outcome
# TYPE voicedesk_usage_checks_total counter
voicedesk_usage_checks_total{category="conversations",outcome="allowed"} 1
voicedesk_usage_checks_total{category="conversations",outcome="not_found"} 1
voicedesk_usage_checks_total{category="users",outcome="limit_reached"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "voicedesk_usage_checks_total"))

	records := `
# HELP voicedesk_usage_records_total Usage counter mutations by category and result
# TYPE voicedesk_usage_records_total counter
voicedesk_usage_records_total{category="conversations",result="ok"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(records), "voicedesk_usage_records_total"))

	n, err := testutil.GatherAndCount(reg, "voicedesk_usage_resolve_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
