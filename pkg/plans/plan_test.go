package plans_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/voicedesk/pkg/plans"
)

func TestCatalog(t *testing.T) {
	t.Parallel()

	t.Run("starter limits", func(t *testing.T) {
		t.Parallel()
		limits := plans.LimitsFor(plans.Starter)
		assert.Equal(t, plans.Finite(1000), limits[plans.Conversations])
		assert.Equal(t, plans.Finite(2), limits[plans.DataSources])
		assert.Equal(t, plans.Finite(3), limits[plans.Users])
	})

	t.Run("enterprise is unlimited in every category", func(t *testing.T) {
		t.Parallel()
		for _, c := range plans.Categories {
			assert.True(t, plans.LimitsFor(plans.Enterprise)[c].IsUnlimited(), c)
		}
	})

	t.Run("every plan defines every category", func(t *testing.T) {
		t.Parallel()
		for _, p := range plans.All() {
			for _, c := range plans.Categories {
				_, ok := p.Limits[c]
				assert.True(t, ok, "%s/%s", p.ID, c)
			}
		}
	})

	t.Run("plans are ordered by price", func(t *testing.T) {
		t.Parallel()
		all := plans.All()
		require.Len(t, all, 3)
		for i := 1; i < len(all); i++ {
			assert.Greater(t, all[i].MonthlyPrice.Amount, all[i-1].MonthlyPrice.Amount)
		}
	})

	t.Run("returned plans are copies", func(t *testing.T) {
		t.Parallel()
		p := plans.Get(plans.Starter)
		p.Limits[plans.Conversations] = plans.Unlimited()
		assert.Equal(t, plans.Finite(1000), plans.LimitsFor(plans.Starter)[plans.Conversations])
	})

	t.Run("unknown id panics", func(t *testing.T) {
		t.Parallel()
		assert.Panics(t, func() { plans.Get(plans.ID("gold")) })
	})
}

func TestParseID(t *testing.T) {
	t.Parallel()

	id, ok := plans.ParseID(" Professional ")
	assert.True(t, ok)
	assert.Equal(t, plans.Professional, id)

	_, ok = plans.ParseID("gold")
	assert.False(t, ok)

	var decoded struct {
		Plan plans.ID `json:"plan"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"plan":"enterprise"}`), &decoded))
	assert.Equal(t, plans.Enterprise, decoded.Plan)

	err := json.Unmarshal([]byte(`{"plan":"gold"}`), &decoded)
	assert.ErrorIs(t, err, plans.ErrUnknownPlan)
}

func TestParseCategory(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]plans.Category{
		"conversations": plans.Conversations,
		"dataSources":   plans.DataSources,
		"data_sources":  plans.DataSources,
		"users":         plans.Users,
	} {
		got, err := plans.ParseCategory(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := plans.ParseCategory("minutes")
	assert.ErrorIs(t, err, plans.ErrInvalidCategory)

	assert.Equal(t, "data_sources", plans.DataSources.StorageKey())
	assert.Equal(t, "users", plans.Users.StorageKey())

	assert.True(t, plans.DataSources.Valid())
	assert.False(t, plans.Category("data_sources").Valid())
}

func TestNext(t *testing.T) {
	t.Parallel()

	next, ok := plans.Next(plans.Starter)
	require.True(t, ok)
	assert.Equal(t, plans.Professional, next.ID)

	next, ok = plans.Next(plans.Professional)
	require.True(t, ok)
	assert.Equal(t, plans.Enterprise, next.ID)

	_, ok = plans.Next(plans.Enterprise)
	assert.False(t, ok)
}

func TestCompare(t *testing.T) {
	t.Parallel()

	t.Run("upgrade increases every limit", func(t *testing.T) {
		t.Parallel()
		cmp := plans.Compare(plans.Starter, plans.Professional)
		assert.False(t, cmp.HasDecreases())
		assert.Len(t, cmp.Increased, 3)
		assert.Equal(t, plans.LimitChange{From: plans.Finite(1000), To: plans.Finite(10000)}, cmp.Increased[plans.Conversations])
	})

	t.Run("unlimited to finite is a decrease", func(t *testing.T) {
		t.Parallel()
		cmp := plans.Compare(plans.Enterprise, plans.Starter)
		assert.True(t, cmp.HasDecreases())
		assert.Len(t, cmp.Decreased, 3)
	})

	t.Run("same plan has no changes", func(t *testing.T) {
		t.Parallel()
		cmp := plans.Compare(plans.Starter, plans.Starter)
		assert.Empty(t, cmp.Increased)
		assert.Empty(t, cmp.Decreased)
	})
}

func TestPlan_TrialEndsAt(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, start.AddDate(0, 0, 14), plans.Get(plans.Starter).TrialEndsAt(start))

	noTrial := plans.Plan{TrialDays: 0}
	assert.Equal(t, start, noTrial.TrialEndsAt(start))
}
