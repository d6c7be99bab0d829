package plans_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/voicedesk/pkg/plans"
)

func TestLimit_Allows(t *testing.T) {
	t.Parallel()

	t.Run("finite limit allows strictly below the bound", func(t *testing.T) {
		t.Parallel()
		l := plans.Finite(10)
		assert.True(t, l.Allows(0))
		assert.True(t, l.Allows(9))
		assert.False(t, l.Allows(10))
		assert.False(t, l.Allows(11))
	})

	t.Run("unlimited always allows", func(t *testing.T) {
		t.Parallel()
		l := plans.Unlimited()
		assert.True(t, l.Allows(0))
		assert.True(t, l.Allows(999999))
	})

	t.Run("zero limit blocks everything", func(t *testing.T) {
		t.Parallel()
		l := plans.Finite(0)
		assert.False(t, l.Allows(0))
		assert.True(t, l.Reached(0))
	})
}

func TestLimit_Percentage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		limit plans.Limit
		usage int64
		want  float64
	}{
		{"empty", plans.Finite(1000), 0, 0},
		{"partial", plans.Finite(1000), 250, 25},
		{"at limit", plans.Finite(1000), 1000, 100},
		{"overage is not clamped", plans.Finite(1000), 1500, 150},
		{"negative usage clamps to zero", plans.Finite(1000), -5, 0},
		{"unlimited is zero", plans.Unlimited(), 999999, 0},
		{"zero limit", plans.Finite(0), 0, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, tt.limit.Percentage(tt.usage), 0.0001)
		})
	}
}

func TestLimit_Value(t *testing.T) {
	t.Parallel()

	n, ok := plans.Finite(42).Value()
	assert.True(t, ok)
	assert.Equal(t, uint64(42), n)

	_, ok = plans.Unlimited().Value()
	assert.False(t, ok)
}

func TestLimit_JSON(t *testing.T) {
	t.Parallel()

	b, err := json.Marshal(map[string]plans.Limit{"a": plans.Finite(3), "b": plans.Unlimited()})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":3,"b":"unlimited"}`, string(b))

	var decoded map[string]plans.Limit
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, plans.Finite(3), decoded["a"])
	assert.True(t, decoded["b"].IsUnlimited())
}
