package billing_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/voicedesk/pkg/billing"
	"github.com/dmitrymomot/voicedesk/pkg/plans"
)

const samplePrices = `
stripe:
  starter: price_starter
  professional: price_pro
  enterprise: price_ent
paddle:
  starter: pri_starter
`

func TestLoadPriceBook(t *testing.T) {
	t.Parallel()

	t.Run("valid", func(t *testing.T) {
		t.Parallel()
		pb, err := billing.LoadPriceBook(strings.NewReader(samplePrices))
		require.NoError(t, err)

		price, ok := pb.PriceID("stripe", plans.Professional)
		assert.True(t, ok)
		assert.Equal(t, "price_pro", price)

		_, ok = pb.PriceID("paddle", plans.Enterprise)
		assert.False(t, ok)

		id, ok := pb.PlanForPrice("paddle", "pri_starter")
		assert.True(t, ok)
		assert.Equal(t, plans.Starter, id)

		_, ok = pb.PlanForPrice("stripe", "pri_starter")
		assert.False(t, ok)
	})

	t.Run("unknown plan", func(t *testing.T) {
		t.Parallel()
		_, err := billing.LoadPriceBook(strings.NewReader("stripe:\n  gold: price_gold\n"))
		assert.ErrorIs(t, err, billing.ErrInvalidPriceBook)
	})

	t.Run("empty price", func(t *testing.T) {
		t.Parallel()
		_, err := billing.LoadPriceBook(strings.NewReader("stripe:\n  starter: \"\"\n"))
		assert.ErrorIs(t, err, billing.ErrInvalidPriceBook)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		t.Parallel()
		_, err := billing.LoadPriceBook(strings.NewReader("stripe: [unclosed"))
		assert.ErrorIs(t, err, billing.ErrInvalidPriceBook)
	})

	t.Run("empty document", func(t *testing.T) {
		t.Parallel()
		pb, err := billing.LoadPriceBook(strings.NewReader(""))
		require.NoError(t, err)
		_, ok := pb.PriceID("stripe", plans.Starter)
		assert.False(t, ok)
	})

	t.Run("from file", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "prices.yaml")
		require.NoError(t, os.WriteFile(path, []byte(samplePrices), 0o600))

		pb, err := billing.LoadPriceBookFile(path)
		require.NoError(t, err)
		_, ok := pb.PriceID("stripe", plans.Starter)
		assert.True(t, ok)

		_, err = billing.LoadPriceBookFile(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.ErrorIs(t, err, billing.ErrInvalidPriceBook)
	})
}
