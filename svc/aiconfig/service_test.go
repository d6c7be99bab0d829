package aiconfig_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/voicedesk/pkg/logger"
	"github.com/dmitrymomot/voicedesk/svc/aiconfig"
)

func newService(t *testing.T) *aiconfig.Service {
	t.Helper()
	svc := aiconfig.NewService(aiconfig.NewMemoryStore(), logger.Discard())
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	svc.SetClock(func() time.Time {
		now = now.Add(time.Minute)
		return now
	})
	return svc
}

func TestService_Create(t *testing.T) {
	t.Parallel()

	t.Run("defaults name and documents", func(t *testing.T) {
		t.Parallel()
		svc := newService(t)
		id := uuid.New()

		c, err := svc.Create(context.Background(), id, aiconfig.CreateInput{ModelProvider: "openai", ModelName: "gpt-4o"})
		require.NoError(t, err)
		assert.Equal(t, aiconfig.DefaultName, c.Name)
		assert.Equal(t, id, c.TenantID)
		assert.NotNil(t, c.ModelParameters)
		assert.NotNil(t, c.EscalationRules)
		assert.Equal(t, c.CreatedAt, c.UpdatedAt)
	})

	t.Run("keeps documents as given", func(t *testing.T) {
		t.Parallel()
		svc := newService(t)

		c, err := svc.Create(context.Background(), uuid.New(), aiconfig.CreateInput{
			Name:            "Support line",
			VoiceSettings:   map[string]any{"speed": 1.1},
			EscalationRules: map[string]any{"enabled": true, "maxAttempts": float64(3)},
			WebhookURL:      "https://hooks.acme.test/voice",
		})
		require.NoError(t, err)
		assert.Equal(t, "Support line", c.Name)
		assert.Equal(t, true, c.EscalationRules["enabled"])
		assert.Equal(t, 1.1, c.VoiceSettings["speed"])
	})

	t.Run("rejects invalid webhook url", func(t *testing.T) {
		t.Parallel()
		svc := newService(t)

		for _, raw := range []string{"hooks.acme.test", "ftp://hooks.acme.test", "https://"} {
			_, err := svc.Create(context.Background(), uuid.New(), aiconfig.CreateInput{WebhookURL: raw})
			assert.ErrorIs(t, err, aiconfig.ErrInvalidWebhookURL, raw)
		}
	})
}

func TestService_List(t *testing.T) {
	t.Parallel()

	svc := newService(t)
	ctx := context.Background()
	id := uuid.New()

	first, err := svc.Create(ctx, id, aiconfig.CreateInput{Name: "first"})
	require.NoError(t, err)
	second, err := svc.Create(ctx, id, aiconfig.CreateInput{Name: "second"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, uuid.New(), aiconfig.CreateInput{Name: "other tenant"})
	require.NoError(t, err)

	list, err := svc.List(ctx, id)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
}

func TestService_UpdateDelete(t *testing.T) {
	t.Parallel()

	svc := newService(t)
	ctx := context.Background()
	id := uuid.New()

	c, err := svc.Create(ctx, id, aiconfig.CreateInput{
		Name:          "Support line",
		ModelName:     "gpt-4o",
		VoiceSettings: map[string]any{"speed": 1.0},
	})
	require.NoError(t, err)

	prompt := "You are a helpful agent."
	updated, err := svc.Update(ctx, id, c.ID, aiconfig.UpdateInput{
		SystemPrompt:    &prompt,
		EscalationRules: map[string]any{"enabled": false},
	})
	require.NoError(t, err)
	assert.Equal(t, prompt, updated.SystemPrompt)
	assert.Equal(t, "gpt-4o", updated.ModelName)
	assert.Equal(t, 1.0, updated.VoiceSettings["speed"])
	assert.Equal(t, false, updated.EscalationRules["enabled"])
	assert.True(t, updated.UpdatedAt.After(updated.CreatedAt))

	blank := " "
	_, err = svc.Update(ctx, id, c.ID, aiconfig.UpdateInput{Name: &blank})
	assert.ErrorIs(t, err, aiconfig.ErrNameRequired)

	bad := "not a url"
	_, err = svc.Update(ctx, id, c.ID, aiconfig.UpdateInput{WebhookURL: &bad})
	assert.ErrorIs(t, err, aiconfig.ErrInvalidWebhookURL)

	other := uuid.New()
	_, err = svc.Get(ctx, other, c.ID)
	assert.ErrorIs(t, err, aiconfig.ErrNotFound)
	_, err = svc.Update(ctx, other, c.ID, aiconfig.UpdateInput{SystemPrompt: &prompt})
	assert.ErrorIs(t, err, aiconfig.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, other, c.ID), aiconfig.ErrNotFound)

	require.NoError(t, svc.Delete(ctx, id, c.ID))
	_, err = svc.Get(ctx, id, c.ID)
	assert.ErrorIs(t, err, aiconfig.ErrNotFound)
}
