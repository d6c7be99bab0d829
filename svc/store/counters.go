package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/dmitrymomot/voicedesk/pkg/pg"
	"github.com/dmitrymomot/voicedesk/pkg/plans"
	"github.com/dmitrymomot/voicedesk/pkg/usage"
)

// Counts reads every counter of the tenant in one query. Missing counter rows
// read as zero; a missing tenant is ErrNotFound.
func (p *Postgres) Counts(ctx context.Context, id uuid.UUID) (usage.Counts, error) {
	rows, err := p.db.Query(ctx, `
		SELECT t.id, c.category, COALESCE(c.current_usage, 0)
		FROM tenants t
		LEFT JOIN usage_counters c ON c.tenant_id = t.id
		WHERE t.id = $1`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(usage.Counts, len(plans.Categories))
	found := false
	for rows.Next() {
		var (
			tenantID uuid.UUID
			key      *string
			n        int64
		)
		if err := rows.Scan(&tenantID, &key, &n); err != nil {
			return nil, err
		}
		found = true
		if key == nil {
			continue
		}
		// rows for retired categories are skipped
		c, err := plans.ParseCategory(*key)
		if err != nil {
			continue
		}
		counts[c] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if !found {
		return nil, usage.ErrNotFound
	}
	return counts, nil
}

// Increment adds delta in a single statement, creating the row if needed and
// never going below zero.
func (p *Postgres) Increment(ctx context.Context, id uuid.UUID, c plans.Category, delta int64) error {
	_, err := p.db.Exec(ctx, `
		INSERT INTO usage_counters (tenant_id, category, current_usage, updated_at)
		VALUES ($1, $2, GREATEST(0, $3::BIGINT), NOW())
		ON CONFLICT (tenant_id, category) DO UPDATE SET
			current_usage = GREATEST(0, usage_counters.current_usage + $3::BIGINT),
			updated_at = NOW()`,
		id, c.StorageKey(), delta,
	)
	if pg.IsForeignKeyViolationError(err) {
		return usage.ErrNotFound
	}
	return err
}
