package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/voicedesk/pkg/pg"
	"github.com/dmitrymomot/voicedesk/pkg/plans"
	"github.com/dmitrymomot/voicedesk/pkg/tenant"
	"github.com/dmitrymomot/voicedesk/pkg/usage"
)

const tenantColumns = `id, name, email, plan, subscription_status, trial_ends_at,
	billing_customer_id, billing_subscription_id, created_at, updated_at`

// Create inserts the tenant and seeds its counters. The registering admin is
// the first user, so users starts at 1.
func (p *Postgres) Create(ctx context.Context, t *tenant.Tenant) error {
	err := pg.WithTx(ctx, p.db, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO tenants (id, name, email, plan, subscription_status, trial_ends_at, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			t.ID, t.Name, t.Email, string(t.Plan), string(t.Status), t.TrialEndsAt, t.CreatedAt, t.UpdatedAt,
		)
		if err != nil {
			return err
		}

		for _, c := range plans.Categories {
			var initial int64
			if c == plans.Users {
				initial = 1
			}
			if _, err := tx.Exec(ctx, `
				INSERT INTO usage_counters (tenant_id, category, current_usage)
				VALUES ($1, $2, $3)`,
				t.ID, c.StorageKey(), initial,
			); err != nil {
				return err
			}
		}
		return nil
	})
	if pg.IsDuplicateKeyError(err) {
		return tenant.ErrAlreadyExists
	}
	return err
}

func (p *Postgres) Get(ctx context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	row := p.db.QueryRow(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE id = $1`, id)

	var (
		t            tenant.Tenant
		plan, status string
	)
	err := row.Scan(&t.ID, &t.Name, &t.Email, &plan, &status, &t.TrialEndsAt,
		&t.BillingCustomerID, &t.BillingSubscriptionID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, tenant.ErrNotFound
		}
		return nil, fmt.Errorf("get tenant: %w", err)
	}

	t.Status = tenant.ParseStatus(status)
	if id, ok := plans.ParseID(plan); ok {
		t.Plan = id
	} else {
		t.Plan = plans.Lowest
	}
	return &t, nil
}

func (p *Postgres) ApplyCheckout(ctx context.Context, id uuid.UUID, plan plans.ID, customerID, subscriptionID string) error {
	return p.expectRow(p.db.Exec(ctx, `
		UPDATE tenants SET
			plan = $2,
			subscription_status = $3,
			billing_customer_id = COALESCE(NULLIF($4, ''), billing_customer_id),
			billing_subscription_id = COALESCE(NULLIF($5, ''), billing_subscription_id),
			updated_at = $6
		WHERE id = $1`,
		id, string(plan), string(tenant.StatusActive), customerID, subscriptionID, time.Now().UTC(),
	))
}

func (p *Postgres) SetStatus(ctx context.Context, id uuid.UUID, status tenant.Status) error {
	return p.expectRow(p.db.Exec(ctx,
		`UPDATE tenants SET subscription_status = $2, updated_at = $3 WHERE id = $1`,
		id, string(status), time.Now().UTC(),
	))
}

func (p *Postgres) SetStatusBySubscription(ctx context.Context, subscriptionID string, status tenant.Status) error {
	if subscriptionID == "" {
		return tenant.ErrNotFound
	}
	return p.expectRow(p.db.Exec(ctx,
		`UPDATE tenants SET subscription_status = $2, updated_at = $3 WHERE billing_subscription_id = $1`,
		subscriptionID, string(status), time.Now().UTC(),
	))
}

// TenantPlan returns the stored plan text unparsed; the resolver owns fallback.
func (p *Postgres) TenantPlan(ctx context.Context, id uuid.UUID) (usage.PlanStatus, error) {
	var plan, status string
	err := p.db.QueryRow(ctx, `SELECT plan, subscription_status FROM tenants WHERE id = $1`, id).Scan(&plan, &status)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return usage.PlanStatus{}, usage.ErrNotFound
		}
		return usage.PlanStatus{}, err
	}
	return usage.PlanStatus{Plan: plan, Status: tenant.ParseStatus(status)}, nil
}

func (p *Postgres) expectRow(tag pgconn.CommandTag, err error) error {
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return tenant.ErrNotFound
	}
	return nil
}
