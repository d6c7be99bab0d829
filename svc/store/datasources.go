package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/voicedesk/pkg/pg"
	"github.com/dmitrymomot/voicedesk/svc/datasource"
)

const dataSourceColumns = `id, tenant_id, name, type, connection_config, sync_frequency, status, created_at, updated_at`

func (p *Postgres) CreateDataSource(ctx context.Context, ds *datasource.DataSource) error {
	cfg, err := json.Marshal(ds.ConnectionConfig)
	if err != nil {
		return fmt.Errorf("encode connection config: %w", err)
	}
	_, err = p.db.Exec(ctx, `
		INSERT INTO data_sources (`+dataSourceColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		ds.ID, ds.TenantID, ds.Name, string(ds.Type), cfg,
		string(ds.SyncFrequency), string(ds.Status), ds.CreatedAt, ds.UpdatedAt,
	)
	return err
}

func (p *Postgres) ListDataSources(ctx context.Context, tenantID uuid.UUID) ([]datasource.DataSource, error) {
	rows, err := p.db.Query(ctx, `
		SELECT `+dataSourceColumns+`
		FROM data_sources
		WHERE tenant_id = $1
		ORDER BY created_at DESC`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]datasource.DataSource, 0)
	for rows.Next() {
		ds, err := scanDataSource(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *ds)
	}
	return out, rows.Err()
}

func (p *Postgres) GetDataSource(ctx context.Context, tenantID, id uuid.UUID) (*datasource.DataSource, error) {
	ds, err := scanDataSource(p.db.QueryRow(ctx, `
		SELECT `+dataSourceColumns+`
		FROM data_sources
		WHERE id = $1 AND tenant_id = $2`, id, tenantID))
	if pg.IsNotFoundError(err) {
		return nil, datasource.ErrNotFound
	}
	return ds, err
}

func (p *Postgres) UpdateDataSource(ctx context.Context, ds *datasource.DataSource) error {
	cfg, err := json.Marshal(ds.ConnectionConfig)
	if err != nil {
		return fmt.Errorf("encode connection config: %w", err)
	}
	tag, err := p.db.Exec(ctx, `
		UPDATE data_sources SET
			name = $3,
			connection_config = $4,
			sync_frequency = $5,
			status = $6,
			updated_at = $7
		WHERE id = $1 AND tenant_id = $2`,
		ds.ID, ds.TenantID, ds.Name, cfg, string(ds.SyncFrequency), string(ds.Status), ds.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return datasource.ErrNotFound
	}
	return nil
}

func (p *Postgres) DeleteDataSource(ctx context.Context, tenantID, id uuid.UUID) error {
	tag, err := p.db.Exec(ctx, `DELETE FROM data_sources WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return datasource.ErrNotFound
	}
	return nil
}

func scanDataSource(row pgx.Row) (*datasource.DataSource, error) {
	var (
		ds                datasource.DataSource
		typ, sync, status string
		cfg               []byte
	)
	if err := row.Scan(&ds.ID, &ds.TenantID, &ds.Name, &typ, &cfg, &sync, &status, &ds.CreatedAt, &ds.UpdatedAt); err != nil {
		return nil, err
	}
	ds.Type = datasource.Type(typ)
	ds.SyncFrequency = datasource.SyncFrequency(sync)
	ds.Status = datasource.Status(status)
	if len(cfg) > 0 {
		if err := json.Unmarshal(cfg, &ds.ConnectionConfig); err != nil {
			return nil, fmt.Errorf("decode connection config: %w", err)
		}
	}
	return &ds, nil
}
