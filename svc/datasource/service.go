package datasource

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/voicedesk/pkg/logger"
	"github.com/dmitrymomot/voicedesk/pkg/plans"
	"github.com/dmitrymomot/voicedesk/pkg/usage"
)

// Gate is the subset of *usage.Gate the service meters through.
type Gate interface {
	CheckLimit(ctx context.Context, tenantID uuid.UUID, category plans.Category) (bool, error)
	RecordUsage(ctx context.Context, tenantID uuid.UUID, category plans.Category, amount int64) bool
	ReleaseUsage(ctx context.Context, tenantID uuid.UUID, category plans.Category, amount int64) bool
}

type CreateInput struct {
	Name             string         `json:"name"`
	Type             Type           `json:"type"`
	ConnectionConfig map[string]any `json:"connection_config"`
	SyncFrequency    SyncFrequency  `json:"sync_frequency"`
}

// UpdateInput changes only the non-nil fields.
type UpdateInput struct {
	Name             *string        `json:"name"`
	ConnectionConfig map[string]any `json:"connection_config"`
	SyncFrequency    *SyncFrequency `json:"sync_frequency"`
	Status           *Status        `json:"status"`
}

type Service struct {
	store Store
	gate  Gate
	log   *slog.Logger
	now   func() time.Time
}

func NewService(store Store, gate Gate, log *slog.Logger) *Service {
	if store == nil {
		panic("datasource: Store is required")
	}
	if gate == nil {
		panic("datasource: Gate is required")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{store: store, gate: gate, log: log, now: time.Now}
}

// Create checks the dataSources limit, inserts the source and records usage.
// A failed usage record is logged and the data source is kept.
func (s *Service) Create(ctx context.Context, tenantID uuid.UUID, in CreateInput) (*DataSource, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if !in.Type.Valid() {
		return nil, ErrInvalidType
	}
	if len(in.ConnectionConfig) == 0 {
		return nil, ErrConfigRequired
	}
	sync := in.SyncFrequency
	if sync == "" {
		sync = SyncManual
	}
	if !sync.Valid() {
		return nil, ErrInvalidSync
	}

	allowed, err := s.gate.CheckLimit(ctx, tenantID, plans.DataSources)
	if !allowed {
		switch {
		case err == nil:
			return nil, ErrLimitReached
		case errors.Is(err, usage.ErrNotFound):
			return nil, err
		default:
			return nil, errors.Join(ErrUsageUnverified, err)
		}
	}

	now := s.now().UTC()
	ds := &DataSource{
		ID:               uuid.New(),
		TenantID:         tenantID,
		Name:             name,
		Type:             in.Type,
		ConnectionConfig: in.ConnectionConfig,
		SyncFrequency:    sync,
		Status:           StatusDisconnected,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.store.CreateDataSource(ctx, ds); err != nil {
		return nil, err
	}

	if !s.gate.RecordUsage(ctx, tenantID, plans.DataSources, 1) {
		s.log.WarnContext(ctx, "data source created without usage record",
			logger.TenantID(tenantID),
			slog.String("data_source_id", ds.ID.String()),
		)
	}

	return ds, nil
}

// List returns the tenant's data sources, newest first.
func (s *Service) List(ctx context.Context, tenantID uuid.UUID) ([]DataSource, error) {
	return s.store.ListDataSources(ctx, tenantID)
}

func (s *Service) Update(ctx context.Context, tenantID, id uuid.UUID, in UpdateInput) (*DataSource, error) {
	ds, err := s.store.GetDataSource(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, ErrNameRequired
		}
		ds.Name = name
	}
	if in.ConnectionConfig != nil {
		ds.ConnectionConfig = in.ConnectionConfig
	}
	if in.SyncFrequency != nil {
		if !in.SyncFrequency.Valid() {
			return nil, ErrInvalidSync
		}
		ds.SyncFrequency = *in.SyncFrequency
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return nil, ErrInvalidStatus
		}
		ds.Status = *in.Status
	}
	ds.UpdatedAt = s.now().UTC()

	if err := s.store.UpdateDataSource(ctx, ds); err != nil {
		return nil, err
	}
	return ds, nil
}

// Delete removes the data source and releases one unit of dataSources usage.
func (s *Service) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	if err := s.store.DeleteDataSource(ctx, tenantID, id); err != nil {
		return err
	}
	if !s.gate.ReleaseUsage(ctx, tenantID, plans.DataSources, 1) {
		s.log.WarnContext(ctx, "data source deleted without usage release",
			logger.TenantID(tenantID),
			slog.String("data_source_id", id.String()),
		)
	}
	return nil
}
