// Package datasource manages the knowledge sources a tenant connects to the voice
// assistant. Every data source counts against the plan's dataSources limit.
package datasource

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound        = errors.New("data source not found")
	ErrNameRequired    = errors.New("data source name is required")
	ErrConfigRequired  = errors.New("connection config is required")
	ErrInvalidType     = errors.New("invalid data source type")
	ErrInvalidSync     = errors.New("invalid sync frequency")
	ErrInvalidStatus   = errors.New("invalid data source status")
	ErrLimitReached    = errors.New("data source limit reached for current plan")
	ErrUsageUnverified = errors.New("unable to verify usage")
)

type Type string

const (
	TypePostgreSQL Type = "postgresql"
	TypeMySQL      Type = "mysql"
	TypeMongoDB    Type = "mongodb"
	TypeAPI        Type = "api"
	TypeDocuments  Type = "documents"
)

func (t Type) Valid() bool {
	switch t {
	case TypePostgreSQL, TypeMySQL, TypeMongoDB, TypeAPI, TypeDocuments:
		return true
	}
	return false
}

type SyncFrequency string

const (
	SyncManual SyncFrequency = "manual"
	SyncHourly SyncFrequency = "hourly"
	SyncDaily  SyncFrequency = "daily"
	SyncWeekly SyncFrequency = "weekly"
)

func (f SyncFrequency) Valid() bool {
	switch f {
	case SyncManual, SyncHourly, SyncDaily, SyncWeekly:
		return true
	}
	return false
}

type Status string

const (
	StatusDisconnected Status = "disconnected"
	StatusConnected    Status = "connected"
	StatusSyncing      Status = "syncing"
	StatusError        Status = "error"
)

func (s Status) Valid() bool {
	switch s {
	case StatusDisconnected, StatusConnected, StatusSyncing, StatusError:
		return true
	}
	return false
}

type DataSource struct {
	ID               uuid.UUID      `json:"id"`
	TenantID         uuid.UUID      `json:"tenant_id"`
	Name             string         `json:"name"`
	Type             Type           `json:"type"`
	ConnectionConfig map[string]any `json:"connection_config"`
	SyncFrequency    SyncFrequency  `json:"sync_frequency"`
	Status           Status         `json:"status"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// Store persists data sources. Every method is scoped to a tenant; rows of other
// tenants read as ErrNotFound.
type Store interface {
	CreateDataSource(ctx context.Context, ds *DataSource) error
	ListDataSources(ctx context.Context, tenantID uuid.UUID) ([]DataSource, error)
	UpdateDataSource(ctx context.Context, ds *DataSource) error
	DeleteDataSource(ctx context.Context, tenantID, id uuid.UUID) error
	GetDataSource(ctx context.Context, tenantID, id uuid.UUID) (*DataSource, error)
}
