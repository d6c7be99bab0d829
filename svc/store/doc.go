// Package store holds the persistence adapters: Postgres for tenants, usage
// counters and data sources, and Redis for the billing webhook event log.
//
// The Postgres store satisfies tenant.Store, usage.TenantReader,
// usage.CounterStore, billing.TenantStore and datasource.Store.
// Counter increments are single atomic upserts clamped at zero, so concurrent
// records never lose updates.
package store
