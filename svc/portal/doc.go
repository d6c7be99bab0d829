// Package portal is the HTTP API of the admin portal.
//
// Every /api route except signup and the billing webhook runs behind the tenant
// middleware and requires the X-Tenant-ID header set by the auth proxy. JSON
// bodies use the envelope {"data": ...} on success and
// {"error": {"code": ..., "message": ...}} on failure.
//
// Usage failures map to distinct statuses: 404 for an unknown tenant, 429 for a
// reached limit and 503 when usage could not be verified. A reached limit is
// never reported for an unverified check.
package portal
