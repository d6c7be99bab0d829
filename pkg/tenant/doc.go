// Package tenant models the billed customer organisation: its plan, billing status
// and trial window, the onboarding flow that creates it, and HTTP helpers that carry
// the tenant identifier through a request.
//
// Authentication is delegated to the upstream identity proxy, which asserts the
// tenant in the X-Tenant-ID header. Middleware parses and validates that header
// and stores the identifier in the request context:
//
//	r := chi.NewRouter()
//	r.Use(tenant.Middleware(tenant.NewHeaderResolver("")))
//	r.With(tenant.RequireTenant(nil)).Get("/usage", func(w http.ResponseWriter, r *http.Request) {
//	    id, _ := tenant.IDFromContext(r.Context())
//	    ...
//	})
package tenant
