// Package usage enforces plan limits at the point of use.
//
// A Resolver joins a tenant's plan and billing status with its usage counters into a
// Snapshot. A Gate consults the snapshot before a metered action (CheckLimit) and
// bumps the counter afterwards (RecordUsage). Guard views derived from a snapshot
// drive the upgrade banners shown in the portal.
//
// Check and record are two independent calls. Two concurrent callers can both pass
// CheckLimit at usage N-1 and both record, leaving the counter at N+1. The counter
// store's atomic increment is the only hard guarantee; CheckLimit is advisory and
// a small overshoot under concurrency is accepted.
//
// Failures are never folded into a silent allow:
//
//   - ErrNotFound: the tenant does not exist. CheckLimit denies.
//   - ErrDependencyUnavailable: the store failed or timed out. CheckLimit applies the
//     configured FailurePolicy (FailClosed unless configured otherwise) and still
//     returns the error so the caller can tell "denied" from "could not verify".
//   - plans.ErrInvalidCategory: a category outside the closed set reached the gate.
//
// RecordUsage reports failure as false and logs it. By the time usage is recorded
// the metered action has usually happened, so callers keep the action.
//
// Basic usage:
//
//	res := usage.NewResolver(tenants, counters, usage.WithLogger(log))
//	gate := usage.NewGate(res, counters, usage.WithFailurePolicy(usage.FailClosed))
//
//	ok, err := gate.CheckLimit(ctx, tenantID, plans.Conversations)
//	if !ok {
//	    // render limit reached or unable to verify, depending on err
//	}
//	// ... perform the action ...
//	gate.RecordUsage(ctx, tenantID, plans.Conversations, 1)
package usage
