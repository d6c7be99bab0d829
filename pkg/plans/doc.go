// Package plans is the static catalog of subscription tiers: price, trial length and
// per-category usage limits.
//
// Plan identifiers and usage categories are closed sets. External text is converted
// with ParseID and ParseCategory at the boundary; inside the program the typed
// constants make unknown plans and categories unrepresentable, so catalog lookups
// never fail.
//
// Limits are a sum type rather than a magic number:
//
//	limit := plans.LimitsFor(plans.Starter)[plans.Conversations]
//	if limit.Allows(used) {
//	    // proceed
//	}
//
//	plans.Unlimited().Percentage(999999) // 0
//	plans.Finite(1000).Percentage(1200)  // 120, overage is not clamped
package plans
