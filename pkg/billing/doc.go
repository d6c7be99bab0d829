// Package billing connects tenants to a payments processor.
//
// A Provider wraps one processor SDK (Stripe or Paddle) behind three calls: create a
// hosted checkout, cancel at the end of the billing period, and verify and normalise a
// webhook. Service drives those calls and writes the outcome to the tenant record,
// which is what the usage resolver reads:
//
//	checkout completed     -> plan from metadata, status active, processor ids stored
//	payment succeeded      -> active
//	payment failed         -> past_due
//	subscription canceled  -> canceled
//
// Cancel marks the tenant canceling immediately; the processor's
// subscription-canceled event later moves it to canceled.
//
// Price identifiers differ per processor and environment, so they live in a YAML
// PriceBook rather than in the plan catalog.
package billing
