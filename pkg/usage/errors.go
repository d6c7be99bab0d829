package usage

import "errors"

var (
	// ErrNotFound means the tenant has no record. Not recoverable by retry.
	ErrNotFound = errors.New("tenant not found")

	// ErrDependencyUnavailable means the tenant or usage store failed or timed out.
	ErrDependencyUnavailable = errors.New("usage store unavailable")

	ErrInvalidAmount = errors.New("usage amount must be positive")

	// ErrDowngradeBlocked is returned when current usage exceeds a target plan's limits.
	ErrDowngradeBlocked = errors.New("current usage exceeds target plan limits")
)
