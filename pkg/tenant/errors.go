package tenant

import "errors"

var (
	// ErrNotFound is returned by stores when no tenant matches the identifier.
	ErrNotFound = errors.New("tenant not found")

	ErrInvalidIdentifier = errors.New("invalid tenant identifier")
	ErrNoTenantInContext = errors.New("no tenant in context")

	ErrNameRequired  = errors.New("tenant name is required")
	ErrEmailRequired = errors.New("tenant email is required")
	ErrInvalidEmail  = errors.New("invalid tenant email")
	ErrInvalidPlan   = errors.New("invalid subscription plan")
	ErrAlreadyExists = errors.New("tenant already exists")
)
