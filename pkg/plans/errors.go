package plans

import "errors"

var (
	ErrUnknownPlan     = errors.New("unknown subscription plan")
	ErrInvalidCategory = errors.New("invalid usage category")
)
