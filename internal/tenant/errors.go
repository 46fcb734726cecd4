package tenant

import "errors"

var (
	// ErrTenantNotFound is returned when an establishment cannot be found by slug or ID.
	ErrTenantNotFound = errors.New("establishment not found")

	// ErrTenantInactive is returned when an establishment exists but is not taking orders.
	ErrTenantInactive = errors.New("establishment is not active")
)
