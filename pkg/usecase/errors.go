package usecase

import "errors"

// Sentinel errors for use case layer
var (
	// Not found errors
	ErrActionNotFound = errors.New("action not found")

	// Access control errors
	ErrAccessDenied       = errors.New("access denied")
	ErrAssignDenied       = errors.New("operators cannot assign to others")
	ErrAssigneeOutOfScope = errors.New("assignee must be in the same site/tenant")

	// Authentication errors
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMissingCredentials = errors.New("email and password are required")

	// Other errors
	ErrUserAlreadyExists = errors.New("user already exists")
)

// Context keys for error values
const (
	ActionIDKey = "action_id"
	UserIDKey   = "user_id"
	TenantIDKey = "tenant_id"
	SiteIDKey   = "site_id"
	EmailKey    = "email"
)
