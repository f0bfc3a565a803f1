package common

// Header names used on outbound API requests.
const (
	AuthorizationHeaderName = "Authorization"
	RequestIDHeaderName     = "X-Request-Id"
	BearerPrefix            = "Bearer "
)

// Roles known to the platform. Comparison is always case-insensitive.
const (
	RoleAdmin   = "admin"
	RoleCitizen = "citizen"
)
