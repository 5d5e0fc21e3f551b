package constants

// HTTP Header Names
const (
	HeaderAuthorization = "Authorization"
	HeaderXRequestID    = "X-Request-ID"
	HeaderOrigin        = "Origin"
)

// AuthScheme is the only accepted Authorization scheme.
const AuthScheme = "Bearer"

// Common HTTP Error Messages
const (
	MsgInternalError   = "Internal Server Error"
	MsgTooManyRequests = "Too many requests from this IP, please try again later."
)

// Auth messages
const (
	MsgRegistered       = "User registered successfully"
	MsgLoginSuccessful  = "Login successful"
	MsgTokenRefreshed   = "Token refreshed successfully"
	MsgLogoutSuccessful = "Logout successful"
	MsgCurrentUser      = "Current user"
	MsgAdminAccess      = "Admin access granted"
	MsgValidationFailed = "Validation Error"
	MsgInvalidJSON      = "Invalid request format"
)
