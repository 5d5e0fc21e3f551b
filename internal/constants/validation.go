package constants

// Field Length Limits
const (
	MinPasswordLength = 8
	MaxPasswordLength = 72 // bcrypt input limit
	MaxNameLength     = 100
	MaxEmailLength    = 255
	MaxPushTargetLen  = 4096
)

// Default token lifetimes, expressed in the d/h/m form accepted by the token service
const (
	DefaultAccessExpiry  = "15m"
	DefaultRefreshExpiry = "7d"
)

// Validation Patterns
const (
	EmailPattern = `^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`
)

// Password hashing cost used for stored credentials
const BcryptCost = 12
