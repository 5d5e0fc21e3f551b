package constants

// Application Information
const AppVersion = "1.0.0"

// Environment Types
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Default Application Settings
const (
	DefaultPort        = "5000"
	DefaultEnvironment = EnvDevelopment
)

// Cache Key Prefixes
const CacheKeyUser = "auth:user:"

// Log Levels
const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
	LogLevelFatal = "fatal"
)

// Store drivers
const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)
