package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Payphone-Digital/auth-service/internal/constants"
	"github.com/joho/godotenv"
)

const (
	defaultAccessSecret  = "default_access_secret_change_in_production"
	defaultRefreshSecret = "default_refresh_secret_change_in_production"
)

type Config struct {
	App       AppConfig
	Store     StoreConfig
	Mongo     MongoConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Seed      SeedConfig
}

type AppConfig struct {
	Name        string        `mapstructure:"name"`
	Environment string        `mapstructure:"environment"`
	Debug       bool          `mapstructure:"debug"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Port        string        `mapstructure:"port"`
	LogsPath    string        `mapstructure:"logs_path"`
	LogLevel    string        `mapstructure:"log_level"`
}

// StoreConfig selects the backend for users and refresh-token records.
type StoreConfig struct {
	Driver string `mapstructure:"driver"` // mongo, postgres or memory
}

type MongoConfig struct {
	URI     string        `mapstructure:"uri"`
	Name    string        `mapstructure:"name"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Name            string        `mapstructure:"name"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// JWTConfig holds the signing material for both token kinds. Expiry values use
// the d/h/m suffix form ("15m", "7d").
type JWTConfig struct {
	AccessSecret     string `mapstructure:"access_secret"`
	RefreshSecret    string `mapstructure:"refresh_secret"`
	AccessExpiresIn  string `mapstructure:"access_expires_in"`
	RefreshExpiresIn string `mapstructure:"refresh_expires_in"`
	Issuer           string `mapstructure:"issuer"`
}

type RedisConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	Host             string        `mapstructure:"host"`
	Port             int           `mapstructure:"port"`
	Password         string        `mapstructure:"password"`
	Database         int           `mapstructure:"database"`
	PoolSize         int           `mapstructure:"pool_size"`
	MinIdleConns     int           `mapstructure:"min_idle_conns"`
	DialTimeout      time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout      time.Duration `mapstructure:"read_timeout"`
	WriteTimeout     time.Duration `mapstructure:"write_timeout"`
	PoolTimeout      time.Duration `mapstructure:"pool_timeout"`
	UserCacheTTL     time.Duration `mapstructure:"user_cache_ttl"`
	BreakerThreshold int           `mapstructure:"breaker_threshold"`
	BreakerTimeout   time.Duration `mapstructure:"breaker_timeout"`
}

type RateLimitConfig struct {
	Request  int `mapstructure:"request"`
	Duration int `mapstructure:"duration"`
}

type CORSConfig struct {
	Origin string `mapstructure:"origin"`
}

// SeedConfig controls creation of a bootstrap admin account at startup.
type SeedConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	AdminName     string `mapstructure:"admin_name"`
	AdminEmail    string `mapstructure:"admin_email"`
	AdminPassword string `mapstructure:"admin_password"`
}

func LoadConfig() (*Config, error) {
	env := getEnv("APP_ENV", constants.DefaultEnvironment)

	// .env.<environment> wins over .env; both are optional
	_ = godotenv.Load(".env." + env)
	_ = godotenv.Load()

	config := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "auth-service"),
			Environment: env,
			Port:        getEnv("APP_PORT", constants.DefaultPort),
			Debug:       getEnvAsBool("APP_DEBUG", env != constants.EnvProduction),
			Timeout:     getEnvAsDuration("APP_TIMEOUT", 30*time.Second),
			LogsPath:    getEnv("LOGS_PATH", ""),
			LogLevel:    strings.ToLower(getEnv("LOG_LEVEL", "")),
		},
		Store: StoreConfig{
			Driver: strings.ToLower(getEnv("STORE_DRIVER", constants.StoreMongo)),
		},
		Mongo: MongoConfig{
			URI:     getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Name:    getEnv("MONGODB_NAME", "auth_service"),
			Timeout: getEnvAsDuration("MONGODB_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			Name:            getEnv("DB_NAME", "auth_db"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", time.Hour),
			ConnMaxIdleTime: getEnvAsDuration("DB_CONN_MAX_IDLE_TIME", 10*time.Minute),
		},
		Redis: RedisConfig{
			Enabled:          getEnvAsBool("REDIS_ENABLED", false),
			Host:             getEnv("REDIS_HOST", "localhost"),
			Port:             getEnvAsInt("REDIS_PORT", 6379),
			Password:         getEnv("REDIS_PASSWORD", ""),
			Database:         getEnvAsInt("REDIS_DB", 0),
			PoolSize:         getEnvAsInt("REDIS_POOL_SIZE", 10),
			MinIdleConns:     getEnvAsInt("REDIS_MIN_IDLE_CONNS", 5),
			DialTimeout:      getEnvAsDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:      getEnvAsDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout:     getEnvAsDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			PoolTimeout:      getEnvAsDuration("REDIS_POOL_TIMEOUT", 4*time.Second),
			UserCacheTTL:     getEnvAsDuration("REDIS_USER_CACHE_TTL", time.Minute),
			BreakerThreshold: getEnvAsInt("REDIS_BREAKER_THRESHOLD", 5),
			BreakerTimeout:   getEnvAsDuration("REDIS_BREAKER_TIMEOUT", 30*time.Second),
		},
		JWT: JWTConfig{
			AccessSecret:     getEnv("JWT_ACCESS_SECRET", defaultAccessSecret),
			RefreshSecret:    getEnv("JWT_REFRESH_SECRET", defaultRefreshSecret),
			AccessExpiresIn:  getEnv("JWT_ACCESS_EXPIRES_IN", constants.DefaultAccessExpiry),
			RefreshExpiresIn: getEnv("JWT_REFRESH_EXPIRES_IN", constants.DefaultRefreshExpiry),
			Issuer:           getEnv("JWT_ISSUER", "auth-service"),
		},
		RateLimit: RateLimitConfig{
			Request:  getEnvAsInt("RATE_LIMIT_MAX_REQUEST", 500),
			Duration: getEnvAsInt("RATE_LIMIT_DURATION", 900),
		},
		CORS: CORSConfig{
			Origin: getEnv("CORS_ORIGIN", "*"),
		},
		Seed: SeedConfig{
			Enabled:       getEnvAsBool("SEED_ADMIN", false),
			AdminName:     getEnv("SEED_ADMIN_NAME", "Administrator"),
			AdminEmail:    getEnv("SEED_ADMIN_EMAIL", "admin@auth.local"),
			AdminPassword: getEnv("SEED_ADMIN_PASSWORD", ""),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate rejects configurations that would make token signing unsafe.
func (c *Config) Validate() error {
	if c.JWT.AccessSecret == "" || c.JWT.RefreshSecret == "" {
		return errors.New("jwt secrets must not be empty")
	}
	if c.JWT.AccessSecret == c.JWT.RefreshSecret {
		return errors.New("access and refresh secrets must differ")
	}
	if c.IsProduction() &&
		(c.JWT.AccessSecret == defaultAccessSecret || c.JWT.RefreshSecret == defaultRefreshSecret) {
		return errors.New("default jwt secrets are not allowed in production")
	}

	if _, err := ParseExpiry(c.JWT.AccessExpiresIn); err != nil {
		return fmt.Errorf("JWT_ACCESS_EXPIRES_IN: %w", err)
	}
	if _, err := ParseExpiry(c.JWT.RefreshExpiresIn); err != nil {
		return fmt.Errorf("JWT_REFRESH_EXPIRES_IN: %w", err)
	}

	switch c.Store.Driver {
	case constants.StoreMongo, constants.StorePostgres, constants.StoreMemory:
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}

	if c.Seed.Enabled && c.Seed.AdminPassword == "" {
		return errors.New("SEED_ADMIN_PASSWORD is required when SEED_ADMIN is enabled")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == constants.EnvProduction
}

func (c *Config) DatabaseConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func (c *Config) RedisAddress() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		boolValue, err := strconv.ParseBool(value)
		if err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
