package config

import (
	"testing"

	"github.com/Payphone-Digital/auth-service/internal/constants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("APP_PORT", "")
	t.Setenv("LOG_LEVEL", "WARN")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "auth-service", cfg.App.Name)
	assert.Equal(t, "test", cfg.App.Environment)
	assert.Equal(t, constants.DefaultPort, cfg.App.Port)
	assert.True(t, cfg.App.Debug, "debug defaults on outside production")
	assert.Equal(t, constants.LogLevelWarn, cfg.App.LogLevel)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, "15m", cfg.JWT.AccessExpiresIn)
	assert.Equal(t, "7d", cfg.JWT.RefreshExpiresIn)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.NotEqual(t, cfg.JWT.AccessSecret, cfg.JWT.RefreshSecret)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			App:   AppConfig{Environment: "development"},
			Store: StoreConfig{Driver: "memory"},
			JWT: JWTConfig{
				AccessSecret:     "a",
				RefreshSecret:    "b",
				AccessExpiresIn:  "15m",
				RefreshExpiresIn: "7d",
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "empty access secret", mutate: func(c *Config) { c.JWT.AccessSecret = "" }, wantErr: true},
		{name: "shared secret", mutate: func(c *Config) { c.JWT.RefreshSecret = "a" }, wantErr: true},
		{name: "bad access expiry", mutate: func(c *Config) { c.JWT.AccessExpiresIn = "soon" }, wantErr: true},
		{name: "unknown driver", mutate: func(c *Config) { c.Store.Driver = "sqlite" }, wantErr: true},
		{
			name: "default secrets in production",
			mutate: func(c *Config) {
				c.App.Environment = "production"
				c.JWT.AccessSecret = defaultAccessSecret
			},
			wantErr: true,
		},
		{
			name:    "seed without password",
			mutate:  func(c *Config) { c.Seed.Enabled = true },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
