package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		JWTSecret:  "a-development-secret-of-sufficient-length",
		TokenTTL:   720 * time.Hour,
		BcryptCost: 12,
		Port:       "3000",
		DBDriver:   "postgres",
		DBPassword: "password",
		Env:        "development",
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid development", mutate: func(*Config) {}},
		{name: "missing port", mutate: func(c *Config) { c.Port = "" }, wantErr: "PORT"},
		{name: "missing secret", mutate: func(c *Config) { c.JWTSecret = "" }, wantErr: "JWT_SECRET"},
		{name: "zero ttl", mutate: func(c *Config) { c.TokenTTL = 0 }, wantErr: "TOKEN_TTL"},
		{name: "unknown driver", mutate: func(c *Config) { c.DBDriver = "mysql" }, wantErr: "DB_DRIVER"},
		{
			name:    "admin without password",
			mutate:  func(c *Config) { c.AdminEmail = "root@bhreads.dev" },
			wantErr: "ADMIN_PASSWORD",
		},
		{
			name: "production default secret",
			mutate: func(c *Config) {
				c.Env = "production"
				c.JWTSecret = defaultJWTSecret
			},
			wantErr: "default value",
		},
		{
			name: "production short secret",
			mutate: func(c *Config) {
				c.Env = "production"
				c.JWTSecret = "short"
			},
			wantErr: "32 characters",
		},
		{
			name: "production weak db password",
			mutate: func(c *Config) {
				c.Env = "production"
			},
			wantErr: "DB_PASSWORD",
		},
		{
			name: "production sqlite ok",
			mutate: func(c *Config) {
				c.Env = "production"
				c.DBDriver = "sqlite"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("PORT", "9090")
	t.Setenv("JWT_SECRET", "env-provided-secret-that-is-long-enough")
	t.Setenv("TOKEN_TTL", "48h")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_PATH", ":memory:")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 48*time.Hour, cfg.TokenTTL)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, ":memory:", cfg.DBPath)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.True(t, cfg.MigrateOnStart)
	assert.False(t, cfg.IsProduction())
}
