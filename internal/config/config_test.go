package config_test

import (
	"testing"
	"time"

	"backoffice/internal/config"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViper_Defaults(t *testing.T) {
	v := viper.New()
	config.SetDefaults(v)

	cfg, err := config.FromViper(v)
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.AppPort)
	assert.Equal(t, "postgres", cfg.DatabaseDriver)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, time.Minute, cfg.DashboardCacheTTL)
	assert.Equal(t, 5, cfg.OrderNumberMaxAttempts)
	assert.False(t, cfg.OrderStrictTransitions)
	assert.True(t, cfg.RabbitMQEnabled)
	assert.Empty(t, cfg.RedisAddr)
}

func TestFromViper_Overrides(t *testing.T) {
	v := viper.New()
	config.SetDefaults(v)
	v.Set("DATABASE_DRIVER", "SQLite")
	v.Set("ORDER_STRICT_TRANSITIONS", true)
	v.Set("JWT_TTL", "90m")
	v.Set("ADMIN_EMAIL", "Root@Example.com")
	v.Set("ADMIN_PASSWORD", "secret123")

	cfg, err := config.FromViper(v)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.True(t, cfg.OrderStrictTransitions)
	assert.Equal(t, 90*time.Minute, cfg.JWTTTL)
	assert.Equal(t, "root@example.com", cfg.AdminEmail)
}

func TestFromViper_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  interface{}
		msg  string
	}{
		{"empty secret", "JWT_SECRET", "", "JWT_SECRET"},
		{"unknown driver", "DATABASE_DRIVER", "mysql", "DATABASE_DRIVER"},
		{"zero attempts", "ORDER_NUMBER_MAX_ATTEMPTS", 0, "ORDER_NUMBER_MAX_ATTEMPTS"},
		{"admin without password", "ADMIN_EMAIL", "root@example.com", "ADMIN_PASSWORD"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			config.SetDefaults(v)
			v.Set(tt.key, tt.val)

			_, err := config.FromViper(v)
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}
