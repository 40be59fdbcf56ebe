package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORE_BACKEND", "")
	t.Setenv("TX_MAX_ATTEMPTS", "")

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, StoreMemory, cfg.StoreBackend)
	assert.Equal(t, 5, cfg.TxMaxAttempts)
	assert.Equal(t, 720*time.Hour, cfg.NotifyDedupeTTL)
	require.NoError(t, cfg.Validate())
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("STORE_BACKEND", StoreRedis)
	t.Setenv("REDIS_URL", "redis://localhost:6379/1")
	t.Setenv("ENUMERATION_CONCURRENCY", "16")
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")

	cfg := Load()
	assert.Equal(t, 16, cfg.EnumerationConcurrency)
	assert.True(t, cfg.OTelEnabled)
	assert.Equal(t, 15*time.Second, cfg.ShutdownTimeout)
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"postgres without url", func(c *Config) { c.StoreBackend = StorePostgres; c.DatabaseURL = "" }},
		{"redis without url", func(c *Config) { c.StoreBackend = StoreRedis; c.RedisURL = "" }},
		{"firestore without project", func(c *Config) { c.StoreBackend = StoreFirestore; c.FirestoreProjectID = "" }},
		{"unknown backend", func(c *Config) { c.StoreBackend = "mongo" }},
		{"memory in production", func(c *Config) { c.Environment = "production"; c.JWTSecret = "s3cret" }},
		{"default secret in production", func(c *Config) {
			c.Environment = "production"
			c.StoreBackend = StoreRedis
			c.RedisURL = "redis://x"
		}},
		{"zero concurrency", func(c *Config) { c.EnumerationConcurrency = 0 }},
		{"zero attempts", func(c *Config) { c.TxMaxAttempts = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Environment:            "development",
				StoreBackend:           StoreMemory,
				JWTSecret:              defaultJWTSecret,
				EnumerationConcurrency: 8,
				TxMaxAttempts:          5,
				QueueLimit:             50,
			}
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
