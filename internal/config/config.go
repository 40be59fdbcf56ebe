// internal/config/config.go
// Centralized configuration management
// Loads from environment variables with sensible defaults

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Store backends for profile documents and match records
const (
	StorePostgres  = "postgres"
	StoreRedis     = "redis"
	StoreFirestore = "firestore"
	StoreMemory    = "memory"
)

const defaultJWTSecret = "your-super-secret-key-change-this-in-production"

// Config holds all application configuration
type Config struct {
	// Server
	Port            string
	Environment     string
	LogMode         string
	ShutdownTimeout time.Duration

	// Storage
	StoreBackend        string
	DatabaseURL         string
	RedisURL            string
	FirestoreProjectID  string
	FirebaseCredentials string

	// Notifications
	NATSURL             string
	NotifySubjectPrefix string
	NotifyDedupeTTL     time.Duration

	// Security
	JWTSecret string
	JWTIssuer string

	// Matching
	EnumerationConcurrency int
	TxMaxAttempts          int
	QueueLimit             int

	// Tracing
	OTelEnabled bool
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		// Server
		Port:            getEnv("PORT", "8080"),
		Environment:     getEnv("ENVIRONMENT", "development"),
		LogMode:         getEnv("LOG_MODE", "development"),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", "15s"),

		// Storage
		StoreBackend:        getEnv("STORE_BACKEND", StoreMemory),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		RedisURL:            getEnv("REDIS_URL", ""),
		FirestoreProjectID:  getEnv("FIRESTORE_PROJECT_ID", ""),
		FirebaseCredentials: getEnv("FIREBASE_CREDENTIALS_PATH", ""),

		// Notifications
		NATSURL:             getEnv("NATS_URL", ""),
		NotifySubjectPrefix: getEnv("NOTIFY_SUBJECT_PREFIX", "datescape.notifications"),
		NotifyDedupeTTL:     getEnvDuration("NOTIFY_DEDUPE_TTL", "720h"), // 30 days

		// Security
		JWTSecret: getEnv("JWT_SECRET", defaultJWTSecret),
		JWTIssuer: getEnv("JWT_ISSUER", ""),

		// Matching
		EnumerationConcurrency: getEnvInt("ENUMERATION_CONCURRENCY", 8),
		TxMaxAttempts:          getEnvInt("TX_MAX_ATTEMPTS", 5),
		QueueLimit:             getEnvInt("QUEUE_LIMIT", 50),

		OTelEnabled: getEnvBool("OTEL_ENABLED", false),
	}
}

// Validate checks the configuration for the selected backend
func (c *Config) Validate() error {
	if c.JWTSecret == defaultJWTSecret && c.Environment == "production" {
		return fmt.Errorf("JWT secret must be changed for production")
	}

	switch c.StoreBackend {
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres store")
		}
	case StoreRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required for the redis store")
		}
	case StoreFirestore:
		if c.FirestoreProjectID == "" {
			return fmt.Errorf("FIRESTORE_PROJECT_ID is required for the firestore store")
		}
	case StoreMemory:
		if c.Environment == "production" {
			return fmt.Errorf("memory store cannot be used in production")
		}
	default:
		return fmt.Errorf("invalid store backend: %s", c.StoreBackend)
	}

	if c.EnumerationConcurrency < 1 || c.EnumerationConcurrency > 256 {
		return fmt.Errorf("enumeration concurrency must be between 1 and 256")
	}
	if c.TxMaxAttempts < 1 || c.TxMaxAttempts > 50 {
		return fmt.Errorf("transaction attempts must be between 1 and 50")
	}
	if c.QueueLimit < 1 {
		return fmt.Errorf("queue limit must be positive")
	}

	return nil
}

// IsProduction reports whether the service runs in production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets a string value from environment with a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer value from environment with a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration gets a duration value from environment with a default
func getEnvDuration(key string, defaultValue string) time.Duration {
	value := getEnv(key, defaultValue)
	duration, err := time.ParseDuration(value)
	if err != nil {
		// If parsing fails, try to parse the default
		duration, _ = time.ParseDuration(defaultValue)
	}
	return duration
}

// getEnvBool gets a boolean value from environment with a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
