// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// JWTConfig provides JWT validation settings for operator middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// SchedulerConfig provides settings for the asynq client and worker.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// RoutingConfig provides settings for the routing engine write path.
type RoutingConfig interface {
	GetClockSkewTolerance() time.Duration
	GetApplyRetryBudget() int
	GetIngestMaxInFlight() int
	GetIngestAdmissionWait() time.Duration
}

// ReconcileConfig provides settings for the reconciliation sweep.
type ReconcileConfig interface {
	GetReconcileInterval() time.Duration
	GetReconcileBatchSize() int
	GetReconcileParallelism() int
}

// OutboxConfig provides settings for the transition command outbox poller.
type OutboxConfig interface {
	GetOutboxPollInterval() time.Duration
	GetOutboxBatchSize() int
}

// ScoringConfig locates the scoring weight/threshold file.
type ScoringConfig interface {
	GetScoringConfigPath() string
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                  string
	HTTPAddr             string
	DatabaseURL          string
	JWTAccessSecret      string
	CORSAllowAll         bool
	CORSOrigins          []string
	CORSAllowCreds       bool
	RedisURL             string
	RedisTLSInsecure     bool
	AsynqQueueName       string
	AsynqConcurrency     int
	ScoringConfigPath    string
	ClockSkewTolerance   time.Duration
	ApplyRetryBudget     int
	IngestMaxInFlight    int
	IngestAdmissionWait  time.Duration
	ReconcileInterval    time.Duration
	ReconcileBatchSize   int
	ReconcileParallelism int
	OutboxPollInterval   time.Duration
	OutboxBatchSize      int
}

// Load reads configuration from the environment (and .env in development).
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                  getEnv("APP_ENV", "development"),
		HTTPAddr:             getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		JWTAccessSecret:      getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:         corsAllowAll,
		CORSOrigins:          corsOrigins,
		CORSAllowCreds:       strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		RedisURL:             getEnv("REDIS_URL", ""),
		RedisTLSInsecure:     strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:       getEnv("ASYNQ_QUEUE", "routing"),
		AsynqConcurrency:     getIntEnv("ASYNQ_CONCURRENCY", 10),
		ScoringConfigPath:    getEnv("SCORING_CONFIG_PATH", ""),
		ClockSkewTolerance:   getDurationEnv("CLOCK_SKEW_TOLERANCE", 5*time.Minute),
		ApplyRetryBudget:     getIntEnv("APPLY_RETRY_BUDGET", 5),
		IngestMaxInFlight:    getIntEnv("INGEST_MAX_IN_FLIGHT", 256),
		IngestAdmissionWait:  getDurationEnv("INGEST_ADMISSION_WAIT", 200*time.Millisecond),
		ReconcileInterval:    getDurationEnv("RECONCILE_INTERVAL", 15*time.Minute),
		ReconcileBatchSize:   getIntEnv("RECONCILE_BATCH_SIZE", 200),
		ReconcileParallelism: getIntEnv("RECONCILE_PARALLELISM", 8),
		OutboxPollInterval:   getDurationEnv("OUTBOX_POLL_INTERVAL", 2*time.Second),
		OutboxBatchSize:      getIntEnv("OUTBOX_BATCH_SIZE", 50),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}

	return cfg, nil
}

// =============================================================================
// Interface implementations
// =============================================================================

func (c *Config) GetDatabaseURL() string                { return c.DatabaseURL }
func (c *Config) GetJWTAccessSecret() string            { return c.JWTAccessSecret }
func (c *Config) GetHTTPAddr() string                   { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool                 { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string              { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool               { return c.CORSAllowCreds }
func (c *Config) GetRedisURL() string                   { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool             { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string             { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int              { return c.AsynqConcurrency }
func (c *Config) GetScoringConfigPath() string          { return c.ScoringConfigPath }
func (c *Config) GetClockSkewTolerance() time.Duration  { return c.ClockSkewTolerance }
func (c *Config) GetApplyRetryBudget() int              { return c.ApplyRetryBudget }
func (c *Config) GetIngestMaxInFlight() int             { return c.IngestMaxInFlight }
func (c *Config) GetIngestAdmissionWait() time.Duration { return c.IngestAdmissionWait }
func (c *Config) GetReconcileInterval() time.Duration   { return c.ReconcileInterval }
func (c *Config) GetReconcileBatchSize() int            { return c.ReconcileBatchSize }
func (c *Config) GetReconcileParallelism() int          { return c.ReconcileParallelism }
func (c *Config) GetOutboxPollInterval() time.Duration  { return c.OutboxPollInterval }
func (c *Config) GetOutboxBatchSize() int               { return c.OutboxBatchSize }

// =============================================================================
// Helpers
// =============================================================================

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	raw := strings.TrimSpace(getEnv(key, ""))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(getEnv(key, ""))
	if raw == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
