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

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// RedisConfig provides settings for the Redis document store and job queue.
type RedisConfig interface {
	GetRedisURL() string
}

// AIConfig provides settings for the AI responder backend.
type AIConfig interface {
	GetAIAPIKey() string
	GetAIBaseURL() string
	GetAIModel() string
	GetAITimeout() time.Duration
	IsAIEnabled() bool
}

// EmailConfig provides settings for email sending.
type EmailConfig interface {
	GetEmailEnabled() bool
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
	GetOpsEmail() string
}

// DispatchConfig provides settings for the human hand-off dispatch channel.
type DispatchConfig interface {
	GetDispatchURL() string
	GetDispatchAPIKey() string
	GetOpsPhone() string
	IsDispatchEnabled() bool
}

// SchedulerConfig provides settings for background job processing.
type SchedulerConfig interface {
	RedisConfig
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
	GetSessionIdleTimeout() time.Duration
	GetEscalationFollowUpDelay() time.Duration
}

// AdminConfig provides settings for admin API authentication.
type AdminConfig interface {
	GetAdminAPIKey() string
}

// WebhookConfig provides settings for the telephony webhook endpoint.
type WebhookConfig interface {
	GetWebhookToken() string
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                     string
	HTTPAddr                string
	CORSAllowAll            bool
	CORSOrigins             []string
	CORSAllowCreds          bool
	RedisURL                string
	AsynqQueueName          string
	AsynqConcurrency        int
	SessionIdleTimeout      time.Duration
	EscalationFollowUpDelay time.Duration
	AIAPIKey                string
	AIBaseURL               string
	AIModel                 string
	AITimeout               time.Duration
	EmailEnabled            bool
	SMTPHost                string
	SMTPPort                int
	SMTPUsername            string
	SMTPPassword            string
	EmailFromName           string
	EmailFromAddress        string
	OpsEmail                string
	DispatchURL             string
	DispatchAPIKey          string
	OpsPhone                string
	AdminAPIKey             string
	WebhookToken            string
}

// =============================================================================
// Interface Implementations
// =============================================================================

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// RedisConfig implementation
func (c *Config) GetRedisURL() string { return c.RedisURL }

// AIConfig implementation
func (c *Config) GetAIAPIKey() string        { return c.AIAPIKey }
func (c *Config) GetAIBaseURL() string       { return c.AIBaseURL }
func (c *Config) GetAIModel() string         { return c.AIModel }
func (c *Config) GetAITimeout() time.Duration { return c.AITimeout }
func (c *Config) IsAIEnabled() bool          { return c.AIAPIKey != "" }

// EmailConfig implementation
func (c *Config) GetEmailEnabled() bool       { return c.EmailEnabled }
func (c *Config) GetSMTPHost() string         { return c.SMTPHost }
func (c *Config) GetSMTPPort() int            { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string     { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string     { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string    { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string { return c.EmailFromAddress }
func (c *Config) GetOpsEmail() string         { return c.OpsEmail }

// DispatchConfig implementation
func (c *Config) GetDispatchURL() string    { return c.DispatchURL }
func (c *Config) GetDispatchAPIKey() string { return c.DispatchAPIKey }
func (c *Config) GetOpsPhone() string       { return c.OpsPhone }
func (c *Config) IsDispatchEnabled() bool   { return c.DispatchURL != "" }

// SchedulerConfig implementation
func (c *Config) GetAsynqQueueName() string   { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int    { return c.AsynqConcurrency }
func (c *Config) GetSessionIdleTimeout() time.Duration { return c.SessionIdleTimeout }
func (c *Config) GetEscalationFollowUpDelay() time.Duration {
	return c.EscalationFollowUpDelay
}

// AdminConfig implementation
func (c *Config) GetAdminAPIKey() string { return c.AdminAPIKey }

// WebhookConfig implementation
func (c *Config) GetWebhookToken() string { return c.WebhookToken }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:3000"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                     getEnv("APP_ENV", "development"),
		HTTPAddr:                getEnv("HTTP_ADDR", ":8080"),
		CORSAllowAll:            corsAllowAll,
		CORSOrigins:             corsOrigins,
		CORSAllowCreds:          strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		RedisURL:                getEnv("REDIS_URL", "redis://localhost:6379/0"),
		AsynqQueueName:          getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:        mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),
		SessionIdleTimeout:      mustDuration(getEnv("SESSION_IDLE_TIMEOUT", "30m")),
		EscalationFollowUpDelay: mustDuration(getEnv("ESCALATION_FOLLOWUP_DELAY", "15m")),
		AIAPIKey:                getEnv("MOONSHOT_API_KEY", ""),
		AIBaseURL:               getEnv("MOONSHOT_BASE_URL", ""),
		AIModel:                 getEnv("MOONSHOT_MODEL", ""),
		AITimeout:               mustDuration(getEnv("AI_TIMEOUT", "12s")),
		EmailEnabled:            strings.EqualFold(getEnv("EMAIL_ENABLED", "true"), "true"),
		SMTPHost:                getEnv("SMTP_HOST", ""),
		SMTPPort:                mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:            getEnv("SMTP_USERNAME", ""),
		SMTPPassword:            getEnv("SMTP_PASSWORD", ""),
		EmailFromName:           getEnv("EMAIL_FROM_NAME", "BuildVive Renovations"),
		EmailFromAddress:        getEnv("EMAIL_FROM_ADDRESS", "no-reply@buildvive.com"),
		OpsEmail:                getEnv("OPS_EMAIL", ""),
		DispatchURL:             getEnv("DISPATCH_URL", ""),
		DispatchAPIKey:          getEnv("DISPATCH_API_KEY", ""),
		OpsPhone:                getEnv("OPS_PHONE", ""),
		AdminAPIKey:             getEnv("ADMIN_API_KEY", ""),
		WebhookToken:            getEnv("CALL_WEBHOOK_TOKEN", ""),
	}

	if !strings.EqualFold(cfg.Env, "development") && cfg.AdminAPIKey == "" {
		return nil, fmt.Errorf("ADMIN_API_KEY is required outside development")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func mustDuration(raw string) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}

func splitCSV(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
