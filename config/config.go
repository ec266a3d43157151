package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"portfolioapi.app/errors"
)

// Store backend selection
const (
	StoreTypePostgres = "postgres"
	StoreTypeDynamo   = "dynamodb"
)

// Cache backend selection
const (
	CacheTypeMemory = "memory"
	CacheTypeRedis  = "redis"
)

// Config represents the application configuration structure
type Config struct {
	Server     ServerConfig    `split_words:"true"`
	Store      StoreConfig     `split_words:"true"`
	Database   DatabaseConfig  `split_words:"true"`
	Dynamo     DynamoConfig    `split_words:"true"`
	Email      EmailConfig     `split_words:"true"`
	RateLimit  RateLimitConfig `split_words:"true"`
	Quality    QualityConfig   `split_words:"true"`
	Cache      CacheConfig     `split_words:"true"`
	Scheduler  SchedulerConfig `split_words:"true"`
	AppBaseURL string          `envconfig:"APP_URL"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port int `envconfig:"SERVER_PORT" default:"8080"`
}

// StoreConfig selects which subscriber store backend is wired in
type StoreConfig struct {
	Type string `envconfig:"STORE_TYPE" default:"postgres"`
}

// DatabaseConfig contains database connection settings
type DatabaseConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     int    `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" default:"postgres"`
	Password string `envconfig:"DB_PASSWORD" default:"postgres"`
	Name     string `envconfig:"DB_NAME" default:"portfolioapi"`
	SSLMode  string `envconfig:"DB_SSL_MODE" default:"disable"`
}

// GetDSN returns a formatted database connection string
func (c DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// DynamoConfig contains settings for the DynamoDB subscriber store
type DynamoConfig struct {
	Table    string `envconfig:"DYNAMO_TABLE" default:"subscribers"`
	Region   string `envconfig:"AWS_REGION" default:"us-east-1"`
	Endpoint string `envconfig:"AWS_ENDPOINT_URL"`
}

// EmailConfig contains email server and sending settings. All fields are
// optional: an unconfigured notifier downgrades subscribe to a success with
// a diagnostic flag instead of failing.
type EmailConfig struct {
	SMTPHost     string `envconfig:"EMAIL_SMTP_HOST"`
	SMTPPort     int    `envconfig:"EMAIL_SMTP_PORT" default:"587"`
	SMTPUsername string `envconfig:"EMAIL_SMTP_USERNAME"`
	SMTPPassword string `envconfig:"EMAIL_SMTP_PASSWORD"`
	FromName     string `envconfig:"EMAIL_FROM_NAME" default:"Portfolio Updates"`
	FromAddress  string `envconfig:"EMAIL_FROM_ADDRESS" default:"no-reply@portfolioapi.app"`
}

// Configured reports whether enough SMTP settings are present to send mail
func (e EmailConfig) Configured() bool {
	return e.SMTPHost != "" && e.SMTPUsername != "" && e.SMTPPassword != ""
}

// RateLimitConfig bounds subscribe attempts per client identity
type RateLimitConfig struct {
	SubscribeLimit int `envconfig:"SUBSCRIBE_RATE_LIMIT" default:"10"`
	WindowSeconds  int `envconfig:"SUBSCRIBE_RATE_WINDOW_SECONDS" default:"60"`
}

// Window returns the fixed rate-limit window as a duration
func (r RateLimitConfig) Window() time.Duration {
	return time.Duration(r.WindowSeconds) * time.Second
}

// QualityConfig contains settings for the quality telemetry read path.
// ProxyURL and Bucket are capabilities: each source is built only when its
// configuration is present.
type QualityConfig struct {
	ProxyURL        string `envconfig:"QUALITY_PROXY_URL"`
	ProxySecret     string `envconfig:"QUALITY_PROXY_SECRET"`
	Bucket          string `envconfig:"QUALITY_BUCKET"`
	Prefix          string `envconfig:"QUALITY_PREFIX" default:"quality"`
	Region          string `envconfig:"QUALITY_AWS_REGION" default:"us-east-1"`
	SnapshotPath    string `envconfig:"QUALITY_SNAPSHOT_PATH" default:"data/quality-snapshot.json"`
	HistoryLimit    int    `envconfig:"QUALITY_HISTORY_LIMIT" default:"30"`
	CacheTTLMinutes int    `envconfig:"QUALITY_CACHE_TTL_MINUTES" default:"10"`
	EnableCache     bool   `envconfig:"QUALITY_ENABLE_CACHE" default:"true"`
	EnableAuditLog  bool   `envconfig:"QUALITY_ENABLE_AUDIT_LOG" default:"false"`
	AuditLogPath    string `envconfig:"QUALITY_AUDIT_LOG_PATH" default:"logs/quality_sources.log"`
}

// CacheConfig selects and configures the snapshot cache backend
type CacheConfig struct {
	Type          string `envconfig:"CACHE_TYPE" default:"memory"`
	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
	TimeoutMS     int    `envconfig:"REDIS_TIMEOUT_MS" default:"2000"`
}

// SchedulerConfig contains settings for the background snapshot refresher
type SchedulerConfig struct {
	Enabled                bool `envconfig:"SCHEDULER_ENABLED" default:"true"`
	SnapshotRefreshMinutes int  `envconfig:"SNAPSHOT_REFRESH_MINUTES" default:"15"`
}

// LoadConfig loads and validates application configuration from environment variables
func LoadConfig() (*Config, error) {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return nil, errors.NewConfigurationError("error processing config", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.Store.Validate(); err != nil {
		return err
	}
	if c.Store.Type == StoreTypePostgres {
		if err := c.Database.Validate(); err != nil {
			return err
		}
	}
	if err := c.Email.Validate(); err != nil {
		return err
	}
	if err := c.RateLimit.Validate(); err != nil {
		return err
	}
	if err := c.Quality.Validate(); err != nil {
		return err
	}
	if err := c.Cache.Validate(); err != nil {
		return err
	}
	if err := c.Scheduler.Validate(); err != nil {
		return err
	}
	if err := c.validateAppBaseURL(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateAppBaseURL() error {
	// Empty is allowed: it means the notifier link cannot be built and
	// subscribe reports the dev/unconfigured flag instead of sending.
	if c.AppBaseURL == "" {
		return nil
	}
	if !strings.HasPrefix(c.AppBaseURL, "http://") && !strings.HasPrefix(c.AppBaseURL, "https://") {
		return errors.NewConfigurationError("APP_URL must start with http:// or https://", nil)
	}
	return nil
}

// Validate checks server configuration
func (s *ServerConfig) Validate() error {
	if s.Port < 1 || s.Port > 65535 {
		return errors.NewConfigurationError("SERVER_PORT must be between 1 and 65535", nil)
	}
	return nil
}

// Validate checks the store backend selection
func (s *StoreConfig) Validate() error {
	if s.Type != StoreTypePostgres && s.Type != StoreTypeDynamo {
		return errors.NewConfigurationError(
			fmt.Sprintf("STORE_TYPE must be one of: %s, %s", StoreTypePostgres, StoreTypeDynamo), nil)
	}
	return nil
}

// ValidateSSLMode validates the SSL mode configuration
func (d *DatabaseConfig) ValidateSSLMode() error {
	validSSLModes := []string{"disable", "require", "verify-ca", "verify-full"}
	for _, mode := range validSSLModes {
		if d.SSLMode == mode {
			return nil
		}
	}
	return errors.NewConfigurationError(
		fmt.Sprintf("DB_SSL_MODE must be one of: %s", strings.Join(validSSLModes, ", ")), nil)
}

// Validate checks database configuration
func (d *DatabaseConfig) Validate() error {
	if d.Host == "" {
		return errors.NewConfigurationError("DB_HOST cannot be empty", nil)
	}
	if d.Port < 1 || d.Port > 65535 {
		return errors.NewConfigurationError("DB_PORT must be between 1 and 65535", nil)
	}
	if d.User == "" {
		return errors.NewConfigurationError("DB_USER cannot be empty", nil)
	}
	if d.Name == "" {
		return errors.NewConfigurationError("DB_NAME cannot be empty", nil)
	}
	if err := d.ValidateSSLMode(); err != nil {
		return err
	}
	return nil
}

// Validate checks email configuration when it is present
func (e *EmailConfig) Validate() error {
	if !e.Configured() {
		return nil
	}
	if e.SMTPPort < 1 || e.SMTPPort > 65535 {
		return errors.NewConfigurationError("EMAIL_SMTP_PORT must be between 1 and 65535", nil)
	}
	if e.FromName == "" {
		return errors.NewConfigurationError("EMAIL_FROM_NAME cannot be empty", nil)
	}
	if !strings.Contains(e.FromAddress, "@") {
		return errors.NewConfigurationError("EMAIL_FROM_ADDRESS must be a valid email address", nil)
	}
	return nil
}

// Validate checks rate limit configuration
func (r *RateLimitConfig) Validate() error {
	if r.SubscribeLimit < 1 {
		return errors.NewConfigurationError("SUBSCRIBE_RATE_LIMIT must be at least 1", nil)
	}
	if r.WindowSeconds < 1 {
		return errors.NewConfigurationError("SUBSCRIBE_RATE_WINDOW_SECONDS must be at least 1", nil)
	}
	return nil
}

// Validate checks quality telemetry configuration
func (q *QualityConfig) Validate() error {
	if q.ProxyURL != "" && !strings.HasPrefix(q.ProxyURL, "http://") && !strings.HasPrefix(q.ProxyURL, "https://") {
		return errors.NewConfigurationError("QUALITY_PROXY_URL must start with http:// or https://", nil)
	}
	if q.SnapshotPath == "" {
		return errors.NewConfigurationError("QUALITY_SNAPSHOT_PATH cannot be empty", nil)
	}
	if q.HistoryLimit < 1 {
		return errors.NewConfigurationError("QUALITY_HISTORY_LIMIT must be at least 1", nil)
	}
	if q.CacheTTLMinutes < 1 {
		return errors.NewConfigurationError("QUALITY_CACHE_TTL_MINUTES must be at least 1", nil)
	}
	return nil
}

// Validate checks the cache backend selection
func (c *CacheConfig) Validate() error {
	if c.Type != CacheTypeMemory && c.Type != CacheTypeRedis {
		return errors.NewConfigurationError(
			fmt.Sprintf("CACHE_TYPE must be one of: %s, %s", CacheTypeMemory, CacheTypeRedis), nil)
	}
	if c.Type == CacheTypeRedis && c.RedisAddr == "" {
		return errors.NewConfigurationError("REDIS_ADDR cannot be empty when CACHE_TYPE is redis", nil)
	}
	return nil
}

// Validate checks scheduler configuration
func (s *SchedulerConfig) Validate() error {
	if s.SnapshotRefreshMinutes < 1 {
		return errors.NewConfigurationError("SNAPSHOT_REFRESH_MINUTES must be at least 1 minute", nil)
	}
	if s.SnapshotRefreshMinutes > 1440 {
		return errors.NewConfigurationError("SNAPSHOT_REFRESH_MINUTES cannot exceed 1440 minutes (24 hours)", nil)
	}
	return nil
}
