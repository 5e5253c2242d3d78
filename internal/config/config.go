// Package config loads service configuration from an optional YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	// Load .env file to environments
	_ "github.com/joho/godotenv/autoload"
	"gopkg.in/yaml.v3"
)

// Config is the full service configuration.
type Config struct {
	Port     int    `yaml:"port"`
	LogLevel string `yaml:"log_level"`
	// TransitionPolicy is "permissive" or "forward-only"
	TransitionPolicy string `yaml:"transition_policy"`

	Database     DatabaseConfig     `yaml:"database"`
	Auth         AuthConfig         `yaml:"auth"`
	Identity     IdentityConfig     `yaml:"identity"`
	Notification NotificationConfig `yaml:"notification"`
	RateLimit    RateLimitConfig    `yaml:"rate_limit"`
	Storage      StorageConfig      `yaml:"storage"`

	AllowOrigins []string `yaml:"allow_origins"`
}

// DatabaseConfig holds PostgreSQL connection settings
type DatabaseConfig struct {
	Host          string `yaml:"host"`
	Port          string `yaml:"port"`
	User          string `yaml:"user"`
	Password      string `yaml:"password"`
	Name          string `yaml:"name"`
	UseConnString bool   `yaml:"use_connection_string"`
	ConnString    string `yaml:"connection_string"`
}

// AuthConfig holds the shared secret of the SSO service
type AuthConfig struct {
	SecretKey string `yaml:"secret_key"`
	Issuer    string `yaml:"issuer"`
}

// IdentityConfig points at the external member directory
type IdentityConfig struct {
	BaseURL      string        `yaml:"base_url"`
	Timeout      time.Duration `yaml:"timeout"`
	Concurrency  int           `yaml:"concurrency"`
	ClientID     string        `yaml:"client_id"`
	ClientSecret string        `yaml:"client_secret"`
	TokenURL     string        `yaml:"token_url"`
}

// NotificationConfig configures the notification dispatcher
type NotificationConfig struct {
	NatsURL       string `yaml:"nats_url"`
	SubjectPrefix string `yaml:"subject_prefix"`
	QueueSize     int    `yaml:"queue_size"`
}

// RateLimitConfig configures the request rate limiter
type RateLimitConfig struct {
	RequestsPerSecond int    `yaml:"requests_per_second"`
	RedisURL          string `yaml:"redis_url"`
}

// StorageConfig configures document file uploads
type StorageConfig struct {
	Bucket        string `yaml:"bucket"`
	PublicBaseURL string `yaml:"public_base_url"`
}

// Application status transition policies
const (
	TransitionsPermissive  = "permissive"
	TransitionsForwardOnly = "forward-only"
)

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Port:             8080,
		LogLevel:         "info",
		TransitionPolicy: TransitionsPermissive,
		Auth: AuthConfig{
			Issuer: "jobcard-sso",
		},
		Identity: IdentityConfig{
			Timeout:     5 * time.Second,
			Concurrency: 8,
		},
		Notification: NotificationConfig{
			SubjectPrefix: "jobcard.notify",
			QueueSize:     256,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 5,
		},
		Storage: StorageConfig{
			PublicBaseURL: "https://storage.googleapis.com",
		},
	}
}

// Load reads the YAML file named by JOBCARD_CONFIG (when set) and applies
// environment overrides on top of it.
func Load() (*Config, error) {
	return LoadFromFile(os.Getenv("JOBCARD_CONFIG"))
}

// LoadFromFile reads path (when not empty), applies environment overrides and validates.
func LoadFromFile(path string) (*Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read is LoadFromFile without validation, for tools that only need the database.
func Read(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Port = intOr("PORT", c.Port)
	c.LogLevel = envOr("LOG_LEVEL", c.LogLevel)
	c.TransitionPolicy = envOr("TRANSITION_POLICY", c.TransitionPolicy)

	c.Database.Host = envOr("DB_HOST", c.Database.Host)
	c.Database.Port = envOr("DB_PORT", c.Database.Port)
	c.Database.User = envOr("DB_USERNAME", c.Database.User)
	c.Database.Password = envOr("DB_PASSWORD", c.Database.Password)
	c.Database.Name = envOr("DB_DATABASE", c.Database.Name)
	c.Database.UseConnString = boolOr("USE_CONNECTION_STR", c.Database.UseConnString)
	c.Database.ConnString = envOr("DB_CONNECTION_STR", c.Database.ConnString)

	c.Auth.SecretKey = envOr("SSO_SECRET_KEY", c.Auth.SecretKey)
	c.Auth.Issuer = envOr("SSO_ISSUER", c.Auth.Issuer)

	c.Identity.BaseURL = envOr("AUTH_SERVER_URL", c.Identity.BaseURL)
	c.Identity.Timeout = durationOr("IDENTITY_TIMEOUT", c.Identity.Timeout)
	c.Identity.Concurrency = intOr("IDENTITY_CONCURRENCY", c.Identity.Concurrency)
	c.Identity.ClientID = envOr("IDENTITY_CLIENT_ID", c.Identity.ClientID)
	c.Identity.ClientSecret = envOr("IDENTITY_CLIENT_SECRET", c.Identity.ClientSecret)
	c.Identity.TokenURL = envOr("IDENTITY_TOKEN_URL", c.Identity.TokenURL)

	c.Notification.NatsURL = envOr("NATS_URL", c.Notification.NatsURL)
	c.Notification.SubjectPrefix = envOr("NOTIFY_SUBJECT_PREFIX", c.Notification.SubjectPrefix)
	c.Notification.QueueSize = intOr("NOTIFY_QUEUE_SIZE", c.Notification.QueueSize)

	c.RateLimit.RequestsPerSecond = intOr("RATE_LIMIT_REQUESTS_PER_SECOND", c.RateLimit.RequestsPerSecond)
	c.RateLimit.RedisURL = envOr("REDIS_URL", c.RateLimit.RedisURL)

	c.Storage.Bucket = envOr("GCS_BUCKET", c.Storage.Bucket)
	c.Storage.PublicBaseURL = envOr("GCS_PUBLIC_BASE_URL", c.Storage.PublicBaseURL)

	if origins := os.Getenv("ALLOW_ORIGIN"); origins != "" {
		c.AllowOrigins = splitList(origins)
	}
}

// Validate checks required settings and normalizes out of range values.
func (c *Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.Auth.SecretKey == "" {
		errs = append(errs, errors.New("SSO_SECRET_KEY is required"))
	}
	if c.Identity.BaseURL == "" {
		errs = append(errs, errors.New("AUTH_SERVER_URL is required"))
	}
	if c.Identity.ClientID != "" && c.Identity.TokenURL == "" {
		errs = append(errs, errors.New("IDENTITY_TOKEN_URL is required when IDENTITY_CLIENT_ID is set"))
	}
	if c.TransitionPolicy != TransitionsPermissive && c.TransitionPolicy != TransitionsForwardOnly {
		errs = append(errs, fmt.Errorf("unknown transition policy %q", c.TransitionPolicy))
	}
	if c.Identity.Timeout <= 0 {
		c.Identity.Timeout = 5 * time.Second
	}
	if c.Identity.Concurrency <= 0 {
		c.Identity.Concurrency = 8
	}
	if c.Notification.QueueSize <= 0 {
		c.Notification.QueueSize = 256
	}
	if c.RateLimit.RequestsPerSecond <= 0 {
		c.RateLimit.RequestsPerSecond = 5
	}
	return errors.Join(errs...)
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func intOr(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func boolOr(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func durationOr(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
