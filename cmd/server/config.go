// Package main provides the Atelier server CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix namespaces every environment override.
const EnvPrefix = "ATELIER_"

// Config represents the server configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Database DatabaseConfig `yaml:"database"`
	Storage  StorageConfig  `yaml:"storage"`
	Auth     AuthConfig     `yaml:"auth"`
	CSRF     CSRFConfig     `yaml:"csrf"`
	Notify   NotifyConfig   `yaml:"notify"`
	Log      LogConfig      `yaml:"log"`
	Verbose  bool           `yaml:"-"` // set via CLI flag
}

// ServerConfig contains HTTP listener settings.
type ServerConfig struct {
	Address        string    `yaml:"address" env:"SERVER_ADDRESS, overwrite"`
	TLS            TLSConfig `yaml:"tls"`
	SecureCookies  bool      `yaml:"secure_cookies" env:"SERVER_SECURE_COOKIES, overwrite"`
	TrustedOrigins []string  `yaml:"trusted_origins" env:"SERVER_TRUSTED_ORIGINS, overwrite"`
	TrustProxy     bool      `yaml:"trust_proxy" env:"SERVER_TRUST_PROXY, overwrite"`
	MaxUploadMB    int64     `yaml:"max_upload_mb" env:"SERVER_MAX_UPLOAD_MB, overwrite"`
}

// TLSConfig contains HTTPS settings.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled" env:"TLS_ENABLED, overwrite"`
	CertFile string `yaml:"cert_file" env:"TLS_CERT_FILE, overwrite"`
	KeyFile  string `yaml:"key_file" env:"TLS_KEY_FILE, overwrite"`
}

// MetricsConfig controls the Prometheus endpoint. With an address set,
// metrics are served there instead of on the API listener.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" env:"METRICS_ENABLED, overwrite"`
	Address string `yaml:"address" env:"METRICS_ADDRESS, overwrite"`
}

// DatabaseConfig contains the SQLite location.
type DatabaseConfig struct {
	Path string `yaml:"path" env:"DATABASE_PATH, overwrite"`
}

// StorageConfig contains the upload root.
type StorageConfig struct {
	Root string `yaml:"root" env:"STORAGE_ROOT, overwrite"`
}

// AuthConfig contains session and login settings.
type AuthConfig struct {
	SessionSecret      string        `yaml:"session_secret" env:"SESSION_SECRET, overwrite"`
	SessionTTL         time.Duration `yaml:"session_ttl" env:"SESSION_TTL, overwrite"`
	RememberDays       int           `yaml:"remember_days" env:"REMEMBER_DAYS, overwrite"`
	BcryptCost         int           `yaml:"bcrypt_cost" env:"BCRYPT_COST, overwrite"`
	LockoutThreshold   int           `yaml:"lockout_threshold" env:"LOCKOUT_THRESHOLD, overwrite"`
	LockoutDuration    time.Duration `yaml:"lockout_duration" env:"LOCKOUT_DURATION, overwrite"`
	LoginRatePerMinute int           `yaml:"login_rate_per_minute" env:"LOGIN_RATE_PER_MINUTE, overwrite"`
}

// CSRFConfig contains CSRF protection settings.
type CSRFConfig struct {
	Enabled bool   `yaml:"enabled" env:"CSRF_ENABLED, overwrite"`
	Key     string `yaml:"key" env:"CSRF_KEY, overwrite"`
}

// NotifyConfig controls designer notifications about client feedback and
// gallery uploads.
type NotifyConfig struct {
	MaxPerMinute int         `yaml:"max_per_minute" env:"NOTIFY_MAX_PER_MINUTE, overwrite"`
	Email        EmailConfig `yaml:"email"`
	SlackWebhook string      `yaml:"slack_webhook" env:"NOTIFY_SLACK_WEBHOOK, overwrite"`
}

// EmailConfig contains SMTP settings. An empty host disables email.
type EmailConfig struct {
	Host     string `yaml:"host" env:"SMTP_HOST, overwrite"`
	Port     int    `yaml:"port" env:"SMTP_PORT, overwrite"`
	Username string `yaml:"username" env:"SMTP_USERNAME, overwrite"`
	Password string `yaml:"password" env:"SMTP_PASSWORD, overwrite"`
	From     string `yaml:"from" env:"SMTP_FROM, overwrite"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL, overwrite"`
	Format string `yaml:"format" env:"LOG_FORMAT, overwrite"`
}

// LoadConfig reads the YAML file at path (optional), applies ATELIER_*
// environment overrides, fills defaults and validates the result.
func LoadConfig(ctx context.Context, path string, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if lookuper == nil {
		lookuper = envconfig.OsLookuper()
	}
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: envconfig.PrefixLookuper(EnvPrefix, lookuper),
	}); err != nil {
		return nil, fmt.Errorf("environment overrides: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default values for missing config fields.
func (c *Config) setDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}
	if c.Server.MaxUploadMB == 0 {
		c.Server.MaxUploadMB = 20
	}
	if c.Database.Path == "" {
		c.Database.Path = "data/atelier.db"
	}
	if c.Storage.Root == "" {
		c.Storage.Root = "data/uploads"
	}
	if c.Auth.SessionTTL == 0 {
		c.Auth.SessionTTL = 24 * time.Hour
	}
	if c.Auth.RememberDays == 0 {
		c.Auth.RememberDays = 30
	}
	if c.Auth.BcryptCost == 0 {
		c.Auth.BcryptCost = 12
	}
	if c.Auth.LockoutThreshold == 0 {
		c.Auth.LockoutThreshold = 5
	}
	if c.Auth.LockoutDuration == 0 {
		c.Auth.LockoutDuration = 15 * time.Minute
	}
	if c.Auth.LoginRatePerMinute == 0 {
		c.Auth.LoginRatePerMinute = 10
	}
	if c.Notify.Email.Host != "" && c.Notify.Email.Port == 0 {
		c.Notify.Email.Port = 587
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if len(c.Auth.SessionSecret) < 32 {
		errs = append(errs, errors.New("auth.session_secret must be at least 32 characters"))
	}
	if c.Auth.BcryptCost < 10 || c.Auth.BcryptCost > 31 {
		errs = append(errs, errors.New("auth.bcrypt_cost must be between 10 and 31"))
	}
	if c.Auth.RememberDays < 1 {
		errs = append(errs, errors.New("auth.remember_days must be positive"))
	}
	if c.Server.MaxUploadMB < 1 {
		errs = append(errs, errors.New("server.max_upload_mb must be positive"))
	}
	if c.Server.TLS.Enabled {
		if c.Server.TLS.CertFile == "" {
			errs = append(errs, errors.New("server.tls.cert_file is required when TLS is enabled"))
		}
		if c.Server.TLS.KeyFile == "" {
			errs = append(errs, errors.New("server.tls.key_file is required when TLS is enabled"))
		}
	}
	if c.CSRF.Enabled && len(c.CSRF.Key) != 32 {
		errs = append(errs, errors.New("csrf.key must be exactly 32 characters when CSRF is enabled"))
	}
	if c.Notify.Email.Host != "" && c.Notify.Email.From == "" {
		errs = append(errs, errors.New("notify.email.from is required when notify.email.host is set"))
	}
	if w := c.Notify.SlackWebhook; w != "" && !strings.HasPrefix(w, "https://") {
		errs = append(errs, errors.New("notify.slack_webhook must use HTTPS"))
	}
	if c.Log.Format != "json" && c.Log.Format != "console" {
		errs = append(errs, fmt.Errorf("log.format %q must be json or console", c.Log.Format))
	}

	return errors.Join(errs...)
}
