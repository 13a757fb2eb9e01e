// Package config loads bizhub configuration from a YAML file, an optional
// .env file and BIZHUB_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the complete server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Logging   LoggingConfig   `yaml:"logging"`
	Auth      AuthConfig      `yaml:"auth"`
	Session   SessionConfig   `yaml:"session"`
	Audit     AuditConfig     `yaml:"audit"`
	CORS      CORSConfig      `yaml:"cors"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr            string        `yaml:"addr" env:"BIZHUB_ADDR"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"BIZHUB_READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"BIZHUB_WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"BIZHUB_SHUTDOWN_TIMEOUT"`
}

// DatabaseConfig selects the Postgres store. An empty DSN keeps all data
// in memory.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn" env:"BIZHUB_DATABASE_DSN"`
	MaxOpenConns    int           `yaml:"max_open_conns" env:"BIZHUB_DATABASE_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `yaml:"max_idle_conns" env:"BIZHUB_DATABASE_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"BIZHUB_DATABASE_CONN_MAX_LIFETIME"`
	AutoMigrate     bool          `yaml:"auto_migrate" env:"BIZHUB_DATABASE_AUTO_MIGRATE"`
}

// RedisConfig is used only by the audit stream sink.
type RedisConfig struct {
	Addr     string `yaml:"addr" env:"BIZHUB_REDIS_ADDR"`
	Password string `yaml:"password" env:"BIZHUB_REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"BIZHUB_REDIS_DB"`
}

// LoggingConfig controls the logrus logger.
type LoggingConfig struct {
	Level  string `yaml:"level" env:"BIZHUB_LOG_LEVEL"`
	Format string `yaml:"format" env:"BIZHUB_LOG_FORMAT"`
}

// AuthConfig configures JWT verification.
type AuthConfig struct {
	Secret     string        `yaml:"secret" env:"BIZHUB_AUTH_SECRET"`
	CookieName string        `yaml:"cookie_name" env:"BIZHUB_AUTH_COOKIE"`
	TokenTTL   time.Duration `yaml:"token_ttl" env:"BIZHUB_AUTH_TOKEN_TTL"`
}

// SessionConfig configures the flash-message cookie session.
type SessionConfig struct {
	Name   string `yaml:"name" env:"BIZHUB_SESSION_NAME"`
	Key    string `yaml:"key" env:"BIZHUB_SESSION_KEY"`
	Secure bool   `yaml:"secure" env:"BIZHUB_SESSION_SECURE"`
}

// AuditConfig selects the audit sinks. The in-memory ring is always on.
type AuditConfig struct {
	Buffer      int    `yaml:"buffer" env:"BIZHUB_AUDIT_BUFFER"`
	File        string `yaml:"file" env:"BIZHUB_AUDIT_FILE"`
	Postgres    bool   `yaml:"postgres" env:"BIZHUB_AUDIT_POSTGRES"`
	RedisStream string `yaml:"redis_stream" env:"BIZHUB_AUDIT_REDIS_STREAM"`
	RedisMaxLen int64  `yaml:"redis_max_len" env:"BIZHUB_AUDIT_REDIS_MAXLEN"`
}

// CORSConfig lists allowed origins.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" env:"BIZHUB_CORS_ORIGINS"`
}

// RateLimitConfig configures per-identity throttling.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled" env:"BIZHUB_RATE_LIMIT_ENABLED"`
	RequestsPerSecond int  `yaml:"requests_per_second" env:"BIZHUB_RATE_LIMIT_RPS"`
	Burst             int  `yaml:"burst" env:"BIZHUB_RATE_LIMIT_BURST"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Logging: LoggingConfig{Level: "info", Format: "json"},
		Auth: AuthConfig{
			CookieName: "bizhub_token",
			TokenTTL:   12 * time.Hour,
		},
		Session: SessionConfig{Name: "bizhub_session"},
		Audit: AuditConfig{
			Buffer:      1000,
			RedisMaxLen: 10000,
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerSecond: 20,
			Burst:             40,
		},
	}
}

// Load builds the configuration. path may be empty; envFile may be empty
// or point to a missing file.
func Load(path, envFile string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}

	if err := envdecode.Decode(cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("decode environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var problems []string

	if c.Server.Addr == "" {
		problems = append(problems, "server.addr is required")
	}
	if len(c.Auth.Secret) < 32 {
		problems = append(problems, "auth.secret must be at least 32 bytes")
	}
	if n := len(c.Session.Key); n != 32 && n != 64 {
		problems = append(problems, "session.key must be 32 or 64 bytes")
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "text":
	default:
		problems = append(problems, fmt.Sprintf("logging.format %q must be json or text", c.Logging.Format))
	}
	if c.Audit.Buffer <= 0 {
		problems = append(problems, "audit.buffer must be positive")
	}
	if c.Audit.Postgres && c.Database.DSN == "" {
		problems = append(problems, "audit.postgres requires database.dsn")
	}
	if c.Audit.RedisStream != "" && c.Redis.Addr == "" {
		problems = append(problems, "audit.redis_stream requires redis.addr")
	}
	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0) {
		problems = append(problems, "rate_limit requires positive requests_per_second and burst")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// UsePostgres reports whether a database DSN is configured.
func (c *Config) UsePostgres() bool {
	return c.Database.DSN != ""
}
