package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/tendant/simple-values/pkg/simplevalues/urlstrategy"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top of library defaults.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() ServerConfig {
	return ServerConfig{
		Port:                "8080",
		Environment:         "development",
		DatabaseType:        "memory",
		DBSchema:            "content",
		APIBaseURL:          "/api/v1",
		InvalidationChannel: "simple-values:invalidate",
		S3: S3Config{
			Region:          "us-east-1",
			PresignDuration: 3600,
		},
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// ServerConfig represents server configuration for the simple-values service
type ServerConfig struct {
	Port        string
	Environment string // development, production, testing

	// Database configuration
	DatabaseURL  string
	DatabaseType string // "memory", "postgres"
	DBSchema     string // Postgres schema to use (default: content)

	// Content type schema files; when empty content types come from the database
	SchemaPaths []string

	// Media URL configuration
	URLStrategy string // "cdn", "content-based", "storage-delegated"; empty picks by environment
	CDNBaseURL  string
	APIBaseURL  string
	S3          S3Config

	// Invalidation fan-out; empty RedisURL keeps invalidation in-process
	RedisURL            string
	InvalidationChannel string

	// HS256 secret for preview and invalidation tokens
	JWTSecret string

	LogLevel  string // debug, info, warn, error
	LogFormat string // text, json
}

// S3Config holds the settings of the presigning storage signer
type S3Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string
	UsePathStyle    bool
	PresignDuration int
	KeyPrefix       string
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	if c.DatabaseType != "memory" && c.DatabaseType != "postgres" {
		return errors.New("database_type must be 'memory' or 'postgres'")
	}

	if c.DatabaseType == "postgres" && c.DatabaseURL == "" {
		return errors.New("database_url is required when using postgres")
	}

	switch urlstrategy.URLStrategyType(c.URLStrategy) {
	case "", urlstrategy.StrategyTypeContentBased:
	case urlstrategy.StrategyTypeCDN:
		if c.CDNBaseURL == "" {
			return errors.New("cdn_base_url is required for the cdn url strategy")
		}
	case urlstrategy.StrategyTypeStorageDelegated:
		if c.S3.Bucket == "" {
			return errors.New("s3 bucket is required for the storage-delegated url strategy")
		}
	default:
		return fmt.Errorf("unknown url strategy '%s'", c.URLStrategy)
	}

	if c.IsProduction() && c.JWTSecret == "" {
		return errors.New("jwt_secret is required in production")
	}

	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("log_format must be 'text' or 'json', got: %s", c.LogFormat)
	}

	return nil
}

// IsProduction reports whether the server runs in production
func (c *ServerConfig) IsProduction() bool {
	return c.Environment == "production"
}

// NewLogger creates the slog logger described by LogLevel and LogFormat
func (c *ServerConfig) NewLogger(w io.Writer) *slog.Logger {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return level, fmt.Errorf("invalid log_level '%s'", s)
	}
	return level, nil
}
