package config

import (
	"fmt"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
)

// environment lists the variables WithEnv reads. Unset variables leave the
// current value untouched.
type environment struct {
	Port        string `env:"PORT"`
	Environment string `env:"ENVIRONMENT"`

	DatabaseURL string `env:"DATABASE_URL"`
	DBSchema    string `env:"DB_SCHEMA"`

	SchemaPaths []string `env:"SCHEMA_PATHS" env-separator:","`

	URLStrategy string `env:"URL_STRATEGY"`
	CDNBaseURL  string `env:"CDN_BASE_URL"`
	APIBaseURL  string `env:"API_BASE_URL"`

	S3Region          string `env:"S3_REGION"`
	S3Bucket          string `env:"S3_BUCKET"`
	S3AccessKeyID     string `env:"S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string `env:"S3_SECRET_ACCESS_KEY"`
	S3Endpoint        string `env:"S3_ENDPOINT"`
	S3UsePathStyle    bool   `env:"S3_USE_PATH_STYLE"`
	S3PresignDuration int    `env:"S3_PRESIGN_DURATION"`
	S3KeyPrefix       string `env:"S3_KEY_PREFIX"`

	RedisURL            string `env:"REDIS_URL"`
	InvalidationChannel string `env:"INVALIDATION_CHANNEL"`

	JWTSecret string `env:"JWT_SECRET"`

	LogLevel  string `env:"LOG_LEVEL"`
	LogFormat string `env:"LOG_FORMAT"`
}

// WithEnv applies configuration from environment variables
func WithEnv() Option {
	return func(c *ServerConfig) error {
		var env environment
		if err := cleanenv.ReadEnv(&env); err != nil {
			return fmt.Errorf("failed to read environment: %w", err)
		}

		setString(&c.Port, env.Port)
		setString(&c.Environment, env.Environment)
		setString(&c.DBSchema, env.DBSchema)

		if err := applyDatabaseURL(env.DatabaseURL, c); err != nil {
			return err
		}

		if len(env.SchemaPaths) > 0 {
			c.SchemaPaths = trimAll(env.SchemaPaths)
		}

		setString(&c.URLStrategy, env.URLStrategy)
		setString(&c.CDNBaseURL, env.CDNBaseURL)
		setString(&c.APIBaseURL, env.APIBaseURL)

		setString(&c.S3.Region, env.S3Region)
		setString(&c.S3.Bucket, env.S3Bucket)
		setString(&c.S3.AccessKeyID, env.S3AccessKeyID)
		setString(&c.S3.SecretAccessKey, env.S3SecretAccessKey)
		setString(&c.S3.Endpoint, env.S3Endpoint)
		setString(&c.S3.KeyPrefix, env.S3KeyPrefix)
		if env.S3UsePathStyle {
			c.S3.UsePathStyle = true
		}
		if env.S3PresignDuration < 0 {
			return fmt.Errorf("invalid S3_PRESIGN_DURATION: %d", env.S3PresignDuration)
		}
		if env.S3PresignDuration > 0 {
			c.S3.PresignDuration = env.S3PresignDuration
		}

		setString(&c.RedisURL, env.RedisURL)
		setString(&c.InvalidationChannel, env.InvalidationChannel)
		setString(&c.JWTSecret, env.JWTSecret)
		setString(&c.LogLevel, env.LogLevel)
		setString(&c.LogFormat, env.LogFormat)

		return nil
	}
}

// applyDatabaseURL picks the database type from the URL scheme
func applyDatabaseURL(url string, c *ServerConfig) error {
	switch {
	case url == "":
		return nil
	case url == "memory" || url == "memory://":
		c.DatabaseType = "memory"
		c.DatabaseURL = ""
	case strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://"):
		c.DatabaseType = "postgres"
		c.DatabaseURL = url
	default:
		return fmt.Errorf("unsupported DATABASE_URL format: %s (use 'memory' or 'postgres://...')", url)
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
