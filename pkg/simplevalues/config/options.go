package config

import (
	"fmt"
)

// WithPort sets the server port
func WithPort(port string) Option {
	return func(c *ServerConfig) error {
		if port == "" {
			return fmt.Errorf("port cannot be empty")
		}
		c.Port = port
		return nil
	}
}

// WithEnvironment sets the environment (development, production, testing)
func WithEnvironment(env string) Option {
	return func(c *ServerConfig) error {
		if env == "" {
			return fmt.Errorf("environment cannot be empty")
		}
		c.Environment = env
		return nil
	}
}

// WithDatabase configures the database backend
func WithDatabase(dbType, url string) Option {
	return func(c *ServerConfig) error {
		if dbType != "memory" && dbType != "postgres" {
			return fmt.Errorf("database type must be 'memory' or 'postgres', got: %s", dbType)
		}
		if dbType == "postgres" && url == "" {
			return fmt.Errorf("database URL is required for postgres")
		}
		c.DatabaseType = dbType
		c.DatabaseURL = url
		return nil
	}
}

// WithDatabaseSchema sets the database schema (for Postgres)
func WithDatabaseSchema(schema string) Option {
	return func(c *ServerConfig) error {
		c.DBSchema = schema
		return nil
	}
}

// WithSchemaPaths loads content types from HCL files or directories
func WithSchemaPaths(paths ...string) Option {
	return func(c *ServerConfig) error {
		c.SchemaPaths = append([]string(nil), paths...)
		return nil
	}
}

// WithURLStrategy selects how media URLs are built
func WithURLStrategy(strategy, cdnBaseURL, apiBaseURL string) Option {
	return func(c *ServerConfig) error {
		c.URLStrategy = strategy
		c.CDNBaseURL = cdnBaseURL
		if apiBaseURL != "" {
			c.APIBaseURL = apiBaseURL
		}
		return nil
	}
}

// WithS3 configures the signer used by the storage-delegated URL strategy
func WithS3(s3 S3Config) Option {
	return func(c *ServerConfig) error {
		if s3.Bucket == "" {
			return fmt.Errorf("s3 bucket cannot be empty")
		}
		if s3.Region == "" {
			s3.Region = c.S3.Region
		}
		if s3.PresignDuration == 0 {
			s3.PresignDuration = c.S3.PresignDuration
		}
		c.S3 = s3
		return nil
	}
}

// WithRedis fans invalidation out over a Redis channel
func WithRedis(url, channel string) Option {
	return func(c *ServerConfig) error {
		c.RedisURL = url
		if channel != "" {
			c.InvalidationChannel = channel
		}
		return nil
	}
}

// WithJWTSecret enables token checks for preview reads and invalidation
func WithJWTSecret(secret string) Option {
	return func(c *ServerConfig) error {
		c.JWTSecret = secret
		return nil
	}
}

// WithLogging sets the log level and format
func WithLogging(level, format string) Option {
	return func(c *ServerConfig) error {
		if level != "" {
			c.LogLevel = level
		}
		if format != "" {
			c.LogFormat = format
		}
		return nil
	}
}
