package config

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-chi/jwtauth"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/tendant/simple-values/pkg/simplevalues"
	"github.com/tendant/simple-values/pkg/simplevalues/invalidation"
	"github.com/tendant/simple-values/pkg/simplevalues/mediapicker"
	"github.com/tendant/simple-values/pkg/simplevalues/repo/memory"
	repopg "github.com/tendant/simple-values/pkg/simplevalues/repo/postgres"
	"github.com/tendant/simple-values/pkg/simplevalues/schema"
	"github.com/tendant/simple-values/pkg/simplevalues/snapshot"
	s3signer "github.com/tendant/simple-values/pkg/simplevalues/storage/s3"
	"github.com/tendant/simple-values/pkg/simplevalues/urlstrategy"
)

// Store is a repository that also serves the entities snapshots read
type Store interface {
	simplevalues.Repository
	snapshot.EntitySource
}

// Runtime is the wired set of components a server runs on
type Runtime struct {
	Service    simplevalues.Service
	Store      Store
	Snapshots  *snapshot.Manager
	Notifier   invalidation.Notifier
	Subscriber *invalidation.Subscriber // nil unless Redis is configured
	Auth       *jwtauth.JWTAuth         // nil unless a JWT secret is configured

	closers []func()
}

// Close releases pooled connections
func (r *Runtime) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
}

// Build wires the service, snapshot manager and invalidation from the configuration
func (c *ServerConfig) Build(ctx context.Context, logger *slog.Logger) (*Runtime, error) {
	if logger == nil {
		logger = slog.Default()
	}
	rt := &Runtime{}

	store, err := c.buildStore(ctx, rt)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.Store = store

	urls, err := c.BuildURLStrategy()
	if err != nil {
		rt.Close()
		return nil, err
	}

	registry, err := simplevalues.NewRegistry(
		mediapicker.NewConverter(mediapicker.WithURLStrategy(urls)),
	)
	if err != nil {
		rt.Close()
		return nil, err
	}

	options := []simplevalues.Option{
		simplevalues.WithRepository(store),
		simplevalues.WithRegistry(registry),
		simplevalues.WithLogger(logger),
	}
	if len(c.SchemaPaths) > 0 {
		source, err := schema.NewLoader(logger).Load(ctx, c.SchemaPaths...)
		if err != nil {
			rt.Close()
			return nil, err
		}
		options = append(options, simplevalues.WithContentTypeSource(source))
	}

	svc, err := simplevalues.New(options...)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.Service = svc
	rt.Snapshots = snapshot.NewManager(store, logger)

	handler := invalidation.NewHandler(svc, rt.Snapshots, logger)
	rt.Notifier = handler
	if c.RedisURL != "" {
		opts, err := redis.ParseURL(c.RedisURL)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("failed to parse REDIS_URL: %w", err)
		}
		client := redis.NewClient(opts)
		rt.closers = append(rt.closers, func() { _ = client.Close() })
		rt.Notifier = invalidation.NewPublisher(client, c.InvalidationChannel)
		rt.Subscriber = invalidation.NewSubscriber(client, c.InvalidationChannel, handler, logger)
	}

	if c.JWTSecret != "" {
		rt.Auth = jwtauth.New("HS256", []byte(c.JWTSecret), nil)
	}

	return rt, nil
}

// BuildURLStrategy creates the media URL strategy from the configuration
func (c *ServerConfig) BuildURLStrategy() (urlstrategy.MediaURLStrategy, error) {
	switch t := urlstrategy.URLStrategyType(c.URLStrategy); t {
	case "":
		return urlstrategy.NewRecommendedStrategy(c.Environment, c.CDNBaseURL, c.APIBaseURL), nil
	case urlstrategy.StrategyTypeStorageDelegated:
		signer, err := s3signer.New(s3signer.Config{
			Region:          c.S3.Region,
			Bucket:          c.S3.Bucket,
			AccessKeyID:     c.S3.AccessKeyID,
			SecretAccessKey: c.S3.SecretAccessKey,
			Endpoint:        c.S3.Endpoint,
			UsePathStyle:    c.S3.UsePathStyle,
			PresignDuration: c.S3.PresignDuration,
			KeyPrefix:       c.S3.KeyPrefix,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create s3 signer: %w", err)
		}
		return urlstrategy.NewURLStrategy(urlstrategy.Config{Type: t, Signer: signer})
	default:
		return urlstrategy.NewURLStrategy(urlstrategy.Config{
			Type:       t,
			CDNBaseURL: c.CDNBaseURL,
			APIBaseURL: c.APIBaseURL,
		})
	}
}

func (c *ServerConfig) buildStore(ctx context.Context, rt *Runtime) (Store, error) {
	switch c.DatabaseType {
	case "memory":
		return memory.New(), nil
	case "postgres":
		cfg, err := pgxpool.ParseConfig(c.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse DATABASE_URL: %w", err)
		}
		schemaName := c.DBSchema
		cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
			if schemaName == "" {
				return nil
			}
			_, err := conn.Exec(ctx, fmt.Sprintf("SET search_path TO %s", pgx.Identifier{schemaName}.Sanitize()))
			return err
		}
		pool, err := pgxpool.NewWithConfig(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create pgx pool: %w", err)
		}
		rt.closers = append(rt.closers, pool.Close)

		repo := repopg.NewWithPool(pool)
		if err := repo.Migrate(ctx); err != nil {
			return nil, err
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", c.DatabaseType)
	}
}
