package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	s3blob "github.com/alanyoungcy/metaquote/internal/blob/s3"
	"github.com/alanyoungcy/metaquote/internal/cache/redis"
	"github.com/alanyoungcy/metaquote/internal/config"
	"github.com/alanyoungcy/metaquote/internal/domain"
	"github.com/alanyoungcy/metaquote/internal/store/postgres"
)

// Dependencies bundles every domain-level dependency that the application
// modes need to operate. All fields are optional: a nil field means the
// corresponding backend is not configured and the feature degrades
// gracefully. It is constructed by Wire and torn down by the returned
// cleanup function.
type Dependencies struct {
	QuoteStore    domain.QuoteStore
	SnapshotCache domain.SnapshotCache
	RateLimiter   domain.RateLimiter
	BlobReader    domain.BlobReader
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	logger := slog.Default()

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- PostgreSQL (optional; enables quote persistence) ---
	if cfg.Postgres.Enabled() {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		deps.QuoteStore = postgres.NewQuoteStore(pgClient.Pool())
		logger.InfoContext(ctx, "wire: postgres connected")
	}

	// --- Redis (optional; enables snapshot cache and rate limiting) ---
	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		cacheTTL := time.Duration(0)
		if cfg.Redis.CacheTTLMinutes > 0 {
			cacheTTL = time.Duration(cfg.Redis.CacheTTLMinutes) * time.Minute
		}

		deps.SnapshotCache = redis.NewSnapshotCache(redisClient, cacheTTL)
		deps.RateLimiter = redis.NewRateLimiter(redisClient)
		logger.InfoContext(ctx, "wire: redis connected")
	}

	// --- S3 blob storage (only when the data file lives in object storage) ---
	if cfg.Data.Source == "s3" {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })

		deps.BlobReader = s3blob.NewReader(s3Client)
		logger.InfoContext(ctx, "wire: s3 blob storage connected")
	}

	return deps, cleanup, nil
}
