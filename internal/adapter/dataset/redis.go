package dataset

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/couchcryptid/geoguess-service/internal/domain"
	"github.com/couchcryptid/geoguess-service/internal/observability"
)

// DefaultRedisPrefix namespaces dataset keys in a shared Redis.
const DefaultRedisPrefix = "geoguess:dataset:"

// redisStore is the subset of redis.Cmdable used by RedisFetcher.
type redisStore interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// RedisFetcher caches dataset bodies in Redis so several service replicas
// share one warm copy. Redis failures are logged and the request falls
// through to the wrapped fetcher.
type RedisFetcher struct {
	inner   domain.DatasetFetcher
	store   redisStore
	prefix  string
	ttl     time.Duration
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewRedisFetcher wraps inner with a Redis cache. ttl <= 0 stores entries
// without expiry.
func NewRedisFetcher(inner domain.DatasetFetcher, client redis.Cmdable, prefix string, ttl time.Duration, logger *slog.Logger, metrics *observability.Metrics) *RedisFetcher {
	return newRedisFetcher(inner, client, prefix, ttl, logger, metrics)
}

func newRedisFetcher(inner domain.DatasetFetcher, store redisStore, prefix string, ttl time.Duration, logger *slog.Logger, metrics *observability.Metrics) *RedisFetcher {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisFetcher{
		inner:   inner,
		store:   store,
		prefix:  prefix,
		ttl:     max(ttl, 0),
		logger:  logger,
		metrics: metrics,
	}
}

func (f *RedisFetcher) FetchDataset(ctx context.Context, path string) ([]byte, error) {
	key := f.prefix + path

	data, err := f.store.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		f.metrics.SharedCache.WithLabelValues("hit").Inc()
		return data, nil
	case errors.Is(err, redis.Nil):
		f.metrics.SharedCache.WithLabelValues("miss").Inc()
	default:
		f.metrics.SharedCache.WithLabelValues("error").Inc()
		f.logger.Warn("shared dataset cache read failed", "path", path, "error", err)
	}

	data, err = f.inner.FetchDataset(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := f.store.Set(ctx, key, data, f.ttl).Err(); err != nil {
		f.metrics.SharedCache.WithLabelValues("error").Inc()
		f.logger.Warn("shared dataset cache write failed", "path", path, "error", err)
	}
	return data, nil
}
