package pool

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"eligo/internal/linkage"
	platformredis "eligo/internal/platform/redis"
)

const cacheKey = "eligo:pool:candidates"

// CachedStore is a read-through Redis cache over an inner pool store. A
// cache failure is never fatal: the inner store is the source of truth and
// the cache only shortens the hot path.
type CachedStore struct {
	inner  Store
	redis  *platformredis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedStore decorates inner with a Redis cache. If client is nil
// (Redis not configured) the inner store is returned unchanged.
func NewCachedStore(inner Store, client *platformredis.Client, ttl time.Duration, logger *slog.Logger) Store {
	if client == nil {
		return inner
	}
	return &CachedStore{inner: inner, redis: client, ttl: ttl, logger: logger}
}

// List serves the pool from Redis when fresh, falling back to the inner
// store and repopulating the cache on a miss.
func (s *CachedStore) List(ctx context.Context) ([]linkage.Candidate, error) {
	payload, err := s.redis.Get(ctx, cacheKey).Bytes()
	if err == nil {
		var records []linkage.Candidate
		if err := json.Unmarshal(payload, &records); err == nil {
			return records, nil
		}
		// Corrupt payload falls through to the source of truth.
		if s.logger != nil {
			s.logger.WarnContext(ctx, "pool cache payload corrupt, refreshing")
		}
	}

	records, err := s.inner.List(ctx)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(records); err == nil {
		if err := s.redis.Set(ctx, cacheKey, payload, s.ttl).Err(); err != nil && s.logger != nil {
			s.logger.WarnContext(ctx, "pool cache write failed", "error", err)
		}
	}
	return records, nil
}

// Invalidate drops the cached pool so the next List hits the inner store.
func (s *CachedStore) Invalidate(ctx context.Context) error {
	if err := s.redis.Del(ctx, cacheKey).Err(); err != nil {
		return fmt.Errorf("invalidate pool cache: %w", err)
	}
	return nil
}
