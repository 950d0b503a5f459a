package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const DefaultLockTTL = 30 * time.Second

// RedisLockManager implements a best-effort advisory lock: SET NX with a
// bounded expiry, deleted on release. A holder that crashes frees the
// lock when the TTL elapses.
type RedisLockManager struct {
	client *redis.Client
	ttl    time.Duration

	// failOpen trades strict mutual exclusion for availability: when the
	// lock backend is unreachable, Acquire reports success and the caller
	// proceeds guarded only by the database row lock.
	failOpen bool
}

func NewRedisLockManager(client *redis.Client, ttl time.Duration, failOpen bool) *RedisLockManager {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	return &RedisLockManager{client: client, ttl: ttl, failOpen: failOpen}
}

func (m *RedisLockManager) Acquire(ctx context.Context, key string) bool {
	token := uuid.NewString()
	ok, err := m.client.SetNX(ctx, key, token, m.ttl).Result()
	if err != nil {
		log.Error().Err(err).Str("lock_key", key).Msg("lock acquire failed")
		return m.failOpen
	}
	return ok
}

func (m *RedisLockManager) Release(ctx context.Context, key string) {
	if err := m.client.Del(ctx, key).Err(); err != nil {
		log.Error().Err(err).Str("lock_key", key).Msg("lock release failed")
	}
}

// NoopLockManager is the explicit no-backend configuration: every acquire
// succeeds and mutual exclusion relies solely on the database row lock.
type NoopLockManager struct{}

func (NoopLockManager) Acquire(ctx context.Context, key string) bool { return true }

func (NoopLockManager) Release(ctx context.Context, key string) {}
