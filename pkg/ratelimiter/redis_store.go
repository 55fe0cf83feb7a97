package ratelimiter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// consumeScript implements the token bucket refill-and-consume atomically.
// State is a hash {tokens, last_refill_ms}; the key expires once a full
// refill cycle has passed so idle buckets clean themselves up.
var consumeScript = redis.NewScript(`
local key = KEYS[1]
local capacity = tonumber(ARGV[1])
local refill_rate = tonumber(ARGV[2])
local refill_interval = tonumber(ARGV[3])
local requested = tonumber(ARGV[4])
local now = tonumber(ARGV[5])

local state = redis.call('HMGET', key, 'tokens', 'last_refill')
local tokens = tonumber(state[1])
local last_refill = tonumber(state[2])

if tokens == nil then
  tokens = capacity
  last_refill = now
end

local elapsed = now - last_refill
local intervals = math.floor(elapsed / refill_interval)
local max_intervals = math.floor(capacity / refill_rate) + 1
if intervals > max_intervals then
  intervals = max_intervals
end

if intervals > 0 then
  tokens = math.min(tokens + intervals * refill_rate, capacity)
  last_refill = now
end

tokens = tokens - requested

redis.call('HSET', key, 'tokens', tokens, 'last_refill', last_refill)
local ttl = refill_interval * (max_intervals + 1)
redis.call('PEXPIRE', key, ttl)

return {tokens, last_refill}
`)

// RedisStore implements Store backed by Redis, for deployments where the
// same limit must be enforced across multiple instances.
type RedisStore struct {
	client    redis.UniversalClient
	keyPrefix string
}

// RedisStoreOption configures a RedisStore.
type RedisStoreOption func(*RedisStore)

// WithKeyPrefix overrides the default "ratelimit:" key prefix.
func WithKeyPrefix(prefix string) RedisStoreOption {
	return func(rs *RedisStore) {
		if prefix != "" {
			rs.keyPrefix = prefix
		}
	}
}

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(client redis.UniversalClient, opts ...RedisStoreOption) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: redis client is required", ErrInvalidConfig)
	}

	rs := &RedisStore{
		client:    client,
		keyPrefix: "ratelimit:",
	}

	for _, opt := range opts {
		opt(rs)
	}

	return rs, nil
}

func (rs *RedisStore) ConsumeTokens(ctx context.Context, key string, tokens int, config Config) (int, time.Time, error) {
	now := time.Now()

	res, err := consumeScript.Run(ctx, rs.client, []string{rs.keyPrefix + key},
		config.Capacity,
		config.RefillRate,
		config.RefillInterval.Milliseconds(),
		tokens,
		now.UnixMilli(),
	).Slice()
	if err != nil {
		return 0, time.Time{}, errors.Join(ErrStoreUnavailable, err)
	}
	if len(res) != 2 {
		return 0, time.Time{}, fmt.Errorf("%w: unexpected script result length %d", ErrStoreUnavailable, len(res))
	}

	remaining, ok := res[0].(int64)
	if !ok {
		return 0, time.Time{}, fmt.Errorf("%w: unexpected remaining type %T", ErrStoreUnavailable, res[0])
	}
	lastRefillMs, ok := res[1].(int64)
	if !ok {
		return 0, time.Time{}, fmt.Errorf("%w: unexpected refill type %T", ErrStoreUnavailable, res[1])
	}

	resetAt := time.UnixMilli(lastRefillMs).Add(config.RefillInterval)
	return int(remaining), resetAt, nil
}

func (rs *RedisStore) Reset(ctx context.Context, key string) error {
	if err := rs.client.Del(ctx, rs.keyPrefix+key).Err(); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}
