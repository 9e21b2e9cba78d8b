// Copyright (c) 2026 Stockroom. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/stockroom/internal/platform/constants"
)

// fixedWindowScript increments the counter and arms its expiry on the first hit.
// It returns {count, remaining ttl in ms}.
var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
	ttl = tonumber(ARGV[1])
end
return {current, ttl}
`)

// RedisStore is a fixed-window [Store] shared by every API instance.
//
// The burst allowance of [Limiter] is not available here.
type RedisStore struct {
	client redis.Scripter
	limit  int
	window time.Duration
	prefix string
}

// NewRedisStore creates a RedisStore. Zero limit or window use the package defaults.
func NewRedisStore(client redis.Scripter, limit int, window time.Duration) *RedisStore {
	if limit <= 0 {
		limit = constants.DefaultRateLimit
	}
	if window <= 0 {
		window = constants.DefaultRateLimitWindow
	}
	return &RedisStore{client: client, limit: limit, window: window, prefix: constants.RedisPrefixRateLimit}
}

// Allow implements [Store].
func (store *RedisStore) Allow(ctx context.Context, key string) (Decision, error) {
	values, err := fixedWindowScript.Run(ctx, store.client, []string{store.prefix + key}, store.window.Milliseconds()).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("redis_rate_limit_failed: %w", err)
	}
	if len(values) != 2 {
		return Decision{}, fmt.Errorf("redis_rate_limit_failed: unexpected reply %v", values)
	}

	count, ttl := int(values[0]), time.Duration(values[1])*time.Millisecond
	decision := Decision{
		Limit:     store.limit,
		Allowed:   count <= store.limit,
		Remaining: max(0, store.limit-count),
	}
	if !decision.Allowed {
		decision.RetryAfter = ttl
	}

	return decision, nil
}
