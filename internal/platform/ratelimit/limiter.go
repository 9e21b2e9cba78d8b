// Copyright (c) 2026 Stockroom. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package ratelimit caps how many requests a client key may make per fixed window.

Architecture:

  - Store: the contract consumed by the RateLimit middleware.
  - Limiter: in-process store. Keys are spread over mutex-guarded shards chosen by
    xxhash, so two requests contend only when their keys share a shard. Each key
    holds (count, window_start); an optional token bucket smooths bursts inside
    a window.
  - RedisStore: the same contract backed by an atomic INCR/PEXPIRE script, for
    deployments running several API instances.

Stale windows are reset on the next touch of their key and evicted in bulk by
[Limiter.Sweep], which a background goroutine runs on a ticker.
*/
package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/time/rate"

	"github.com/taibuivan/stockroom/internal/platform/constants"
)

// # Contract

// Decision is the outcome of one admission check.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// RetryAfterSeconds rounds RetryAfter up to whole seconds, never below one.
func (decision Decision) RetryAfterSeconds() int {
	return max(1, int(math.Ceil(decision.RetryAfter.Seconds())))
}

// Store admits or rejects requests for a key.
type Store interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// # In-Memory Limiter

// Options configures a [Limiter].
type Options struct {
	// Limit is the number of requests admitted per key per window.
	Limit int
	// Window is the length of one fixed window.
	Window time.Duration
	// Burst, when positive, adds a token bucket of this size refilled at Limit/Window.
	Burst int
	// Shards is the number of lock stripes. Defaults to 32.
	Shards int
	// Clock overrides time.Now.
	Clock func() time.Time
}

type window struct {
	count  int
	start  time.Time
	bucket *rate.Limiter
}

type shard struct {
	mu      sync.Mutex
	windows map[string]*window
}

// Limiter is a sharded, fixed-window rate limiter. It is safe for concurrent use.
type Limiter struct {
	limit  int
	window time.Duration
	burst  int
	now    func() time.Time
	shards []*shard
}

// NewLimiter creates a Limiter. Zero options fall back to 10 requests per 60 seconds.
func NewLimiter(options Options) *Limiter {
	limiter := &Limiter{
		limit:  options.Limit,
		window: options.Window,
		burst:  options.Burst,
		now:    options.Clock,
	}
	if limiter.limit <= 0 {
		limiter.limit = constants.DefaultRateLimit
	}
	if limiter.window <= 0 {
		limiter.window = constants.DefaultRateLimitWindow
	}
	if limiter.now == nil {
		limiter.now = time.Now
	}

	shardCount := options.Shards
	if shardCount <= 0 {
		shardCount = 32
	}
	limiter.shards = make([]*shard, shardCount)
	for i := range limiter.shards {
		limiter.shards[i] = &shard{windows: make(map[string]*window)}
	}

	return limiter
}

// Limit returns the configured per-window ceiling.
func (limiter *Limiter) Limit() int { return limiter.limit }

func (limiter *Limiter) shardFor(key string) *shard {
	return limiter.shards[xxhash.Sum64String(key)%uint64(len(limiter.shards))]
}

func (limiter *Limiter) expired(entry *window, now time.Time) bool {
	return now.Sub(entry.start) >= limiter.window
}

// Allow implements [Store]. It never fails.
func (limiter *Limiter) Allow(_ context.Context, key string) (Decision, error) {
	return limiter.allow(key), nil
}

// IsAllowed records one request for key and reports whether it was admitted.
func (limiter *Limiter) IsAllowed(key string) bool {
	return limiter.allow(key).Allowed
}

func (limiter *Limiter) allow(key string) Decision {
	now := limiter.now()
	stripe := limiter.shardFor(key)

	stripe.mu.Lock()
	defer stripe.mu.Unlock()

	// 1. Create or reset the window
	entry, found := stripe.windows[key]
	if !found {
		entry = &window{start: now}
		if limiter.burst > 0 {
			refill := rate.Limit(float64(limiter.limit) / limiter.window.Seconds())
			entry.bucket = rate.NewLimiter(refill, limiter.burst)
		}
		stripe.windows[key] = entry
	} else if limiter.expired(entry, now) {
		entry.count = 0
		entry.start = now
	}

	decision := Decision{Limit: limiter.limit}

	// 2. Window ceiling
	if entry.count >= limiter.limit {
		decision.RetryAfter = entry.start.Add(limiter.window).Sub(now)
		return decision
	}

	// 3. Burst smoothing
	if entry.bucket != nil {
		reservation := entry.bucket.ReserveN(now, 1)
		if !reservation.OK() {
			decision.RetryAfter = limiter.window
			decision.Remaining = limiter.limit - entry.count
			return decision
		}
		if delay := reservation.DelayFrom(now); delay > 0 {
			reservation.CancelAt(now)
			decision.RetryAfter = delay
			decision.Remaining = limiter.limit - entry.count
			return decision
		}
	}

	// 4. Admit
	entry.count++
	decision.Allowed = true
	decision.Remaining = limiter.limit - entry.count
	return decision
}

// Remaining returns how many more requests key may make in its current window.
func (limiter *Limiter) Remaining(key string) int {
	now := limiter.now()
	stripe := limiter.shardFor(key)

	stripe.mu.Lock()
	defer stripe.mu.Unlock()

	entry, found := stripe.windows[key]
	if !found || limiter.expired(entry, now) {
		return limiter.limit
	}
	return max(0, limiter.limit-entry.count)
}

// Sweep evicts every key whose window has elapsed and returns how many were removed.
// Shards are locked one at a time.
func (limiter *Limiter) Sweep() int {
	now := limiter.now()
	evicted := 0

	for _, stripe := range limiter.shards {
		stripe.mu.Lock()
		for key, entry := range stripe.windows {
			if limiter.expired(entry, now) {
				delete(stripe.windows, key)
				evicted++
			}
		}
		stripe.mu.Unlock()
	}

	return evicted
}

// Len returns the number of tracked keys.
func (limiter *Limiter) Len() int {
	total := 0
	for _, stripe := range limiter.shards {
		stripe.mu.Lock()
		total += len(stripe.windows)
		stripe.mu.Unlock()
	}
	return total
}

// StartSweeper runs [Limiter.Sweep] every interval until ctx is cancelled.
// The returned channel is closed once the goroutine has exited.
func (limiter *Limiter) StartSweeper(ctx context.Context, interval time.Duration) <-chan struct{} {
	if interval <= 0 {
		interval = constants.RateLimitSweepInterval
	}

	done := make(chan struct{})
	go func() {
		defer close(done)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				limiter.Sweep()
			case <-ctx.Done():
				return
			}
		}
	}()

	return done
}
