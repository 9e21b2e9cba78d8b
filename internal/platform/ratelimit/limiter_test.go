// Copyright (c) 2026 Stockroom. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package ratelimit_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/taibuivan/stockroom/internal/platform/ratelimit"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (clock *fakeClock) Now() time.Time {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	return clock.now
}

func (clock *fakeClock) Advance(step time.Duration) {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	clock.now = clock.now.Add(step)
}

/*
TestLimiter_Sequence admits exactly the limit and reports a shrinking remainder.
*/
func TestLimiter_Sequence(t *testing.T) {
	clock := newFakeClock()
	limiter := ratelimit.NewLimiter(ratelimit.Options{Clock: clock.Now})

	assert.Equal(t, 10, limiter.Remaining("10.0.0.1"))

	for expected := 9; expected >= 0; expected-- {
		decision, err := limiter.Allow(context.Background(), "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, decision.Allowed)
		assert.Equal(t, expected, decision.Remaining)
		assert.Equal(t, 10, decision.Limit)
	}

	clock.Advance(15 * time.Second)

	decision, err := limiter.Allow(context.Background(), "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, 0, decision.Remaining)
	assert.Equal(t, 45*time.Second, decision.RetryAfter)
	assert.Equal(t, 45, decision.RetryAfterSeconds())
	assert.Equal(t, 0, limiter.Remaining("10.0.0.1"))
}

/*
TestLimiter_WindowReset starts a fresh window once the old one has elapsed.
*/
func TestLimiter_WindowReset(t *testing.T) {
	clock := newFakeClock()
	limiter := ratelimit.NewLimiter(ratelimit.Options{Limit: 2, Window: time.Minute, Clock: clock.Now})

	assert.True(t, limiter.IsAllowed("client"))
	assert.True(t, limiter.IsAllowed("client"))
	assert.False(t, limiter.IsAllowed("client"))

	clock.Advance(59 * time.Second)
	assert.False(t, limiter.IsAllowed("client"))

	clock.Advance(time.Second)
	assert.Equal(t, 2, limiter.Remaining("client"))
	assert.True(t, limiter.IsAllowed("client"))
	assert.Equal(t, 1, limiter.Remaining("client"))
}

/*
TestLimiter_IndependentKeys keeps one client's usage away from another's.
*/
func TestLimiter_IndependentKeys(t *testing.T) {
	limiter := ratelimit.NewLimiter(ratelimit.Options{Limit: 1, Window: time.Minute})

	assert.True(t, limiter.IsAllowed("alpha"))
	assert.False(t, limiter.IsAllowed("alpha"))
	assert.True(t, limiter.IsAllowed("beta"))
	assert.Equal(t, 2, limiter.Len())
}

/*
TestLimiter_Concurrent never admits more than the limit under contention.
*/
func TestLimiter_Concurrent(t *testing.T) {
	limiter := ratelimit.NewLimiter(ratelimit.Options{Limit: 10, Window: time.Minute, Shards: 4})

	var admitted atomic.Int32
	var wg sync.WaitGroup
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if limiter.IsAllowed("shared") {
				admitted.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(10), admitted.Load())
}

/*
TestLimiter_Burst throttles a tight burst before the window ceiling is reached.
*/
func TestLimiter_Burst(t *testing.T) {
	clock := newFakeClock()
	limiter := ratelimit.NewLimiter(ratelimit.Options{Limit: 10, Window: time.Minute, Burst: 2, Clock: clock.Now})

	assert.True(t, limiter.IsAllowed("client"))
	assert.True(t, limiter.IsAllowed("client"))

	decision, err := limiter.Allow(context.Background(), "client")
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, 8, decision.Remaining)
	assert.Positive(t, decision.RetryAfter)

	clock.Advance(6 * time.Second)
	assert.True(t, limiter.IsAllowed("client"))
}

/*
TestLimiter_Sweep evicts only elapsed windows.
*/
func TestLimiter_Sweep(t *testing.T) {
	clock := newFakeClock()
	limiter := ratelimit.NewLimiter(ratelimit.Options{Window: time.Minute, Clock: clock.Now})

	for i := range 5 {
		limiter.IsAllowed(fmt.Sprintf("old-%d", i))
	}
	clock.Advance(30 * time.Second)
	limiter.IsAllowed("fresh")

	clock.Advance(30 * time.Second)
	assert.Equal(t, 5, limiter.Sweep())
	assert.Equal(t, 1, limiter.Len())
}

/*
TestLimiter_StartSweeper stops its goroutine when the context ends.
*/
func TestLimiter_StartSweeper(t *testing.T) {
	defer goleak.VerifyNone(t)

	limiter := ratelimit.NewLimiter(ratelimit.Options{Window: time.Millisecond})
	limiter.IsAllowed("client")

	ctx, cancel := context.WithCancel(context.Background())
	done := limiter.StartSweeper(ctx, 5*time.Millisecond)

	assert.Eventually(t, func() bool { return limiter.Len() == 0 }, time.Second, 5*time.Millisecond)

	cancel()
	<-done
}

/*
TestDecision_RetryAfterSeconds rounds up and never reports zero.
*/
func TestDecision_RetryAfterSeconds(t *testing.T) {
	tests := []struct {
		name     string
		after    time.Duration
		expected int
	}{
		{"zero", 0, 1},
		{"sub_second", 200 * time.Millisecond, 1},
		{"rounds_up", 2100 * time.Millisecond, 3},
		{"exact", 30 * time.Second, 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ratelimit.Decision{RetryAfter: tt.after}.RetryAfterSeconds())
		})
	}
}
