// Copyright (c) 2026 Stockroom. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/stockroom/internal/platform/constants"
)

// # Redis Revocation Store

// RedisRevocationStore implements [RevocationStore] with one expiring key per jti.
type RedisRevocationStore struct {
	client redis.Cmdable
}

// NewRedisRevocationStore creates a Redis-backed RevocationStore.
func NewRedisRevocationStore(client redis.Cmdable) *RedisRevocationStore {
	return &RedisRevocationStore{client: client}
}

/*
Revoke marks a refresh token as unusable.

The key expires together with the token, so the deny-list never grows past
the set of live refresh tokens.
*/
func (store *RedisRevocationStore) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	key := constants.RedisPrefixRevokedRefresh + tokenID
	if err := store.client.Set(ctx, key, "1", ttl).Err(); err != nil {
		return fmt.Errorf("redis_revocation_set_failed: %w", err)
	}
	return nil
}

// IsRevoked implements [RevocationStore].
func (store *RedisRevocationStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	count, err := store.client.Exists(ctx, constants.RedisPrefixRevokedRefresh+tokenID).Result()
	if err != nil {
		return false, fmt.Errorf("redis_revocation_exists_failed: %w", err)
	}
	return count > 0, nil
}

// # In-Memory Revocation Store

// MemoryRevocationStore keeps the deny-list in process. Entries are dropped
// lazily once their expiry has passed.
type MemoryRevocationStore struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

// NewMemoryRevocationStore creates an empty MemoryRevocationStore.
func NewMemoryRevocationStore() *MemoryRevocationStore {
	return &MemoryRevocationStore{entries: make(map[string]time.Time), now: time.Now}
}

// Revoke implements [RevocationStore].
func (store *MemoryRevocationStore) Revoke(_ context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	store.mu.Lock()
	defer store.mu.Unlock()

	now := store.now()
	for id, expiresAt := range store.entries {
		if !now.Before(expiresAt) {
			delete(store.entries, id)
		}
	}
	store.entries[tokenID] = now.Add(ttl)
	return nil
}

// IsRevoked implements [RevocationStore].
func (store *MemoryRevocationStore) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	expiresAt, found := store.entries[tokenID]
	return found && store.now().Before(expiresAt), nil
}
