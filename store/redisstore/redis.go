// Package redisstore persists sessions in Redis, letting multiple bot
// instances share form progress.
package redisstore

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/forfuturellc/mau/store"
)

// Store wraps a Redis client as a session store. Finite TTLs map to
// key expiry on SET; a zero TTL stores the key without expiry.
type Store struct {
	client *redis.Client
}

var _ store.Store = (*Store)(nil)

// New wraps an existing client. The caller keeps ownership of the
// client's lifecycle.
func New(client *redis.Client) *Store {
	return &Store{client: client}
}

// Get returns the value under key; a missing key is reported as not
// found, not as an error.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

// Put writes value under key with the given expiry.
func (s *Store) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

// Del removes the key, reporting whether it existed.
func (s *Store) Del(ctx context.Context, key string) (bool, error) {
	removed, err := s.client.Del(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return removed > 0, nil
}
