// Package store defines the session storage contract consumed by the
// engine and provides an in-process implementation. Backends are
// byte-oriented key-value stores; the engine owns session encoding, so
// implementations never depend on the engine's types.
package store

import (
	"context"
	"time"
)

// Store is a key-value store with optional per-key expiry. A ttl of
// zero stores the value indefinitely; a positive ttl expires it that
// long after the write. Implementations must be safe for concurrent
// use; per-key serialization of concurrent writers is the store's
// concern, not the engine's.
type Store interface {
	// Get returns the value under key, with found reporting whether
	// the key exists (and has not expired).
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	// Put writes value under key, replacing any previous value and
	// resetting its expiry.
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Del removes the key, reporting whether it existed.
	Del(ctx context.Context, key string) (removed bool, err error)
}
