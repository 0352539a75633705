package db

import (
	"context"
	"time"
)

// Store is the KV backend facade used by the completion cache and the budget store.
type Store interface {
	Pinger
	KVStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks backend connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KVStore provides simple key-value operations.
// Counters written by IncrBy read back through Get as decimal strings.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	IncrBy(ctx context.Context, key string, val int64) error
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
}

// WindowCounter is implemented by stores that can bump a counter and arm its
// first expiry atomically. The budget repository prefers it over IncrBy plus Expire.
type WindowCounter interface {
	IncrWindow(ctx context.Context, key string, val int64, ttl time.Duration) error
}
