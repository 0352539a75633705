// Package memory implements db.Store in process memory on top of go-cache,
// for single-instance deployments without Redis.
package memory

import (
	"bytes"
	"context"
	"strconv"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/kailas-cloud/travelq/internal/db"
)

// Compile-time checks: Store implements db.Store and db.WindowCounter.
var (
	_ db.Store         = (*Store)(nil)
	_ db.WindowCounter = (*Store)(nil)
)

// Store keeps values in a go-cache instance.
// The mutex serializes read-modify-write operations (IncrBy, Expire).
type Store struct {
	mu sync.Mutex
	c  *gocache.Cache
}

// NewStore creates an in-memory store. cleanupInterval controls how often
// expired keys are purged; zero disables the janitor.
func NewStore(cleanupInterval time.Duration) *Store {
	if cleanupInterval <= 0 {
		cleanupInterval = -1
	}
	return &Store{c: gocache.New(gocache.NoExpiration, cleanupInterval)}
}

// Ping always succeeds.
func (s *Store) Ping(_ context.Context) error { return nil }

// Close drops all keys.
func (s *Store) Close() { s.c.Flush() }

// WaitForReady returns immediately.
func (s *Store) WaitForReady(_ context.Context, _ time.Duration) error { return nil }

// Get returns a copy of the stored value.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := s.c.Get(key)
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	b, _ := v.([]byte)
	return bytes.Clone(b), nil
}

// Set stores a value without expiration.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	s.c.Set(key, bytes.Clone(value), gocache.NoExpiration)
	return nil
}

// SetWithTTL stores a value that expires after ttl.
func (s *Store) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.c.Set(key, bytes.Clone(value), ttl)
	return nil
}

// IncrBy adds val to a decimal counter, creating it at zero. The key's expiry is kept.
func (s *Store) IncrBy(_ context.Context, key string, val int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.incr(key, val, 0)
}

// IncrWindow adds val to a counter and sets ttl when the counter has no expiry yet.
func (s *Store) IncrWindow(_ context.Context, key string, val int64, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.incr(key, val, ttl)
}

// incr must be called with mu held. A zero ttl keeps the key's current expiry.
func (s *Store) incr(key string, val int64, ttl time.Duration) error {
	var cur int64
	v, exp, ok := s.c.GetWithExpiration(key)
	if ok {
		b, _ := v.([]byte)
		n, err := strconv.ParseInt(string(b), 10, 64)
		if err != nil {
			return &db.Error{Op: db.OpIncrBy, Err: err}
		}
		cur = n
	}

	keep := remaining(exp)
	if ttl > 0 && exp.IsZero() {
		keep = ttl
	}
	s.c.Set(key, []byte(strconv.FormatInt(cur+val, 10)), keep)
	return nil
}

// Expire sets a TTL on an existing key. With nx, keys that already expire are left alone.
// Missing keys are ignored.
func (s *Store) Expire(_ context.Context, key string, ttl time.Duration, nx bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, exp, ok := s.c.GetWithExpiration(key)
	if !ok || (nx && !exp.IsZero()) {
		return nil
	}
	s.c.Set(key, v, ttl)
	return nil
}

func remaining(exp time.Time) time.Duration {
	if exp.IsZero() {
		return gocache.NoExpiration
	}
	if d := time.Until(exp); d > 0 {
		return d
	}
	return time.Nanosecond
}
