// Package remote mirrors the local state to a shared document store so a
// learner's data survives across devices. Sync is best-effort: the local
// store is always the source of truth.
package remote

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// DocumentCache stores opaque string documents by key.
type DocumentCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string) error
}

// Pinger is implemented by caches that can check their connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CheckReachable pings cache within timeout when it implements Pinger.
func CheckReachable(ctx context.Context, cache DocumentCache, timeout time.Duration) error {
	p, ok := cache.(Pinger)
	if !ok {
		return nil
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := p.Ping(pingCtx); err != nil {
		return fmt.Errorf("remote store unreachable: %w", err)
	}
	return nil
}

// RedisCache is a DocumentCache backed by redis.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects lazily to the redis server at addr.
func NewRedisCache(addr string) *RedisCache {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	return &RedisCache{client: rdb}
}

// Get returns the document under key. A missing key is not an error.
func (r *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

// Set stores value under key without expiry.
func (r *RedisCache) Set(ctx context.Context, key string, value string) error {
	return r.client.Set(ctx, key, value, 0).Err()
}

// Ping checks that the server is reachable.
func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close releases the connection pool.
func (r *RedisCache) Close() error {
	return r.client.Close()
}

// MockCache is an in-memory DocumentCache for tests. Setting Err makes every
// call fail with it.
type MockCache struct {
	mu   sync.Mutex
	Data map[string]string
	Err  error
}

func NewMockCache() *MockCache {
	return &MockCache{
		Data: make(map[string]string),
	}
}

func (m *MockCache) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return "", false, m.Err
	}
	val, ok := m.Data[key]
	return val, ok, nil
}

func (m *MockCache) Set(_ context.Context, key string, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Data[key] = value
	return nil
}

func (m *MockCache) Ping(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Err
}
