//go:build !integration

package redis

import (
	"context"
	"strconv"
	"sync"
	"time"
)

// memClient is an in-memory RedisClient. TTLs are recorded but never expire.
type memClient struct {
	mu   sync.Mutex
	kv   map[string]string
	ttl  map[string]time.Duration
	sets map[string]map[string]struct{}

	SetNXFunc func(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error)
}

var _ RedisClient = (*memClient)(nil)

func newMemClient() *memClient {
	return &memClient{kv: map[string]string{}, ttl: map[string]time.Duration{}, sets: map[string]map[string]struct{}{}}
}

func str(v interface{}) string {
	switch x := v.(type) {
	case string:
		return x
	case []byte:
		return string(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	}
	panic("unsupported value type")
}

func (m *memClient) Ping(ctx context.Context) error { return nil }

func (m *memClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.kv[key] = str(value)
	m.ttl[key] = expiration
	return nil
}

func (m *memClient) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	if m.SetNXFunc != nil {
		return m.SetNXFunc(ctx, key, value, expiration)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.kv[key]; ok {
		return false, nil
	}
	m.kv[key] = str(value)
	m.ttl[key] = expiration
	return true, nil
}

func (m *memClient) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.kv[key]
	if !ok {
		return "", Nil
	}
	return v, nil
}

func (m *memClient) IncrWindow(ctx context.Context, key string, window time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, _ := strconv.ParseInt(m.kv[key], 10, 64)
	n++
	m.kv[key] = strconv.FormatInt(n, 10)
	if n == 1 {
		m.ttl[key] = window
	}
	return n, nil
}

func (m *memClient) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.kv, k)
		delete(m.ttl, k)
	}
	return nil
}

func (m *memClient) SAdd(ctx context.Context, key string, members ...interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sets[key] == nil {
		m.sets[key] = map[string]struct{}{}
	}
	for _, v := range members {
		m.sets[key][str(v)] = struct{}{}
	}
	return nil
}

func (m *memClient) SRem(ctx context.Context, key string, members ...interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range members {
		delete(m.sets[key], str(v))
	}
	return nil
}

func (m *memClient) SMembers(ctx context.Context, key string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.sets[key]))
	for v := range m.sets[key] {
		out = append(out, v)
	}
	return out, nil
}

func (m *memClient) CompareAndDelete(ctx context.Context, key, value string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.kv[key] != value {
		return false, nil
	}
	delete(m.kv, key)
	return true, nil
}

func (m *memClient) CompareAndExpire(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.kv[key]; !ok || v != value {
		return false, nil
	}
	m.ttl[key] = ttl
	return true, nil
}

func (m *memClient) Close() error { return nil }
