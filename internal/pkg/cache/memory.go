package cache

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"
)

// MemoryClient é um Client em processo, usado nos testes do decorator de cache
// e do rate limiter no lugar do Redis.
type MemoryClient struct {
	mu      sync.Mutex
	now     func() time.Time
	entries map[string]memoryEntry
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

func NewMemoryClient() *MemoryClient {
	return &MemoryClient{now: time.Now, entries: make(map[string]memoryEntry)}
}

// SetClock troca o relógio (testes de expiração).
func (c *MemoryClient) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

func (c *MemoryClient) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.live(key)
	if !ok {
		return "", ErrCacheMiss
	}
	return e.value, nil
}

func (c *MemoryClient) Set(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var s string
	switch v := value.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		s = fmt.Sprint(v)
	}
	c.entries[key] = memoryEntry{value: s, expiresAt: c.expiry(expiration)}
	return nil
}

func (c *MemoryClient) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
	return nil
}

func (c *MemoryClient) Incr(_ context.Context, key string, expiration time.Duration) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.live(key)
	if !ok {
		c.entries[key] = memoryEntry{value: "1", expiresAt: c.expiry(expiration)}
		return 1, nil
	}
	n, err := strconv.ParseInt(e.value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("valor de %s não é inteiro", key)
	}
	n++
	e.value = strconv.FormatInt(n, 10)
	c.entries[key] = e
	return n, nil
}

func (c *MemoryClient) Close() error { return nil }

func (c *MemoryClient) live(key string) (memoryEntry, bool) {
	e, ok := c.entries[key]
	if !ok {
		return memoryEntry{}, false
	}
	if !e.expiresAt.IsZero() && !c.now().Before(e.expiresAt) {
		delete(c.entries, key)
		return memoryEntry{}, false
	}
	return e, true
}

func (c *MemoryClient) expiry(d time.Duration) time.Time {
	if d <= 0 {
		return time.Time{}
	}
	return c.now().Add(d)
}
