package memory

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	value     string
	expiresAt time.Time // zero means no expiry
}

// Cache is an in-memory key-value store with TTL and list support,
// mirroring the engine's Cache contract for tests and demos.
type Cache struct {
	mu    sync.Mutex
	data  map[string]entry
	lists map[string][]string

	// Now is the expiry clock; override in tests.
	Now func() time.Time
}

func NewCache() *Cache {
	return &Cache{
		data:  map[string]entry{},
		lists: map[string][]string{},
		Now:   time.Now,
	}
}

func (c *Cache) expiredLocked(e entry) bool {
	return !e.expiresAt.IsZero() && !c.Now().Before(e.expiresAt)
}

func (c *Cache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.data[key]
	if !ok || c.expiredLocked(e) {
		delete(c.data, key)
		return "", false, nil
	}
	return e.value, true, nil
}

func (c *Cache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = c.newEntry(value, ttl)
	return nil
}

func (c *Cache) SetNX(_ context.Context, key, value string, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.data[key]; ok && !c.expiredLocked(e) {
		return false, nil
	}
	c.data[key] = c.newEntry(value, ttl)
	return true, nil
}

func (c *Cache) newEntry(value string, ttl time.Duration) entry {
	e := entry{value: value}
	if ttl > 0 {
		e.expiresAt = c.Now().Add(ttl)
	}
	return e
}

func (c *Cache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *Cache) ListAppend(_ context.Context, key string, values ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lists[key] = append(c.lists[key], values...)
	return nil
}

func (c *Cache) ListRange(_ context.Context, key string, start, stop int64) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	list := c.lists[key]
	n := int64(len(list))
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if n == 0 || start > stop {
		return nil, nil
	}
	out := make([]string, stop-start+1)
	copy(out, list[start:stop+1])
	return out, nil
}
