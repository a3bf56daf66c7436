package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Cache persists key-value entries and lists to a single JSON file.
// Suitable for demos and small deployments; every write rewrites the
// whole file.
type Cache struct {
	path string
	mu   sync.Mutex
	data fileData

	// now is the expiry clock; overridden in tests.
	now func() time.Time
}

type fileData struct {
	Entries map[string]fileEntry `json:"entries"`
	Lists   map[string][]string  `json:"lists"`
}

type fileEntry struct {
	Value     string     `json:"value"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

func New(path string) (*Cache, error) {
	c := &Cache{
		path: path,
		data: fileData{Entries: map[string]fileEntry{}, Lists: map[string][]string{}},
		now:  time.Now,
	}
	if err := c.load(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return c, nil
}

func (c *Cache) load() error {
	b, err := os.ReadFile(c.path)
	if err != nil {
		return err
	}
	var raw fileData
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if raw.Entries != nil {
		c.data.Entries = raw.Entries
	}
	if raw.Lists != nil {
		c.data.Lists = raw.Lists
	}
	return nil
}

func (c *Cache) persist() error {
	tmp := c.path + ".tmp"
	b, err := json.MarshalIndent(c.data, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, c.path)
}

func (c *Cache) expired(e fileEntry) bool {
	return e.ExpiresAt != nil && !c.now().Before(*e.ExpiresAt)
}

func (c *Cache) newEntry(value string, ttl time.Duration) fileEntry {
	e := fileEntry{Value: value}
	if ttl > 0 {
		at := c.now().Add(ttl)
		e.ExpiresAt = &at
	}
	return e
}

func (c *Cache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.data.Entries[key]
	if !ok {
		return "", false, nil
	}
	if c.expired(e) {
		delete(c.data.Entries, key)
		return "", false, c.persist()
	}
	return e.Value, true, nil
}

func (c *Cache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data.Entries[key] = c.newEntry(value, ttl)
	return c.persist()
}

func (c *Cache) SetNX(_ context.Context, key, value string, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.data.Entries[key]; ok && !c.expired(e) {
		return false, nil
	}
	c.data.Entries[key] = c.newEntry(value, ttl)
	return true, c.persist()
}

func (c *Cache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data.Entries, key)
	return c.persist()
}

func (c *Cache) ListAppend(_ context.Context, key string, values ...string) error {
	if len(values) == 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data.Lists[key] = append(c.data.Lists[key], values...)
	return c.persist()
}

func (c *Cache) ListRange(_ context.Context, key string, start, stop int64) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	list := c.data.Lists[key]
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
