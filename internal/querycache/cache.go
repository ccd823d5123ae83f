package querycache

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"
)

type entry struct {
	data      []byte
	stale     bool
	fetchedAt time.Time
}

// Cache holds previously fetched query results as canonical JSON bytes.
// Outside of Fetch/Set, only the mutation controller may write to it through
// Snapshot/Restore/Invalidate.
type Cache struct {
	mu      sync.RWMutex
	entries map[Key]*entry
	ttl     time.Duration
	now     func() time.Time
}

func New(ttl time.Duration) *Cache {
	return &Cache{
		entries: make(map[Key]*entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Loader performs the remote read for a key.
type Loader func(ctx context.Context) (interface{}, error)

// Fetch returns the cached value for key decoded into dest, calling loader when the
// entry is missing, stale or expired.
func (c *Cache) Fetch(ctx context.Context, key Key, dest interface{}, loader Loader) error {
	if data, ok := c.fresh(key); ok {
		return json.Unmarshal(data, dest)
	}

	value, err := loader(ctx)
	if err != nil {
		return err
	}

	data, err := c.Set(key, value)
	if err != nil {
		return err
	}

	return json.Unmarshal(data, dest)
}

func (c *Cache) fresh(key Key) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || e.stale {
		return nil, false
	}
	if c.ttl > 0 && c.now().Sub(e.fetchedAt) > c.ttl {
		return nil, false
	}
	return e.data, true
}

// Set stores a fetched value and returns its canonical encoding.
func (c *Cache) Set(key Key, value interface{}) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to encode cache entry %s: %w", key, err)
	}

	c.mu.Lock()
	c.entries[key] = &entry{data: data, fetchedAt: c.now()}
	c.mu.Unlock()

	return data, nil
}

// Get returns the raw bytes stored for key, including stale entries.
func (c *Cache) Get(key Key) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	return bytes.Clone(e.data), true
}

func (c *Cache) IsStale(key Key) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	return ok && e.stale
}

// Snapshot is the captured state of an explicit set of keys.
type Snapshot struct {
	entries map[Key]*entry
	keys    []Key
}

func (s *Snapshot) Keys() []Key {
	return append([]Key(nil), s.keys...)
}

// Snapshot captures the listed keys. Absent keys are recorded as absent.
func (c *Cache) Snapshot(keys ...Key) *Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := &Snapshot{entries: make(map[Key]*entry, len(keys)), keys: append([]Key(nil), keys...)}
	for _, key := range keys {
		e, ok := c.entries[key]
		if !ok {
			snap.entries[key] = nil
			continue
		}
		snap.entries[key] = &entry{data: bytes.Clone(e.data), stale: e.stale, fetchedAt: e.fetchedAt}
	}
	return snap
}

// Restore overwrites every captured key with its snapshot state, deleting keys that
// were absent at capture time.
func (c *Cache) Restore(snap *Snapshot) {
	if snap == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for key, e := range snap.entries {
		if e == nil {
			delete(c.entries, key)
			continue
		}
		c.entries[key] = &entry{data: bytes.Clone(e.data), stale: e.stale, fetchedAt: e.fetchedAt}
	}
}

// Invalidate marks the listed keys stale so the next Fetch goes remote.
func (c *Cache) Invalidate(keys ...Key) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, key := range keys {
		if e, ok := c.entries[key]; ok {
			e.stale = true
		}
	}
}

// InvalidatePrefix marks every key starting with prefix stale and returns them.
// Used for list queries whose filter combinations are not enumerable.
func (c *Cache) InvalidatePrefix(prefix string) []Key {
	c.mu.Lock()
	defer c.mu.Unlock()

	var keys []Key
	for key, e := range c.entries {
		if strings.HasPrefix(string(key), prefix) {
			e.stale = true
			keys = append(keys, key)
		}
	}
	return keys
}

// Reset drops every entry.
func (c *Cache) Reset() {
	c.mu.Lock()
	c.entries = make(map[Key]*entry)
	c.mu.Unlock()
}
