// Package cache implements the file-backed response cache that sits in
// front of the upstream providers: every fetched payload is stored under a
// stable hash of its dataset name and request parameters, so a repeated
// request within the freshness window is served from disk instead of
// hitting the network again.
package cache

import (
	"hash/fnv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// Cache is a directory of JSON envelope files keyed by a stable hash of
// (dataset, params). It is safe for concurrent use: writes go through a
// per-key mutex and a write-to-temp-then-rename sequence so a reader never
// observes a partially written file.
type Cache struct {
	dir string
	ttl time.Duration

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

type envelope struct {
	StoredAt time.Time       `json:"stored_at"`
	TTL      time.Duration   `json:"ttl"`
	Payload  json.RawMessage `json:"payload"`
}

// New returns a Cache rooted at dir with the given freshness window. dir is
// created if it does not exist.
func New(dir string, ttl time.Duration) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	return &Cache{dir: dir, ttl: ttl, locks: make(map[string]*sync.Mutex)}, nil
}

// Key computes the stable cache key for a dataset name and a set of request
// parameters. Parameters are sorted by name before hashing so that
// equivalent requests built with different map iteration orders collide on
// the same key.
func Key(dataset string, params map[string]string) string {
	names := make([]string, 0, len(params))
	for k := range params {
		names = append(names, k)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(dataset)
	for _, k := range names {
		b.WriteByte('|')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(params[k])
	}

	h := fnv.New64a()
	_, _ = h.Write([]byte(b.String()))
	return fmt.Sprintf("%s_%016x", dataset, h.Sum64())
}

func (c *Cache) pathFor(key string) string {
	return filepath.Join(c.dir, key+".json")
}

func (c *Cache) lockFor(key string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.locks[key]
	if !ok {
		l = &sync.Mutex{}
		c.locks[key] = l
	}
	return l
}

// Store writes payload under key with the cache's default TTL, overwriting
// any existing entry. See StoreWithTTL for a per-entry freshness window.
func (c *Cache) Store(key string, payload any) error {
	return c.StoreWithTTL(key, payload, c.ttl)
}

// StoreWithTTL writes payload under key with an entry-specific freshness
// window, so callers sharing one Cache instance across datasets with
// different TTL policies don't need a Cache per dataset. The write goes
// to a temp file in the same directory first, then an atomic rename, so
// a crash mid-write never leaves a corrupt file in key's place.
func (c *Cache) StoreWithTTL(key string, payload any, ttl time.Duration) error {
	lock := c.lockFor(key)
	lock.Lock()
	defer lock.Unlock()

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal cache payload for %s: %w", key, err)
	}
	env := envelope{StoredAt: time.Now(), TTL: ttl, Payload: raw}
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal cache envelope for %s: %w", key, err)
	}

	final := c.pathFor(key)
	tmp, err := os.CreateTemp(c.dir, "."+key+".*.tmp")
	if err != nil {
		return fmt.Errorf("create cache temp file for %s: %w", key, err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write cache temp file for %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close cache temp file for %s: %w", key, err)
	}
	if err := os.Rename(tmpPath, final); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename cache temp file for %s: %w", key, err)
	}
	return nil
}

// GetIfFresh unmarshals the cached payload for key into out and reports
// true if a non-expired entry existed. A corrupt or unparseable file is
// deleted and treated as a miss, never returned as an error, so one bad
// entry never blocks the caller from refetching.
func (c *Cache) GetIfFresh(key string, out any) bool {
	lock := c.lockFor(key)
	lock.Lock()
	defer lock.Unlock()

	path := c.pathFor(key)
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		_ = os.Remove(path)
		return false
	}
	ttl := env.TTL
	if ttl == 0 {
		ttl = c.ttl
	}
	if time.Since(env.StoredAt) > ttl {
		_ = os.Remove(path)
		return false
	}
	if err := json.Unmarshal(env.Payload, out); err != nil {
		_ = os.Remove(path)
		return false
	}
	return true
}

// Delete removes the cache entry for key, if any.
func (c *Cache) Delete(key string) error {
	lock := c.lockFor(key)
	lock.Lock()
	defer lock.Unlock()

	if err := os.Remove(c.pathFor(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete cache entry %s: %w", key, err)
	}
	return nil
}

// DeleteExpired walks the cache directory and removes every entry whose
// stored_at timestamp is older than the freshness window, or that fails to
// parse at all.
func (c *Cache) DeleteExpired() (int, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return 0, fmt.Errorf("read cache directory: %w", err)
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(c.dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			if err := os.Remove(path); err == nil {
				removed++
			}
			continue
		}
		ttl := env.TTL
		if ttl == 0 {
			ttl = c.ttl
		}
		if time.Since(env.StoredAt) > ttl {
			if err := os.Remove(path); err == nil {
				removed++
			}
		}
	}
	return removed, nil
}
