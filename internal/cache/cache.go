// Package cache provides a small in-process memo cache for expensive
// analyzer and retrieval calls. Keys are derived from the operation name
// and a stable stringification of its arguments, mirroring what callers
// would otherwise recompute verbatim.
package cache

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Cache is a fixed-capacity LRU memo cache. A disabled cache behaves
// identically to an enabled one that never hits.
type Cache struct {
	lru     *lru.Cache[string, interface{}]
	enabled bool
	hits    atomic.Int64
	misses  atomic.Int64
}

// New creates a cache with the given capacity. enabled=false yields a
// cache that stores nothing and never hits.
func New(maxEntries int, enabled bool) (*Cache, error) {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	l, err := lru.New[string, interface{}](maxEntries)
	if err != nil {
		return nil, fmt.Errorf("failed to create lru cache: %w", err)
	}
	return &Cache{lru: l, enabled: enabled}, nil
}

// Key builds a stable cache key from an operation name and its arguments.
// Arguments are stringified, so two calls with value-equal arguments of
// any type produce the same key.
func Key(op string, args ...interface{}) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = stringify(a)
	}
	serialized, _ := json.Marshal(parts)
	sum := md5.Sum(serialized)
	return op + ":" + hex.EncodeToString(sum[:])
}

// stringify renders a value deterministically. Maps are rendered with
// sorted keys so iteration order cannot change the key.
func stringify(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return "<nil>"
	case string:
		return val
	case map[string]interface{}:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := "{"
		for _, k := range keys {
			out += k + ":" + stringify(val[k]) + ","
		}
		return out + "}"
	case []interface{}:
		out := "["
		for _, e := range val {
			out += stringify(e) + ","
		}
		return out + "]"
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	}
}

// Get returns the cached value for key, if present.
func (c *Cache) Get(key string) (interface{}, bool) {
	if c == nil || !c.enabled {
		return nil, false
	}
	v, ok := c.lru.Get(key)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return v, ok
}

// Set stores a value under key. Best effort; no TTL.
func (c *Cache) Set(key string, value interface{}) {
	if c == nil || !c.enabled {
		return
	}
	c.lru.Add(key, value)
}

// Clear drops all entries.
func (c *Cache) Clear() {
	if c == nil || !c.enabled {
		return
	}
	c.lru.Purge()
}

// Enabled reports whether the cache stores anything.
func (c *Cache) Enabled() bool {
	return c != nil && c.enabled
}

// Stats returns cache counters.
func (c *Cache) Stats() map[string]interface{} {
	if c == nil || !c.enabled {
		return map[string]interface{}{"enabled": false, "size": 0}
	}
	return map[string]interface{}{
		"enabled": true,
		"size":    c.lru.Len(),
		"hits":    c.hits.Load(),
		"misses":  c.misses.Load(),
	}
}
