// Package cache provides response caching with ETag support, backed by
// process memory or Redis.
package cache

import (
	"context"
	"crypto/md5"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Kimkangyeon-17/sports-ptj/internal/metrics"
)

// TTL constants.
const (
	TTLStatic    = 24 * time.Hour   // Teams, players, staff: change only on load
	TTLStandings = 30 * time.Minute // Replaced at most daily, but force updates happen
)

// Key prefixes. A refresh of a kind invalidates its prefix.
const (
	PrefixTeams     = "teams:"
	PrefixPlayers   = "players:"
	PrefixStaff     = "staff:"
	PrefixStandings = "standings:"
)

// Data kinds named in refresh events.
const (
	KindMatches   = "matches"
	KindStandings = "standings"
	KindSquads    = "squads"
)

// PrefixesFor returns the key prefixes made stale when data of kind changes.
// Match responses are never cached.
func PrefixesFor(kind string) []string {
	switch kind {
	case KindStandings:
		return []string{PrefixStandings}
	case KindSquads:
		return []string{PrefixTeams, PrefixPlayers, PrefixStaff}
	}
	return nil
}

// Invalidate drops every entry made stale by a change of kind.
func Invalidate(ctx context.Context, s Store, kind string) {
	for _, p := range PrefixesFor(kind) {
		s.DeletePrefix(ctx, p)
	}
}

// Store is a TTL cache of encoded responses.
type Store interface {
	Get(ctx context.Context, key string) (data []byte, etag string, ok bool)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) string
	DeletePrefix(ctx context.Context, prefix string)
	Stats(ctx context.Context) map[string]any
	Ping(ctx context.Context) error
}

type entry struct {
	data      []byte
	etag      string
	expiresAt time.Time
}

// Cache is a thread-safe in-memory TTL cache.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	enabled bool
	stop    chan struct{}
	once    sync.Once
}

// New creates a memory cache. Pass enabled=false to create a no-op cache.
func New(enabled bool) *Cache {
	c := &Cache{
		entries: make(map[string]entry),
		enabled: enabled,
		stop:    make(chan struct{}),
	}
	if enabled {
		go c.evictLoop()
	}
	return c
}

// Get retrieves a cached value. Returns data, etag, and whether the entry was found.
func (c *Cache) Get(_ context.Context, key string) (data []byte, etag string, ok bool) {
	if !c.enabled {
		return nil, "", false
	}
	c.mu.RLock()
	e, exists := c.entries[key]
	c.mu.RUnlock()
	if !exists || time.Now().After(e.expiresAt) {
		metrics.CacheMissesTotal.Inc()
		return nil, "", false
	}
	metrics.CacheHitsTotal.Inc()
	return e.data, e.etag, true
}

// Set stores a value with a TTL and returns its ETag.
func (c *Cache) Set(_ context.Context, key string, data []byte, ttl time.Duration) string {
	etag := ComputeETag(data)
	if !c.enabled {
		return etag
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{
		data:      data,
		etag:      etag,
		expiresAt: time.Now().Add(ttl),
	}
	return etag
}

// DeletePrefix drops every entry whose key starts with prefix.
func (c *Cache) DeletePrefix(_ context.Context, prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
}

// Ping always succeeds for the memory cache.
func (c *Cache) Ping(context.Context) error { return nil }

// Stats returns cache statistics.
func (c *Cache) Stats(context.Context) map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()

	active := 0
	now := time.Now()
	for _, e := range c.entries {
		if now.Before(e.expiresAt) {
			active++
		}
	}
	return map[string]any{
		"backend":      "memory",
		"enabled":      c.enabled,
		"total_keys":   len(c.entries),
		"active_keys":  active,
		"expired_keys": len(c.entries) - active,
	}
}

// Close stops the eviction loop.
func (c *Cache) Close() {
	c.once.Do(func() { close(c.stop) })
}

// evictLoop periodically removes expired entries.
func (c *Cache) evictLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.evict()
		}
	}
}

func (c *Cache) evict() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
		}
	}
}

// ComputeETag generates a weak ETag from response data using MD5.
func ComputeETag(data []byte) string {
	hash := md5.Sum(data)
	return fmt.Sprintf(`W/"%x"`, hash[:8])
}

// CheckETagMatch checks if If-None-Match header matches the current ETag.
func CheckETagMatch(ifNoneMatch, etag string) bool {
	if ifNoneMatch == "" {
		return false
	}
	if ifNoneMatch == "*" {
		return true
	}
	for _, candidate := range strings.Split(ifNoneMatch, ",") {
		if strings.TrimSpace(candidate) == etag {
			return true
		}
	}
	return false
}
