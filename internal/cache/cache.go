// Cadencia - Multimodal Bachata Move Recommendation Engine
// Copyright 2026 Cadencia Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cadencia/cadencia

// Package cache provides a thread-safe in-memory TTL cache used to avoid
// re-fetching the full catalog from the vector store on every
// recommendation query.
package cache

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

// entry is a cached value with its expiration time.
type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Cache is a thread-safe TTL cache. The zero value is not usable; use New.
type Cache[V any] struct {
	mu      sync.RWMutex
	entries map[string]entry[V]
	ttl     time.Duration

	hits      int64
	misses    int64
	evictions int64
}

// New creates a Cache whose entries expire after ttl.
func New[V any](ttl time.Duration) *Cache[V] {
	return &Cache[V]{
		entries: make(map[string]entry[V]),
		ttl:     ttl,
	}
}

// Get returns the cached value for key. Expired entries are removed and
// reported as misses.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	e, exists := c.entries[key]
	c.mu.RUnlock()

	var zero V
	if !exists {
		c.count(&c.misses)
		return zero, false
	}
	if time.Now().After(e.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		c.count(&c.misses)
		c.count(&c.evictions)
		return zero, false
	}

	c.count(&c.hits)
	return e.value, true
}

// Set stores value under key with the configured TTL.
func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	c.entries[key] = entry[V]{value: value, expiresAt: time.Now().Add(c.ttl)}
	c.mu.Unlock()
}

// Invalidate drops every entry. Called after catalog writes so reads see
// fresh data.
func (c *Cache[V]) Invalidate() {
	c.mu.Lock()
	c.entries = make(map[string]entry[V])
	c.mu.Unlock()
}

// Len returns the number of entries, expired ones included.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats is a point-in-time counter snapshot.
type Stats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
}

// Stats returns the current counters.
func (c *Cache[V]) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{Hits: c.hits, Misses: c.misses, Evictions: c.evictions}
}

func (c *Cache[V]) count(field *int64) {
	c.mu.Lock()
	*field++
	c.mu.Unlock()
}

// Key derives a stable cache key from any JSON-serializable value. Nil
// marshals to "null", giving all unfiltered lookups the same key.
func Key(prefix string, v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return prefix + ":uncacheable"
	}
	return fmt.Sprintf("%s:%x", prefix, sha256.Sum256(raw))
}
