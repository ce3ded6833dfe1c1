package scrub

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize bounds the scrub cache to a fixed number of entries.
const DefaultCacheSize = 1000

// Cache memoizes RedactText results keyed on the raw input string. It is an
// optimization only; correctness never depends on a hit. The cache belongs to
// one invocation context and must be cleared before the process exits so no
// secret material outlives the run.
type Cache struct {
	lru *lru.Cache[string, string]
}

// NewCache creates a bounded LRU cache. Sizes below 1 fall back to
// DefaultCacheSize.
func NewCache(size int) *Cache {
	if size < 1 {
		size = DefaultCacheSize
	}
	// lru.New only errors on a non-positive size, which is guarded above.
	c, _ := lru.New[string, string](size)
	return &Cache{lru: c}
}

// Get returns the cached redaction for input, if present.
func (c *Cache) Get(input string) (string, bool) {
	return c.lru.Get(input)
}

// Put stores a computed redaction, evicting the least recently used entry
// when full.
func (c *Cache) Put(input, redacted string) {
	c.lru.Add(input, redacted)
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	return c.lru.Len()
}

// Clear drops every entry. Called on all exit paths of a run.
func (c *Cache) Clear() {
	c.lru.Purge()
}
