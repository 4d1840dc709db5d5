package fetch

import (
	"sync"
	"time"

	"github.com/wbe-dev/wbe/url"
)

// entry is a memoized response body, keyed by the URL's canonical
// string form.
type entry struct {
	body      string
	insertAt  time.Time
	maxAge    time.Duration
	touchedAt time.Time
}

func (e *entry) expired(now time.Time) bool {
	return now.Sub(e.insertAt) >= e.maxAge
}

// Cache is the process-wide response cache. It is safe for concurrent
// use; page loads from several devtools connections share one cache.
//
// Capacity is an additive LRU bound on top of the mandatory max-age
// eviction; a capacity of 0 means unbounded, behaving as a plain map.
type Cache struct {
	mu       sync.Mutex
	entries  map[string]*entry
	capacity int
}

// NewCache builds an empty cache. capacity <= 0 means unbounded.
func NewCache(capacity int) *Cache {
	return &Cache{
		entries:  make(map[string]*entry),
		capacity: capacity,
	}
}

// Get returns the cached body for u and true if present and not expired
// as of now. An expired entry is evicted lazily.
func (c *Cache) Get(u *url.URL, now time.Time) (string, bool) {
	key := u.String()

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return "", false
	}
	if e.expired(now) {
		delete(c.entries, key)
		return "", false
	}
	e.touchedAt = now
	return e.body, true
}

// Set inserts a response body for u with the given max-age, per a
// successful non-redirected fetch carrying Cache-Control: max-age=N.
func (c *Cache) Set(u *url.URL, body string, maxAge time.Duration, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := u.String()
	c.entries[key] = &entry{body: body, insertAt: now, maxAge: maxAge, touchedAt: now}

	if c.capacity > 0 {
		c.evictLRULocked()
	}
}

func (c *Cache) evictLRULocked() {
	for len(c.entries) > c.capacity {
		var oldestKey string
		var oldest time.Time
		first := true
		for k, e := range c.entries {
			if first || e.touchedAt.Before(oldest) {
				oldestKey, oldest, first = k, e.touchedAt, false
			}
		}
		delete(c.entries, oldestKey)
	}
}

// Len reports the number of stored entries, including expired ones that
// no Get has evicted yet.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
