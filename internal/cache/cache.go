// Package cache is the shared query cache for the read model: segment lists
// per stage, notification lists, unread counts. Keys are
// "actor|resource|filter" strings; any successful mutation invalidates the
// relevant prefix, forcing the next read to refetch. Concurrent identical
// reads share one in-flight fetch.
package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Clock abstracts time for deterministic expiry tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the wall-clock Clock used outside tests.
var SystemClock Clock = systemClock{}

// Fetch loads the value for a key when the cache has no fresh entry.
type Fetch func(ctx context.Context) (interface{}, error)

type entry struct {
	val     interface{}
	expires time.Time
}

// Cache is a TTL query cache with in-flight deduplication and prefix
// invalidation. Safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	subs    map[int]chan string
	nextSub int

	group singleflight.Group
	clock Clock
}

// New creates a cache using the given clock. Pass SystemClock outside tests.
func New(clock Clock) *Cache {
	if clock == nil {
		clock = SystemClock
	}
	return &Cache{
		entries: map[string]entry{},
		subs:    map[int]chan string{},
		clock:   clock,
	}
}

// Get returns the cached value for key if fresh, otherwise runs fetch and
// stores the result for ttl. A second concurrent Get for the same key reuses
// the first call's in-flight fetch rather than issuing its own. Failed
// fetches are not cached.
func (c *Cache) Get(ctx context.Context, key string, ttl time.Duration, fetch Fetch) (interface{}, error) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok && c.clock.Now().Before(e.expires) {
		c.mu.Unlock()
		return e.val, nil
	}
	c.mu.Unlock()

	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		// Re-check under the flight: an earlier caller may have stored by now.
		c.mu.Lock()
		if e, ok := c.entries[key]; ok && c.clock.Now().Before(e.expires) {
			c.mu.Unlock()
			return e.val, nil
		}
		c.mu.Unlock()

		v, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.entries[key] = entry{val: v, expires: c.clock.Now().Add(ttl)}
		c.mu.Unlock()
		return v, nil
	})
	return val, err
}

// Invalidate drops every entry whose key starts with prefix and notifies
// subscribers. Returns the number of entries dropped.
func (c *Cache) Invalidate(prefix string) int {
	c.mu.Lock()
	n := 0
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
			n++
		}
	}
	var subs []chan string
	for _, ch := range c.subs {
		subs = append(subs, ch)
	}
	c.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- prefix:
		default: // subscriber is slow; it will refetch on next read anyway
		}
	}
	return n
}

// Set stores a value directly, bypassing fetch. Used for push updates like
// the unread counter, which overwrite the cache without a refetch.
func (c *Cache) Set(key string, val interface{}, ttl time.Duration) {
	c.mu.Lock()
	c.entries[key] = entry{val: val, expires: c.clock.Now().Add(ttl)}
	c.mu.Unlock()
}

// Subscribe registers for invalidation events. The returned cancel func
// must be called to release the subscription.
func (c *Cache) Subscribe() (<-chan string, func()) {
	ch := make(chan string, 16)
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	c.mu.Unlock()
	return ch, func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

// Key joins key parts with the cache separator.
func Key(parts ...string) string {
	return strings.Join(parts, "|")
}
