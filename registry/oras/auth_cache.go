package oras

import (
	"container/list"
	"sync"
	"time"
)

const (
	defaultAuthHeaderCacheTTL     = time.Minute
	defaultAuthHeaderCacheMaxSize = 100
)

// authHeaderCache holds Authorization header values per registry host.
// Entries expire after ttl and the least recently used entry is evicted
// once maxSize hosts are cached.
type authHeaderCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	maxSize int
	now     func() time.Time
	entries map[string]*list.Element
	order   *list.List // front = most recently used
}

type cachedAuthHeader struct {
	host    string
	value   string
	expires time.Time
}

// newAuthHeaderCache returns nil when ttl is not positive.
func newAuthHeaderCache(ttl time.Duration) *authHeaderCache {
	return newAuthHeaderCacheWithSize(ttl, defaultAuthHeaderCacheMaxSize)
}

func newAuthHeaderCacheWithSize(ttl time.Duration, maxSize int) *authHeaderCache {
	if ttl <= 0 {
		return nil
	}
	if maxSize <= 0 {
		maxSize = defaultAuthHeaderCacheMaxSize
	}
	return &authHeaderCache{
		ttl:     ttl,
		maxSize: maxSize,
		now:     time.Now,
		entries: make(map[string]*list.Element),
		order:   list.New(),
	}
}

func (c *authHeaderCache) get(host string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[host]
	if !ok {
		return "", false
	}
	entry := elem.Value.(*cachedAuthHeader) //nolint:errcheck // only set stores values
	if c.now().After(entry.expires) {
		c.removeLocked(elem)
		return "", false
	}
	c.order.MoveToFront(elem)
	return entry.value, true
}

func (c *authHeaderCache) set(host, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expires := c.now().Add(c.ttl)
	if elem, ok := c.entries[host]; ok {
		entry := elem.Value.(*cachedAuthHeader) //nolint:errcheck // only set stores values
		entry.value = value
		entry.expires = expires
		c.order.MoveToFront(elem)
		return
	}

	for c.order.Len() >= c.maxSize {
		c.removeLocked(c.order.Back())
	}
	c.entries[host] = c.order.PushFront(&cachedAuthHeader{host: host, value: value, expires: expires})
}

func (c *authHeaderCache) invalidate(host string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[host]; ok {
		c.removeLocked(elem)
	}
}

// removeLocked drops elem from the list and index. Caller holds c.mu.
func (c *authHeaderCache) removeLocked(elem *list.Element) {
	entry := elem.Value.(*cachedAuthHeader) //nolint:errcheck // only set stores values
	c.order.Remove(elem)
	delete(c.entries, entry.host)
}
