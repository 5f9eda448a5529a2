package adapters

import (
	"context"
	"sync"
	"time"

	ports "github.com/ZanzyTHEbar/misim/misim/oracle/ports"
)

// LRUCache implements a simple LRU cache with TTL support.
// A non-positive TTL keeps the entry until it is evicted.
type LRUCache struct {
	mu       sync.Mutex
	capacity int
	items    map[string]*cacheItem
	head     *cacheItem
	tail     *cacheItem
}

type cacheItem struct {
	key   string
	value []byte
	ttl   time.Time // zero means no expiry
	prev  *cacheItem
	next  *cacheItem
}

// NewLRUCache creates a new LRU cache with the specified capacity.
func NewLRUCache(capacity int) *LRUCache {
	if capacity < 1 {
		capacity = 1
	}
	return &LRUCache{
		capacity: capacity,
		items:    make(map[string]*cacheItem),
	}
}

// Get retrieves a value from the cache.
func (c *LRUCache) Get(ctx context.Context, key string) ([]byte, bool) {
	// Get reorders the list, so it needs the write lock.
	c.mu.Lock()
	defer c.mu.Unlock()

	item, exists := c.items[key]
	if !exists {
		return nil, false
	}

	if !item.ttl.IsZero() && time.Now().After(item.ttl) {
		c.removeItem(item)
		delete(c.items, key)
		return nil, false
	}

	c.moveToFront(item)

	return item.value, true
}

// Set stores a value in the cache with TTL.
func (c *LRUCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var ttl time.Time
	if ttlSeconds > 0 {
		ttl = time.Now().Add(time.Duration(ttlSeconds) * time.Second)
	}

	if item, exists := c.items[key]; exists {
		item.value = value
		item.ttl = ttl
		c.moveToFront(item)
		return nil
	}

	item := &cacheItem{
		key:   key,
		value: value,
		ttl:   ttl,
	}

	c.addToFront(item)
	c.items[key] = item

	if len(c.items) > c.capacity {
		c.evictLRU()
	}

	return nil
}

// Delete removes a key from the cache.
func (c *LRUCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, exists := c.items[key]
	if !exists {
		return nil
	}

	c.removeItem(item)
	delete(c.items, key)
	return nil
}

// Len reports the number of live entries, expired or not.
func (c *LRUCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *LRUCache) moveToFront(item *cacheItem) {
	if item == c.head {
		return
	}

	c.removeItem(item)
	c.addToFront(item)
}

func (c *LRUCache) addToFront(item *cacheItem) {
	item.next = c.head
	item.prev = nil

	if c.head != nil {
		c.head.prev = item
	}
	c.head = item

	if c.tail == nil {
		c.tail = item
	}
}

func (c *LRUCache) removeItem(item *cacheItem) {
	if item.prev != nil {
		item.prev.next = item.next
	} else {
		c.head = item.next
	}

	if item.next != nil {
		item.next.prev = item.prev
	} else {
		c.tail = item.prev
	}

	item.prev = nil
	item.next = nil
}

func (c *LRUCache) evictLRU() {
	if c.tail == nil {
		return
	}

	item := c.tail
	c.removeItem(item)
	delete(c.items, item.key)
}

// Ensure LRUCache implements the Cache interface.
var _ ports.Cache = (*LRUCache)(nil)
