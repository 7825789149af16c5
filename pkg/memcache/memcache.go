// Package memcache 提供一个带 TTL 和容量上限的进程内缓存
package memcache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Cache 线程安全的有界 TTL 缓存
// 到期条目在读取时惰性删除，写入时全量清扫；
// 容量已满且键为新键时，随机淘汰一个现有条目
type Cache[K comparable, V any] struct {
	mu       sync.Mutex
	data     map[K]entry[V]
	ttl      time.Duration
	capacity int
}

// New 创建缓存，capacity <= 0 时按 1 处理
func New[K comparable, V any](ttl time.Duration, capacity int) *Cache[K, V] {
	if capacity <= 0 {
		capacity = 1
	}
	return &Cache[K, V]{
		data:     make(map[K]entry[V]),
		ttl:      ttl,
		capacity: capacity,
	}
}

// Get 读取键值，过期条目当场删除并按不存在处理
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	e, ok := c.data[key]
	if !ok {
		return zero, false
	}
	if !e.expiresAt.After(time.Now()) {
		delete(c.data, key)
		return zero, false
	}
	return e.value, true
}

// Put 写入键值，过期时间为 now + ttl
func (c *Cache[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for k, e := range c.data {
		if !e.expiresAt.After(now) {
			delete(c.data, k)
		}
	}

	if _, exists := c.data[key]; !exists && len(c.data) >= c.capacity {
		for k := range c.data {
			delete(c.data, k)
			break
		}
	}

	c.data[key] = entry[V]{value: value, expiresAt: now.Add(c.ttl)}
}

// Len 返回当前条目数，含未清扫的过期条目
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}
