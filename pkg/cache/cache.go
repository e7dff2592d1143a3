// Package cache 提供以查询词为键的上下文缓存。
//
// 条目在 TTL 到期后视为不存在（访问时惰性检查），
// 容量超限时按 LRU 淘汰。缓存作为显式构造的协作对象注入
// 解析器和编排器，而不是包级单例。
package cache

import (
	"container/list"
	"sync"
	"time"
)

// Cache 定义按键缓存接口。
type Cache interface {
	// Get 返回键对应的值。过期条目视为不存在。
	Get(key string) (string, bool)

	// Put 写入键值。已存在的条目被整体替换，不做原地修改。
	Put(key, value string)

	// Len 返回当前物理存储的条目数（可能包含尚未被访问到的过期条目）。
	Len() int
}

// entry 缓存条目
//
// 条目只整体替换，insertedAt 在写入后不再变化。
type entry struct {
	key        string
	value      string
	insertedAt time.Time
}

// TTLCache 带 TTL 和 LRU 淘汰的内存缓存。
//
// 所有访问由单个互斥锁保护，临界区只覆盖存储读写，
// 网络请求和评分都在锁外进行。
type TTLCache struct {
	capacity int
	ttl      time.Duration
	entries  map[string]*list.Element
	order    *list.List
	now      func() time.Time
	mu       sync.Mutex
}

// TTLCacheOption 配置 TTLCache。
type TTLCacheOption func(*TTLCache)

// WithClock 替换时间源（用于测试）。
func WithClock(now func() time.Time) TTLCacheOption {
	return func(c *TTLCache) {
		c.now = now
	}
}

// NewTTLCache 创建 TTL + LRU 缓存。
func NewTTLCache(capacity int, ttl time.Duration, opts ...TTLCacheOption) *TTLCache {
	if capacity <= 0 {
		capacity = 1000
	}
	if ttl <= 0 {
		ttl = time.Hour
	}

	c := &TTLCache{
		capacity: capacity,
		ttl:      ttl,
		entries:  make(map[string]*list.Element),
		order:    list.New(),
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Get 返回键对应的值。
// 过期条目在此处被物理删除并按未命中处理。
func (c *TTLCache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		return "", false
	}

	ent := elem.Value.(*entry)
	if c.now().Sub(ent.insertedAt) >= c.ttl {
		c.order.Remove(elem)
		delete(c.entries, key)
		return "", false
	}

	c.order.MoveToFront(elem)
	return ent.value, true
}

// Put 写入键值，超出容量时淘汰最久未使用的条目。
func (c *TTLCache) Put(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		c.order.Remove(elem)
		delete(c.entries, key)
	}

	c.entries[key] = c.order.PushFront(&entry{
		key:        key,
		value:      value,
		insertedAt: c.now(),
	})

	for c.order.Len() > c.capacity {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*entry).key)
	}
}

// Len 返回当前条目数。
func (c *TTLCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// 编译时接口检查
var _ Cache = (*TTLCache)(nil)
