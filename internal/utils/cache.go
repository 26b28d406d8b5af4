package utils

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/patrickmn/go-cache"
)

// NewResponseCache 创建带过期时间的内存缓存，清理间隔为过期时间的两倍
func NewResponseCache(ttl time.Duration) *cache.Cache {
	if ttl <= 0 {
		return cache.New(cache.NoExpiration, 0)
	}
	return cache.New(ttl, 2*ttl)
}

// CacheItem 包装实际的数据，增加过期时间
type CacheItem[T any] struct {
	Value     T
	ExpiredAt time.Time
}

// LRUCache 定长 LRU + TTL 缓存
type LRUCache[T any] struct {
	storage *lru.Cache[string, CacheItem[T]]
	ttl     time.Duration
}

// NewLRUCache size 是最大缓存条数，ttl 是数据有效期（<=0 表示不过期）
func NewLRUCache[T any](size int, ttl time.Duration) *LRUCache[T] {
	if size <= 0 {
		size = 128
	}
	// lru.New 是线程安全的，size > 0 时不会返回错误
	c, _ := lru.New[string, CacheItem[T]](size)
	return &LRUCache[T]{
		storage: c,
		ttl:     ttl,
	}
}

// Set 写入（已存在则覆盖）
func (c *LRUCache[T]) Set(key string, value T) {
	item := CacheItem[T]{Value: value}
	if c.ttl > 0 {
		item.ExpiredAt = time.Now().Add(c.ttl)
	}
	c.storage.Add(key, item)
}

// Get 读取，过期则删除并返回未命中
func (c *LRUCache[T]) Get(key string) (T, bool) {
	var zero T
	item, ok := c.storage.Get(key)
	if !ok {
		return zero, false
	}

	if !item.ExpiredAt.IsZero() && time.Now().After(item.ExpiredAt) {
		c.storage.Remove(key)
		return zero, false
	}

	return item.Value, true
}

// Delete 删除
func (c *LRUCache[T]) Delete(key string) {
	c.storage.Remove(key)
}

// Clear 清空
func (c *LRUCache[T]) Clear() {
	c.storage.Purge()
}

// Len 当前条数
func (c *LRUCache[T]) Len() int {
	return c.storage.Len()
}
