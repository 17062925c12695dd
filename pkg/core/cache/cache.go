// Package cache 提供服务端单任务查询的内存缓存
package cache

import (
	"sync"
	"time"

	"github.com/LENAX/task-graph/pkg/core/graph"
)

// 默认缓存参数
const (
	DefaultTTL             = 30 * time.Second
	DefaultCleanupInterval = time.Minute
)

// TaskCache 任务缓存接口
type TaskCache interface {
	// Set 缓存任务，ttl<=0时使用默认有效期
	Set(node graph.Node, ttl time.Duration)
	// Get 获取未过期的任务
	Get(taskID string) (graph.Node, bool)
	// Delete 删除单个任务
	Delete(taskID string)
	// Clear 清空缓存，任务表被覆盖时调用
	Clear()
	// Len 当前缓存条目数（含未清理的过期条目）
	Len() int
}

// cacheEntry 缓存条目
type cacheEntry struct {
	node       graph.Node
	expireTime time.Time
}

// MemoryTaskCache 内存任务缓存
type MemoryTaskCache struct {
	mu         sync.RWMutex
	cache      map[string]*cacheEntry
	defaultTTL time.Duration
	now        func() time.Time

	stopOnce sync.Once
	stop     chan struct{}
}

// NewMemoryTaskCache 创建内存任务缓存并启动过期清理协程，使用完毕后调用Stop
func NewMemoryTaskCache(defaultTTL, cleanupInterval time.Duration) *MemoryTaskCache {
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	if cleanupInterval <= 0 {
		cleanupInterval = DefaultCleanupInterval
	}
	c := &MemoryTaskCache{
		cache:      make(map[string]*cacheEntry),
		defaultTTL: defaultTTL,
		now:        time.Now,
		stop:       make(chan struct{}),
	}
	go c.cleanupExpired(cleanupInterval)
	return c
}

// Set 缓存任务
func (c *MemoryTaskCache) Set(node graph.Node, ttl time.Duration) {
	if node.ID == "" {
		return
	}
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache[node.ID] = &cacheEntry{
		node:       node.Clone(),
		expireTime: c.now().Add(ttl),
	}
}

// Get 获取任务，过期条目视为不存在，由清理协程回收
func (c *MemoryTaskCache) Get(taskID string) (graph.Node, bool) {
	if taskID == "" {
		return graph.Node{}, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.cache[taskID]
	if !exists || c.now().After(entry.expireTime) {
		return graph.Node{}, false
	}
	return entry.node.Clone(), true
}

// Delete 删除单个任务
func (c *MemoryTaskCache) Delete(taskID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.cache, taskID)
}

// Clear 清空缓存
func (c *MemoryTaskCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[string]*cacheEntry)
}

// Len 当前缓存条目数
func (c *MemoryTaskCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}

// Stop 停止清理协程，可重复调用
func (c *MemoryTaskCache) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// Purge 立即清理过期条目，返回清理数量
func (c *MemoryTaskCache) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, entry := range c.cache {
		if now.After(entry.expireTime) {
			delete(c.cache, key)
			removed++
		}
	}
	return removed
}

func (c *MemoryTaskCache) cleanupExpired(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.Purge()
		case <-c.stop:
			return
		}
	}
}
