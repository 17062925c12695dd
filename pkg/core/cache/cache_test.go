package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/LENAX/task-graph/pkg/core/graph"
)

// fakeClock 可手动推进的时钟
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func newTestCache(t *testing.T) (*MemoryTaskCache, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	c := NewMemoryTaskCache(time.Minute, time.Hour)
	c.now = clock.Now
	t.Cleanup(c.Stop)
	return c, clock
}

func TestMemoryTaskCache_SetGet(t *testing.T) {
	c, _ := newTestCache(t)

	node := graph.Node{ID: "0", Name: "Build", Successors: []string{"1"}}
	c.Set(node, 0)

	got, ok := c.Get("0")
	assert.True(t, ok)
	assert.Equal(t, "Build", got.Name)

	// 返回的是副本
	got.Successors[0] = "x"
	again, _ := c.Get("0")
	assert.Equal(t, []string{"1"}, again.Successors)

	_, ok = c.Get("")
	assert.False(t, ok)
	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestMemoryTaskCache_IgnoresEmptyID(t *testing.T) {
	c, _ := newTestCache(t)
	c.Set(graph.Node{Name: "anonymous"}, 0)
	assert.Zero(t, c.Len())
}

func TestMemoryTaskCache_Expiry(t *testing.T) {
	c, clock := newTestCache(t)

	c.Set(graph.Node{ID: "0"}, 10*time.Second)
	c.Set(graph.Node{ID: "1"}, 0)

	clock.Advance(11 * time.Second)
	_, ok := c.Get("0")
	assert.False(t, ok)
	_, ok = c.Get("1")
	assert.True(t, ok)

	assert.Equal(t, 1, c.Purge())
	assert.Equal(t, 1, c.Len())
}

func TestMemoryTaskCache_DeleteAndClear(t *testing.T) {
	c, _ := newTestCache(t)
	c.Set(graph.Node{ID: "0"}, 0)
	c.Set(graph.Node{ID: "1"}, 0)

	c.Delete("0")
	assert.Equal(t, 1, c.Len())

	c.Clear()
	assert.Zero(t, c.Len())
}

func TestMemoryTaskCache_StopIsIdempotent(t *testing.T) {
	c := NewMemoryTaskCache(0, 0)
	assert.Equal(t, DefaultTTL, c.defaultTTL)
	c.Stop()
	c.Stop()
}
