// Package board 把任务图Store、执行模拟器、同步通道和通知接收方组装成一次看板会话
package board

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/LENAX/task-graph/pkg/core/executor"
	"github.com/LENAX/task-graph/pkg/core/graph"
	"github.com/LENAX/task-graph/pkg/core/syncer"
)

// Session 一次看板会话
// Open时加载权威数据并建立连接；之后每次Store变更都安排一次防抖推送；Close时先停止执行再关闭通道
type Session struct {
	store   *graph.Store
	sim     *executor.Simulator
	channel *syncer.Channel

	mu     sync.Mutex
	opened bool
	closed bool
}

// NewSession 创建会话，sink可以为nil，backend为nil时使用概率模拟后端
func NewSession(cfg syncer.Config, sink graph.Notifier, backend executor.Backend, opts ...executor.Option) *Session {
	store := graph.NewStore(sink)
	s := &Session{
		store:   store,
		sim:     executor.NewSimulator(store, backend, opts...),
		channel: syncer.NewChannel(cfg, store),
	}
	store.OnChange(s.onChange)
	return s
}

// Store 会话的任务图
func (s *Session) Store() *graph.Store {
	return s.store
}

// Simulator 会话的执行模拟器
func (s *Session) Simulator() *executor.Simulator {
	return s.sim
}

// Channel 会话的同步通道
func (s *Session) Channel() *syncer.Channel {
	return s.channel
}

// Open 加载任务图并建立推送连接
// 加载或连接失败只记录日志，Store保持为空或未连接状态，不重试；返回值汇总了这些失败
func (s *Session) Open(ctx context.Context) error {
	s.mu.Lock()
	if s.opened || s.closed {
		s.mu.Unlock()
		return nil
	}
	s.opened = true
	s.mu.Unlock()

	var errs []error

	snapshot, err := s.channel.Load(ctx)
	if err != nil {
		log.Printf("❌ [Board] %v", err)
		errs = append(errs, err)
	} else {
		s.sim.Reset()
		s.store.Hydrate(snapshot)
		log.Printf("✅ [Board] 已加载 %d 个任务节点", len(snapshot))
	}

	if err := s.channel.Open(ctx); err != nil {
		log.Printf("❌ [Board] %v", err)
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Insert 新增任务节点
func (s *Session) Insert(name, assignee, category, color string) string {
	if color == "" {
		color = graph.DefaultColor
	}
	return s.store.Insert(name, assignee, category, color)
}

// Remove 删除任务节点并丢弃其执行状态
func (s *Session) Remove(id string) bool {
	return s.store.Remove(id)
}

// Connect 建立依赖 source -> target
func (s *Session) Connect(source, target string) bool {
	return s.store.Connect(source, target)
}

// Disconnect 删除依赖 source -> target
func (s *Session) Disconnect(source, target string) bool {
	return s.store.Disconnect(source, target)
}

// Move 移动节点
func (s *Session) Move(id string, x, y float64) bool {
	return s.store.Move(id, x, y)
}

// Click 点击节点主控件
func (s *Session) Click(id string) bool {
	return s.sim.Click(id)
}

// Retry 重试节点
func (s *Session) Retry(id string) bool {
	return s.sim.Retry(id)
}

// PointerEnter 指针进入节点主控件
func (s *Session) PointerEnter(id string) {
	s.sim.PointerEnter(id)
}

// PointerLeave 指针离开节点主控件
func (s *Session) PointerLeave(id string) {
	s.sim.PointerLeave(id)
}

// Phase 节点控件当前阶段
func (s *Session) Phase(id string) executor.Phase {
	return s.sim.Phase(id)
}

// Snapshot 当前节点快照
func (s *Session) Snapshot() graph.Snapshot {
	return s.store.Snapshot()
}

// Edges 当前边集合
func (s *Session) Edges() []graph.Edge {
	return s.store.Edges()
}

// WaitIdle 等待所有执行结束
func (s *Session) WaitIdle(ctx context.Context) error {
	return s.sim.Wait(ctx)
}

// Flush 立即发送待推送的快照
func (s *Session) Flush() bool {
	return s.channel.Flush()
}

// Close 结束会话：取消执行，停止防抖器，关闭连接
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.sim.Close()
	return s.channel.Close()
}

func (s *Session) onChange(c graph.Change) {
	if c.Kind == graph.ChangeRemove {
		s.sim.Forget(c.NodeID)
	}
	s.channel.SchedulePush()
}
