package executor

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/LENAX/task-graph/pkg/core/graph"
)

// Option 模拟器选项
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock 指定时钟，测试中用于固定时间戳
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// Simulator 管理所有节点的执行状态机
// 每个节点一个Controller，控制器之间互不影响，依赖边不参与执行门控
type Simulator struct {
	store   *graph.Store
	backend Backend
	now     func() time.Time

	mu          sync.Mutex
	controllers map[string]*Controller
	closed      bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSimulator 创建模拟器，backend为nil时使用默认的概率后端
func NewSimulator(store *graph.Store, backend Backend, opts ...Option) *Simulator {
	o := &options{now: time.Now}
	for _, opt := range opts {
		opt(o)
	}
	if backend == nil {
		backend = NewProbabilisticBackend(DefaultMaxDuration, 0)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Simulator{
		store:       store,
		backend:     backend,
		now:         o.now,
		controllers: make(map[string]*Controller),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Controller 获取节点的控制器，节点不存在时返回nil
// 控制器在首次访问时按节点当前状态创建
func (s *Simulator) Controller(id string) *Controller {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.controllers[id]; ok {
		return c
	}
	node, ok := s.store.Get(id)
	if !ok {
		return nil
	}
	c := newController(s, id, phaseFromStatus(node.Status))
	s.controllers[id] = c
	return c
}

// Click 点击节点的主控件
func (s *Simulator) Click(id string) bool {
	c := s.Controller(id)
	if c == nil {
		return false
	}
	return c.Click()
}

// Retry 点击节点的重试控件
func (s *Simulator) Retry(id string) bool {
	c := s.Controller(id)
	if c == nil {
		return false
	}
	return c.Retry()
}

// PointerEnter 指针进入节点的主控件
func (s *Simulator) PointerEnter(id string) {
	if c := s.Controller(id); c != nil {
		c.PointerEnter()
	}
}

// PointerLeave 指针离开节点的主控件
func (s *Simulator) PointerLeave(id string) {
	if c := s.Controller(id); c != nil {
		c.PointerLeave()
	}
}

// Phase 节点当前阶段，节点不存在时返回idle
func (s *Simulator) Phase(id string) Phase {
	c := s.Controller(id)
	if c == nil {
		return PhaseIdle
	}
	return c.Phase()
}

// Forget 丢弃节点的控制器并取消其执行（节点被删除时调用）
func (s *Simulator) Forget(id string) {
	s.mu.Lock()
	c, ok := s.controllers[id]
	delete(s.controllers, id)
	s.mu.Unlock()

	if ok {
		c.abort()
	}
}

// Reset 丢弃全部控制器（重新加载图之后调用）
func (s *Simulator) Reset() {
	s.mu.Lock()
	controllers := s.controllers
	s.controllers = make(map[string]*Controller)
	s.mu.Unlock()

	for _, c := range controllers {
		c.abort()
	}
}

// Running 正在执行的节点数
func (s *Simulator) Running() int {
	s.mu.Lock()
	controllers := make([]*Controller, 0, len(s.controllers))
	for _, c := range s.controllers {
		controllers = append(controllers, c)
	}
	s.mu.Unlock()

	n := 0
	for _, c := range controllers {
		p := c.Phase()
		if p == PhaseRunning || p == PhasePreviewStop {
			n++
		}
	}
	return n
}

// Wait 等待所有正在进行的执行结束，ctx取消时提前返回
func (s *Simulator) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close 取消所有正在进行的执行并等待goroutine退出，被取消的执行不会提交结果
func (s *Simulator) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
	log.Printf("[Executor] 模拟器已关闭")
}

// track 登记一次新的执行，模拟器关闭后返回false
func (s *Simulator) track() (context.Context, context.CancelFunc, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, nil, false
	}
	s.wg.Add(1)
	ctx, cancel := context.WithCancel(s.ctx)
	return ctx, cancel, true
}
