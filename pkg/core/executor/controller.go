package executor

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/LENAX/task-graph/pkg/core/graph"
)

// Controller 单个节点的执行状态机
// 只有Click、Retry和执行完成会产生持久化的状态变化，悬停只改变本地阶段
type Controller struct {
	sim    *Simulator
	nodeID string

	mu     sync.Mutex
	phase  Phase
	held   Phase // 悬停开始前的阶段
	runID  uint64
	cancel context.CancelFunc

	// writeMu 保证同一节点写回Store的顺序与状态转换顺序一致
	writeMu sync.Mutex
}

func newController(sim *Simulator, nodeID string, initial Phase) *Controller {
	return &Controller{
		sim:    sim,
		nodeID: nodeID,
		phase:  initial,
		held:   initial,
	}
}

// NodeID 节点ID
func (c *Controller) NodeID() string {
	return c.nodeID
}

// Phase 当前阶段（包含悬停预览）
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// PointerEnter 指针进入主控件，进入预览阶段
func (c *Controller) PointerEnter() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase.IsPreview() {
		return
	}
	c.held = c.phase
	if c.phase == PhaseRunning {
		c.phase = PhasePreviewStop
	} else {
		c.phase = PhasePreviewStart
	}
}

// PointerLeave 指针离开主控件，恢复悬停前的阶段，不产生任何回调
func (c *Controller) PointerLeave() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase.IsPreview() {
		c.phase = c.held
	}
}

// Click 点击主控件：未运行时启动执行，运行中忽略
func (c *Controller) Click() bool {
	return c.start(false)
}

// Retry 点击重试控件：清除上一次的失败信息后重新执行
func (c *Controller) Retry() bool {
	return c.start(true)
}

func (c *Controller) start(clearFailure bool) bool {
	c.mu.Lock()
	if c.phase == PhaseRunning || c.phase == PhasePreviewStop {
		c.mu.Unlock()
		return false
	}
	node, ok := c.sim.store.Get(c.nodeID)
	if !ok {
		c.mu.Unlock()
		return false
	}

	ctx, cancel, ok := c.sim.track()
	if !ok {
		c.mu.Unlock()
		return false
	}

	c.runID++
	runID := c.runID
	c.phase = PhaseRunning
	c.held = PhaseRunning
	c.cancel = cancel

	startedAt := c.sim.now()
	start := FormatTimestamp(startedAt)
	failMessage := node.FailMessage
	if clearFailure {
		failMessage = ""
	}

	c.writeMu.Lock()
	c.mu.Unlock()
	c.sim.store.UpdateStatus(c.nodeID, graph.StatusRunning, start, "", failMessage)
	c.writeMu.Unlock()

	log.Printf("[Executor] 节点 %s(%s) 开始执行", node.ID, node.Name)

	job := Job{NodeID: node.ID, Name: node.Name, StartedAt: startedAt}
	go c.run(ctx, cancel, runID, job, start)
	return true
}

func (c *Controller) run(ctx context.Context, cancel context.CancelFunc, runID uint64, job Job, start string) {
	defer c.sim.wg.Done()
	defer cancel()

	out, err := c.sim.backend.Execute(ctx, job)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			c.mu.Lock()
			if c.runID == runID {
				c.phase = PhaseIdle
				c.held = PhaseIdle
				c.cancel = nil
			}
			c.mu.Unlock()
			log.Printf("[Executor] 节点 %s 的执行已取消", job.NodeID)
			return
		}
		out = Outcome{Status: graph.StatusFailed, FailMessage: err.Error(), FinishedAt: c.sim.now()}
	}
	if out.FinishedAt.IsZero() {
		out.FinishedAt = c.sim.now()
	}
	if out.Status != graph.StatusSuccess && out.Status != graph.StatusFailed {
		out.Status = graph.StatusFailed
	}

	c.mu.Lock()
	if c.runID != runID {
		c.mu.Unlock()
		return
	}
	c.phase = phaseFromOutcome(out.Status)
	c.held = c.phase
	c.cancel = nil

	c.writeMu.Lock()
	c.mu.Unlock()
	c.sim.store.UpdateStatus(job.NodeID, out.Status, start, FormatTimestamp(out.FinishedAt), out.FailMessage)
	c.writeMu.Unlock()

	if out.Status == graph.StatusSuccess {
		log.Printf("✅ [Executor] 节点 %s(%s) 执行成功", job.NodeID, job.Name)
	} else {
		log.Printf("❌ [Executor] 节点 %s(%s) 执行失败: %s", job.NodeID, job.Name, out.FailMessage)
	}
}

// abort 取消正在进行的执行，结果不会提交
func (c *Controller) abort() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.runID++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}
