package executor

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/LENAX/task-graph/pkg/core/graph"
)

// FailureRate 模拟执行失败的概率（固定策略常量，不按任务配置）
const FailureRate = 0.3

// DefaultMaxDuration 模拟执行的最长耗时
const DefaultMaxDuration = 5 * time.Second

// Job 一次执行请求
type Job struct {
	NodeID    string
	Name      string
	StartedAt time.Time
}

// Outcome 执行结果
type Outcome struct {
	Status      graph.Status // success 或 failed
	FailMessage string
	FinishedAt  time.Time
}

// Backend 执行后端
// Execute阻塞到任务结束；ctx被取消时返回ctx.Err()，此时结果不会被提交
type Backend interface {
	Execute(ctx context.Context, job Job) (Outcome, error)
}

// BackendFunc 函数适配器
type BackendFunc func(ctx context.Context, job Job) (Outcome, error)

// Execute 实现Backend接口
func (f BackendFunc) Execute(ctx context.Context, job Job) (Outcome, error) {
	return f(ctx, job)
}

// ProbabilisticBackend 默认的概率模拟后端
// 随机等待 [0, MaxDuration) 后以70%成功、30%失败结束，失败时生成十六进制故障码
type ProbabilisticBackend struct {
	MaxDuration time.Duration

	mu  sync.Mutex
	rnd *rand.Rand
	now func() time.Time
}

// NewProbabilisticBackend 创建概率模拟后端，seed为0时使用当前时间
func NewProbabilisticBackend(maxDuration time.Duration, seed int64) *ProbabilisticBackend {
	if maxDuration <= 0 {
		maxDuration = DefaultMaxDuration
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &ProbabilisticBackend{
		MaxDuration: maxDuration,
		rnd:         rand.New(rand.NewSource(seed)),
		now:         time.Now,
	}
}

// Execute 实现Backend接口
func (b *ProbabilisticBackend) Execute(ctx context.Context, job Job) (Outcome, error) {
	b.mu.Lock()
	delay := time.Duration(b.rnd.Int63n(int64(b.MaxDuration)))
	failed := b.rnd.Float64() < FailureRate
	code := b.rnd.Intn(0x10000)
	b.mu.Unlock()

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	case <-timer.C:
	}

	out := Outcome{Status: graph.StatusSuccess, FinishedAt: b.now()}
	if failed {
		out.Status = graph.StatusFailed
		out.FailMessage = FaultCode(code)
	}
	return out, nil
}

// FaultCode 把数值格式化为 0xNNNN 形式的故障码
func FaultCode(code int) string {
	return fmt.Sprintf("0x%04X", code&0xFFFF)
}
