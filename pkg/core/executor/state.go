// Package executor 提供每个任务节点的执行状态机以及可替换的执行后端
package executor

import (
	"time"

	"github.com/LENAX/task-graph/pkg/core/graph"
)

// Phase 控件状态机的阶段
// preview-* 只是悬停预览，不会写回Store也不会推送
type Phase string

const (
	PhaseIdle         Phase = "idle"          // 未执行，显示为pending
	PhasePreviewStart Phase = "preview-start" // 悬停在未运行节点的控件上
	PhasePreviewStop  Phase = "preview-stop"  // 悬停在运行中节点的控件上
	PhaseRunning      Phase = "running"       // 执行中
	PhaseSuccess      Phase = "success"       // 执行成功（重试前为终态）
	PhaseFailed       Phase = "failed"        // 执行失败（重试前为终态）
)

// TimestampLayout 开始/结束时间的展示格式
const TimestampLayout = "15:04:05, 02.01.2006"

// FormatTimestamp 格式化时间戳
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// Label 控件显示标签
func (p Phase) Label() string {
	switch p {
	case PhaseIdle:
		return "pending"
	case PhasePreviewStart:
		return "start"
	case PhasePreviewStop:
		return "stop"
	default:
		return string(p)
	}
}

// IsPreview 是否为悬停预览阶段
func (p Phase) IsPreview() bool {
	return p == PhasePreviewStart || p == PhasePreviewStop
}

// phaseFromStatus 由持久化状态得到控件初始阶段
// 从权威数据源加载的running没有对应的计时器，按idle处理以便重新启动
func phaseFromStatus(s graph.Status) Phase {
	switch s {
	case graph.StatusSuccess:
		return PhaseSuccess
	case graph.StatusFailed:
		return PhaseFailed
	default:
		return PhaseIdle
	}
}

// phaseFromOutcome 执行结果对应的终态阶段
func phaseFromOutcome(s graph.Status) Phase {
	if s == graph.StatusSuccess {
		return PhaseSuccess
	}
	return PhaseFailed
}
