// Package storage 定义任务表的持久化接口以及各数据库方言
package storage

import (
	"context"
	"errors"

	"github.com/LENAX/task-graph/pkg/core/graph"
)

// ErrTaskNotFound 任务不存在
var ErrTaskNotFound = errors.New("task not found")

// TaskRepository 任务表Repository
// 任务表是任务图的权威副本，客户端只做全量读取和全量覆盖
type TaskRepository interface {
	// ListTasks 按写入顺序返回全部任务
	ListTasks(ctx context.Context) ([]graph.Node, error)
	// GetTask 按任务ID查询，不存在时返回ErrTaskNotFound
	GetTask(ctx context.Context, taskID string) (graph.Node, error)
	// ReplaceAll 在一个事务内清空任务表并写入nodes
	ReplaceAll(ctx context.Context, nodes []graph.Node) error
	// CountTasks 任务数量
	CountTasks(ctx context.Context) (int, error)
	// Ping 检查数据库连接
	Ping(ctx context.Context) error
	// Close 关闭数据库连接
	Close() error
}
