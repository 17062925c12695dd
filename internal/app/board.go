package app

import (
	"github.com/LENAX/task-graph/pkg/board"
	"github.com/LENAX/task-graph/pkg/config"
	"github.com/LENAX/task-graph/pkg/core/executor"
	"github.com/LENAX/task-graph/pkg/core/graph"
	"github.com/LENAX/task-graph/pkg/core/syncer"
)

// NewBoardSession 按看板配置创建会话，执行后端为概率模拟
func NewBoardSession(cfg config.BoardConfig, sink graph.Notifier) *board.Session {
	backend := executor.NewProbabilisticBackend(cfg.Simulator.MaxDuration, cfg.Simulator.Seed)
	return board.NewSession(syncer.Config{
		BaseURL:  cfg.ServerURL,
		WSURL:    cfg.WSURL,
		Debounce: cfg.Debounce,
	}, sink, backend)
}
