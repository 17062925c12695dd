// Package syncer 负责与权威任务服务之间的同步：启动时全量拉取、变更后防抖推送以及入站消息接收
package syncer

import "errors"

var (
	// ErrTaskNotFound 权威服务中不存在该任务
	ErrTaskNotFound = errors.New("任务不存在")
	// ErrNotConnected 推送通道尚未建立或已断开
	ErrNotConnected = errors.New("同步通道未连接")
	// ErrClosed 通道已关闭
	ErrClosed = errors.New("同步通道已关闭")
)
