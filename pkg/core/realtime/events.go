// Package realtime 提供任务图服务端的实时事件：事件定义、进程内事件总线和WebSocket广播
package realtime

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventType 事件类型
type EventType string

const (
	// 任务图事件
	EventGraphUpdated EventType = "graph.updated" // 任务表被整体覆盖

	// 连接事件
	EventClientConnected    EventType = "client.connected"    // 客户端连接
	EventClientDisconnected EventType = "client.disconnected" // 客户端断开

	// 背压事件
	EventBackpressure         EventType = "backpressure.triggered" // 背压触发
	EventBackpressureRelieved EventType = "backpressure.relieved"  // 背压解除
)

// RealtimeEvent 实时事件基础结构
type RealtimeEvent struct {
	ID        string            `json:"id"`        // 事件ID（UUID）
	Type      EventType         `json:"type"`      // 事件类型
	ClientID  string            `json:"client_id"` // 触发事件的客户端
	Timestamp time.Time         `json:"timestamp"` // 事件时间
	Payload   json.RawMessage   `json:"payload,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// NewRealtimeEvent 创建实时事件，payload为nil时不携带负载
func NewRealtimeEvent(eventType EventType, clientID string, payload interface{}) (*RealtimeEvent, error) {
	event := &RealtimeEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		ClientID:  clientID,
		Timestamp: time.Now(),
		Metadata:  make(map[string]string),
	}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("序列化事件负载失败: %w", err)
		}
		event.Payload = raw
	}
	return event, nil
}

// WithMetadata 添加元数据
func (e *RealtimeEvent) WithMetadata(key, value string) *RealtimeEvent {
	if e.Metadata == nil {
		e.Metadata = make(map[string]string)
	}
	e.Metadata[key] = value
	return e
}

// DecodePayload 解析事件负载
func (e *RealtimeEvent) DecodePayload(v interface{}) error {
	if len(e.Payload) == 0 {
		return fmt.Errorf("事件 %s 没有负载", e.ID)
	}
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("解析事件负载失败: %w", err)
	}
	return nil
}

// GraphUpdatedPayload 任务图更新事件负载
type GraphUpdatedPayload struct {
	TaskCount int      `json:"task_count"` // 覆盖后的任务数
	TaskIDs   []string `json:"task_ids"`   // 覆盖后的任务ID
}

// ClientPayload 连接事件负载
type ClientPayload struct {
	RemoteAddr string `json:"remote_addr"`
	Clients    int    `json:"clients"` // 当前在线客户端数
	Error      string `json:"error,omitempty"`
}

// BackpressurePayload 背压事件负载
type BackpressurePayload struct {
	BufferUsage float64 `json:"buffer_usage"` // 缓冲区使用率
	QueueLength int     `json:"queue_length"` // 队列长度
	Threshold   float64 `json:"threshold"`    // 触发阈值
	Dropped     int64   `json:"dropped"`      // 已丢弃的消息数
}

// EventHandler 事件处理器函数类型
type EventHandler func(event *RealtimeEvent) error
