package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/LENAX/task-graph/pkg/api/dto"
	"github.com/LENAX/task-graph/pkg/core/cache"
	"github.com/LENAX/task-graph/pkg/core/realtime"
	"github.com/LENAX/task-graph/pkg/storage"
)

// EventPublisher 实时事件发布者
type EventPublisher interface {
	Publish(ctx context.Context, event *realtime.RealtimeEvent) error
}

// WebSocketHandler /ws处理器：接收客户端推送的全量任务图并覆盖任务表
type WebSocketHandler struct {
	upgrader  websocket.Upgrader
	repo      storage.TaskRepository
	cache     cache.TaskCache
	hub       *realtime.Hub
	publisher EventPublisher
}

// NewWebSocketHandler 创建WebSocketHandler，taskCache和publisher可以为nil
func NewWebSocketHandler(repo storage.TaskRepository, taskCache cache.TaskCache, hub *realtime.Hub, publisher EventPublisher) *WebSocketHandler {
	return &WebSocketHandler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		repo:      repo,
		cache:     taskCache,
		hub:       hub,
		publisher: publisher,
	}
}

// Handle 升级连接并处理入站消息，连接断开前一直阻塞
// GET /ws
func (h *WebSocketHandler) Handle(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("❌ [WebSocket] 升级连接失败: %v", err)
		return
	}

	client, err := h.hub.Register(conn, c.Request.RemoteAddr)
	if err != nil {
		log.Printf("⚠️ [WebSocket] %v", err)
		_ = conn.Close()
		return
	}
	ctx := c.Request.Context()
	h.publish(ctx, realtime.EventClientConnected, client.ID(), &realtime.ClientPayload{
		RemoteAddr: client.RemoteAddr(),
		Clients:    h.hub.Count(),
	})

	var readErr error
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			readErr = err
			break
		}
		if err := h.HandleMessage(ctx, client.ID(), msg); err != nil {
			log.Printf("❌ [WebSocket] %v", err)
		}
	}

	h.hub.Unregister(client)
	payload := &realtime.ClientPayload{RemoteAddr: client.RemoteAddr(), Clients: h.hub.Count()}
	if websocket.IsUnexpectedCloseError(readErr, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		payload.Error = readErr.Error()
	}
	// 请求上下文可能已经取消，断开事件用独立上下文发布
	h.publish(context.Background(), realtime.EventClientDisconnected, client.ID(), payload)
}

// HandleMessage 处理一条入站消息
// 只识别update消息；节点列表为空时跳过，避免清空任务表
func (h *WebSocketHandler) HandleMessage(ctx context.Context, clientID string, msg []byte) error {
	var incoming dto.UpdateMessage
	if err := json.Unmarshal(msg, &incoming); err != nil {
		return fmt.Errorf("解析消息失败: %w", err)
	}

	if incoming.Type != dto.MessageTypeUpdate {
		log.Printf("⚠️ [WebSocket] 忽略未知消息类型 %q", incoming.Type)
		return nil
	}
	if len(incoming.Payload.Nodes) == 0 {
		log.Printf("[WebSocket] 没有需要更新的任务，跳过覆盖")
		return nil
	}

	nodes := dto.ToSnapshot(incoming.Payload.Nodes)
	if err := h.repo.ReplaceAll(ctx, nodes); err != nil {
		return fmt.Errorf("覆盖任务表失败: %w", err)
	}
	if h.cache != nil {
		h.cache.Clear()
	}
	log.Printf("✅ [WebSocket] 任务表已更新，共 %d 个任务", len(nodes))

	ids := make([]string, 0, len(nodes))
	for _, n := range nodes {
		ids = append(ids, n.ID)
	}
	h.publish(ctx, realtime.EventGraphUpdated, clientID, &realtime.GraphUpdatedPayload{
		TaskCount: len(nodes),
		TaskIDs:   ids,
	})
	return nil
}

func (h *WebSocketHandler) publish(ctx context.Context, eventType realtime.EventType, clientID string, payload interface{}) {
	if h.publisher == nil {
		return
	}
	event, err := realtime.NewRealtimeEvent(eventType, clientID, payload)
	if err != nil {
		log.Printf("❌ [WebSocket] %v", err)
		return
	}
	if err := h.publisher.Publish(ctx, event); err != nil {
		log.Printf("❌ [WebSocket] 发布事件 %s 失败: %v", eventType, err)
	}
}
