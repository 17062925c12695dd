package realtime

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// DefaultWriteTimeout 单条消息的写超时
const DefaultWriteTimeout = 10 * time.Second

// Client 已注册到Hub的WebSocket客户端
type Client struct {
	id         string
	remoteAddr string
	conn       *websocket.Conn
	outbox     *Outbox
	done       chan struct{}
	closeOnce  sync.Once
	writeWait  time.Duration
}

// ID 客户端ID
func (c *Client) ID() string {
	return c.id
}

// RemoteAddr 客户端地址
func (c *Client) RemoteAddr() string {
	return c.remoteAddr
}

// Conn 底层连接，只允许读循环使用
func (c *Client) Conn() *websocket.Conn {
	return c.conn
}

// Outbox 客户端出站队列
func (c *Client) Outbox() *Outbox {
	return c.outbox
}

// writePump 把出站队列中的消息写到连接，写失败时关闭连接让读循环退出
func (c *Client) writePump() {
	for {
		msg, ok, stopped := c.outbox.TryPopWithDone(c.done)
		if stopped {
			return
		}
		if !ok {
			continue
		}
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			log.Printf("❌ [Hub] 向客户端 %s 写消息失败: %v", c.id, err)
			c.close()
			return
		}
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

// HubOption Hub配置选项
type HubOption func(*Hub)

// WithOutbox 设置每个客户端出站队列的容量和背压阈值
func WithOutbox(capacity int, threshold float64) HubOption {
	return func(h *Hub) {
		h.capacity = capacity
		h.threshold = threshold
	}
}

// WithWriteTimeout 设置写超时
func WithWriteTimeout(d time.Duration) HubOption {
	return func(h *Hub) {
		if d > 0 {
			h.writeWait = d
		}
	}
}

// Hub 管理所有WebSocket客户端并向它们广播实时事件
type Hub struct {
	mu        sync.RWMutex
	clients   map[string]*Client
	closed    bool
	capacity  int
	threshold float64
	writeWait time.Duration
}

// NewHub 创建Hub
func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		clients:   make(map[string]*Client),
		capacity:  DefaultOutboxCapacity,
		threshold: DefaultOutboxThreshold,
		writeWait: DefaultWriteTimeout,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register 注册连接并启动写协程
func (h *Hub) Register(conn *websocket.Conn, remoteAddr string) (*Client, error) {
	c := &Client{
		id:         uuid.NewString(),
		remoteAddr: remoteAddr,
		conn:       conn,
		outbox:     NewOutbox(h.capacity, h.threshold),
		done:       make(chan struct{}),
		writeWait:  h.writeWait,
	}
	c.outbox.SetBackpressureCallback(func(usage float64) {
		log.Printf("⚠️ [Hub] 客户端 %s 出站队列背压: 使用率 %.0f%%, 已丢弃 %d", c.id, usage*100, c.outbox.Dropped())
	})
	c.outbox.SetBackpressureRelieveCallback(func(usage float64) {
		log.Printf("[Hub] 客户端 %s 背压解除: 使用率 %.0f%%", c.id, usage*100)
	})

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, fmt.Errorf("hub已关闭")
	}
	h.clients[c.id] = c
	count := len(h.clients)
	h.mu.Unlock()

	go c.writePump()
	log.Printf("✅ [Hub] 客户端 %s 已连接 (%s)，当前在线 %d", c.id, remoteAddr, count)
	return c, nil
}

// Unregister 注销客户端并关闭连接，可重复调用
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c.id]
	delete(h.clients, c.id)
	count := len(h.clients)
	h.mu.Unlock()

	c.close()
	if ok {
		log.Printf("[Hub] 客户端 %s 已断开，当前在线 %d", c.id, count)
	}
}

// Count 在线客户端数
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast 把事件投递给除exceptID之外的所有客户端，返回成功入队的客户端数
func (h *Hub) Broadcast(event *RealtimeEvent, exceptID string) (int, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return 0, fmt.Errorf("序列化事件失败: %w", err)
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for id, c := range h.clients {
		if id == exceptID {
			continue
		}
		if c.outbox.Push(data) {
			delivered++
		} else {
			log.Printf("⚠️ [Hub] 客户端 %s 出站队列已满，丢弃事件 %s", id, event.Type)
		}
	}
	return delivered, nil
}

// Relay 作为事件总线处理器：把事件转发给其他客户端，不回送给事件来源
func (h *Hub) Relay(event *RealtimeEvent) error {
	_, err := h.Broadcast(event, event.ClientID)
	return err
}

// Close 关闭所有客户端连接，之后的注册会失败
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.clients = make(map[string]*Client)
	h.mu.Unlock()

	for _, c := range clients {
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutdown"),
			time.Now().Add(time.Second))
		c.close()
	}
}
