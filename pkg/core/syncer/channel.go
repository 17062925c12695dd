package syncer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/LENAX/task-graph/pkg/api/dto"
	"github.com/LENAX/task-graph/pkg/core/graph"
)

// SnapshotSource 推送时读取最新快照的数据源（通常是graph.Store）
type SnapshotSource interface {
	Snapshot() graph.Snapshot
}

// Config 同步通道配置
type Config struct {
	BaseURL  string        // 权威服务HTTP地址，如 http://localhost:8080
	WSURL    string        // WebSocket地址，为空时由BaseURL推导
	Debounce time.Duration // 推送防抖窗口
}

// WebSocketURL 返回WebSocket地址
func (c Config) WebSocketURL() string {
	if c.WSURL != "" {
		return c.WSURL
	}
	return DeriveWSURL(c.BaseURL)
}

// DeriveWSURL 把 http(s)://host 转换为 ws(s)://host/ws
func DeriveWSURL(baseURL string) string {
	base := strings.TrimRight(baseURL, "/")
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base + "/ws"
}

// Channel 与权威服务之间的同步通道
// 启动时一次性拉取全量数据；本地每次变更调用SchedulePush，静默窗口结束后推送最新的完整快照；
// 服务端主动发来的消息只记录日志，不合并到本地状态
type Channel struct {
	cfg       Config
	client    *Client
	source    SnapshotSource
	debouncer *Debouncer
	dialer    *websocket.Dialer

	mu        sync.Mutex
	conn      *websocket.Conn
	closed    bool
	onMessage func([]byte)

	writeMu sync.Mutex
	done    chan struct{} // 读循环退出信号，Open之前为nil
}

// NewChannel 创建同步通道，source为防抖推送时的快照来源
func NewChannel(cfg Config, source SnapshotSource) *Channel {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounceWindow
	}
	c := &Channel{
		cfg:    cfg,
		client: NewClient(cfg.BaseURL, nil),
		source: source,
		dialer: websocket.DefaultDialer,
	}
	c.debouncer = NewDebouncer(cfg.Debounce, c.pushLatest)
	return c
}

// Client 底层HTTP客户端
func (c *Channel) Client() *Client {
	return c.client
}

// OnMessage 设置入站消息回调（在读循环goroutine中调用）
func (c *Channel) OnMessage(fn func([]byte)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onMessage = fn
}

// Open 建立WebSocket连接并启动读循环，断线后不重连
func (c *Channel) Open(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if c.conn != nil {
		return nil
	}

	wsURL := c.cfg.WebSocketURL()
	conn, resp, err := c.dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("连接同步通道失败(%s, HTTP %d): %w", wsURL, resp.StatusCode, err)
		}
		return fmt.Errorf("连接同步通道失败(%s): %w", wsURL, err)
	}
	c.conn = conn
	c.done = make(chan struct{})
	log.Printf("✅ [Syncer] 已连接 %s", wsURL)

	go c.readLoop(conn, c.done)
	return nil
}

// Connected 通道是否处于连接状态
func (c *Channel) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// Load 从权威服务拉取全量任务图，失败时由调用方决定如何处理，不重试
func (c *Channel) Load(ctx context.Context) (graph.Snapshot, error) {
	records, err := c.client.FetchAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("加载任务图失败: %w", err)
	}
	return dto.ToSnapshot(records), nil
}

// FetchTask 拉取单个任务
func (c *Channel) FetchTask(ctx context.Context, id string) (graph.Node, error) {
	record, err := c.client.FetchTask(ctx, id)
	if err != nil {
		return graph.Node{}, err
	}
	return record.ToNode(), nil
}

// SchedulePush 安排一次防抖推送，窗口内的多次调用合并为一次，推送内容为触发时的最新快照
func (c *Channel) SchedulePush() {
	if !c.debouncer.Trigger() {
		log.Printf("⚠️ [Syncer] 通道已关闭，忽略推送请求")
	}
}

// Flush 立即执行待发送的推送
func (c *Channel) Flush() bool {
	return c.debouncer.Flush()
}

// PendingPush 是否有待发送的推送
func (c *Channel) PendingPush() bool {
	return c.debouncer.Pending()
}

// Push 立即推送完整快照
func (c *Channel) Push(snapshot graph.Snapshot) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}

	msg := dto.NewUpdateMessage(dto.FromSnapshot(snapshot))

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("推送任务图失败: %w", err)
	}
	log.Printf("[Syncer] 已推送 %d 个任务节点", len(snapshot))
	return nil
}

// Close 先停止防抖器再关闭连接，关闭开始后不会再有推送
func (c *Channel) Close() error {
	c.debouncer.Stop()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	conn := c.conn
	c.conn = nil
	done := c.done
	c.mu.Unlock()

	if conn == nil {
		if done != nil {
			<-done
		}
		return nil
	}

	// 等待正在进行的写入结束
	c.writeMu.Lock()
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	err := conn.Close()
	c.writeMu.Unlock()

	<-done
	if err != nil {
		return fmt.Errorf("关闭同步通道失败: %w", err)
	}
	log.Printf("[Syncer] 同步通道已关闭")
	return nil
}

func (c *Channel) pushLatest() {
	if c.source == nil {
		return
	}
	if err := c.Push(c.source.Snapshot()); err != nil {
		log.Printf("❌ [Syncer] %v", err)
	}
}

func (c *Channel) readLoop(conn *websocket.Conn, done chan struct{}) {
	defer close(done)

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			closing := c.closed
			if c.conn == conn {
				c.conn = nil
			}
			c.mu.Unlock()

			if !closing && !errors.Is(err, net.ErrClosed) {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Printf("❌ [Syncer] 连接断开: %v", err)
				} else {
					log.Printf("⚠️ [Syncer] 服务端关闭了连接: %v", err)
				}
			}
			return
		}

		log.Printf("[Syncer] 收到服务端消息: %s", msg)

		c.mu.Lock()
		fn := c.onMessage
		c.mu.Unlock()
		if fn != nil {
			fn(msg)
		}
	}
}
