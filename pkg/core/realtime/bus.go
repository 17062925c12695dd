package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

// Bus 进程内事件总线，基于Watermill的GoChannel实现
// 订阅需要在Run之前注册
type Bus struct {
	pubsub *gochannel.GoChannel
	router *message.Router

	mu      sync.Mutex
	started bool
	closed  bool
}

// BusOption 事件总线配置选项
type BusOption func(*busOptions)

type busOptions struct {
	debug bool
	trace bool
}

// WithBusDebug 开启Watermill调试日志
func WithBusDebug(debug, trace bool) BusOption {
	return func(o *busOptions) {
		o.debug = debug
		o.trace = trace
	}
}

// NewBus 创建事件总线
func NewBus(opts ...BusOption) (*Bus, error) {
	options := &busOptions{}
	for _, opt := range opts {
		opt(options)
	}

	logger := watermill.NewStdLogger(options.debug, options.trace)
	pubsub := gochannel.NewGoChannel(
		gochannel.Config{
			Persistent:                     false,
			BlockPublishUntilSubscriberAck: false,
		},
		logger,
	)

	router, err := message.NewRouter(message.RouterConfig{}, logger)
	if err != nil {
		return nil, fmt.Errorf("创建消息路由器失败: %w", err)
	}

	return &Bus{pubsub: pubsub, router: router}, nil
}

// Subscribe 注册事件处理器，name在总线内必须唯一
func (b *Bus) Subscribe(name string, eventType EventType, handler EventHandler) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.started {
		return fmt.Errorf("事件总线已启动，无法注册处理器 %s", name)
	}

	b.router.AddNoPublisherHandler(
		name,
		string(eventType),
		b.pubsub,
		func(msg *message.Message) error {
			var event RealtimeEvent
			if err := json.Unmarshal(msg.Payload, &event); err != nil {
				// 无法解析的消息直接确认，避免反复投递
				log.Printf("❌ [Bus] 解析事件失败: %v", err)
				return nil
			}
			return handler(&event)
		},
	)
	return nil
}

// Run 运行路由器，阻塞直到ctx取消或Close被调用
func (b *Bus) Run(ctx context.Context) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return fmt.Errorf("事件总线已关闭")
	}
	b.started = true
	b.mu.Unlock()

	if err := b.router.Run(ctx); err != nil {
		return fmt.Errorf("事件总线运行失败: %w", err)
	}
	return nil
}

// Running 路由器就绪后关闭的通道
func (b *Bus) Running() chan struct{} {
	return b.router.Running()
}

// Publish 发布事件，没有订阅者时事件被丢弃
func (b *Bus) Publish(ctx context.Context, event *RealtimeEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("序列化事件失败: %w", err)
	}

	msg := message.NewMessage(event.ID, payload)
	msg.SetContext(ctx)
	msg.Metadata.Set("event_type", string(event.Type))
	msg.Metadata.Set("client_id", event.ClientID)
	msg.Metadata.Set("timestamp", event.Timestamp.Format(time.RFC3339Nano))

	if err := b.pubsub.Publish(string(event.Type), msg); err != nil {
		return fmt.Errorf("发布事件失败: %w", err)
	}
	return nil
}

// Close 关闭路由器和底层GoChannel
func (b *Bus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	routerErr := b.router.Close()
	pubsubErr := b.pubsub.Close()
	if routerErr != nil {
		return fmt.Errorf("关闭消息路由器失败: %w", routerErr)
	}
	if pubsubErr != nil {
		return fmt.Errorf("关闭事件通道失败: %w", pubsubErr)
	}
	return nil
}
