// Package api 权威任务服务：任务表的HTTP查询接口和WebSocket全量覆盖通道
package api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/LENAX/task-graph/pkg/config"
	"github.com/LENAX/task-graph/pkg/core/cache"
	"github.com/LENAX/task-graph/pkg/core/realtime"
	"github.com/LENAX/task-graph/pkg/storage"
)

// 广播给其他客户端的事件
var relayedEvents = []realtime.EventType{
	realtime.EventGraphUpdated,
	realtime.EventClientConnected,
	realtime.EventClientDisconnected,
}

// ServerOption API服务器配置选项
type ServerOption func(*APIServer)

// WithTaskCache 为单任务查询启用缓存
func WithTaskCache(c cache.TaskCache) ServerOption {
	return func(s *APIServer) {
		s.cache = c
	}
}

// WithHubOptions 设置WebSocket Hub选项
func WithHubOptions(opts ...realtime.HubOption) ServerOption {
	return func(s *APIServer) {
		s.hubOpts = append(s.hubOpts, opts...)
	}
}

// APIServer HTTP API服务器
type APIServer struct {
	config  config.ServerConfig
	version string
	repo    storage.TaskRepository
	cache   cache.TaskCache
	hubOpts []realtime.HubOption

	hub     *realtime.Hub
	bus     *realtime.Bus
	handler http.Handler

	mu         sync.Mutex
	httpServer *http.Server
	stopped    bool

	eventsOnce sync.Once
	eventsErr  error
	cancel     context.CancelFunc
	busDone    chan struct{}
}

// NewAPIServer 创建API服务器
func NewAPIServer(repo storage.TaskRepository, cfg config.ServerConfig, version string, opts ...ServerOption) (*APIServer, error) {
	if repo == nil {
		return nil, fmt.Errorf("任务存储不能为空")
	}

	s := &APIServer{
		config:  cfg,
		version: version,
		repo:    repo,
		busDone: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	bus, err := realtime.NewBus()
	if err != nil {
		return nil, err
	}
	s.bus = bus
	s.hub = realtime.NewHub(s.hubOpts...)

	for _, eventType := range relayedEvents {
		name := fmt.Sprintf("hub_relay_%s", eventType)
		if err := bus.Subscribe(name, eventType, s.hub.Relay); err != nil {
			return nil, err
		}
	}

	s.handler = SetupRouter(RouterDeps{
		Repo:           repo,
		Cache:          s.cache,
		Hub:            s.hub,
		Publisher:      bus,
		Version:        version,
		AllowedOrigins: cfg.AllowedOrigins,
	})
	return s, nil
}

// Handler HTTP处理器
func (s *APIServer) Handler() http.Handler {
	return s.handler
}

// Hub WebSocket客户端管理器
func (s *APIServer) Hub() *realtime.Hub {
	return s.hub
}

// StartEvents 启动事件总线并等待就绪，可重复调用
func (s *APIServer) StartEvents() error {
	s.eventsOnce.Do(func() {
		ctx, cancel := context.WithCancel(context.Background())
		s.mu.Lock()
		s.cancel = cancel
		s.mu.Unlock()

		errCh := make(chan error, 1)
		go func() {
			defer close(s.busDone)
			if err := s.bus.Run(ctx); err != nil {
				errCh <- err
			}
		}()

		select {
		case <-s.bus.Running():
			log.Printf("✅ [API] 事件总线已启动")
		case err := <-errCh:
			s.eventsErr = err
		}
	})
	return s.eventsErr
}

// Start 启动服务器，阻塞直到服务器关闭
func (s *APIServer) Start() error {
	if err := s.StartEvents(); err != nil {
		return err
	}

	addr := s.Addr()
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.handler,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.httpServer = srv
	s.mu.Unlock()

	log.Printf("🚀 Task Graph API Server starting on %s", addr)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server listen failed: %w", err)
	}
	return nil
}

// Shutdown 优雅关闭：先断开WebSocket客户端，再关闭HTTP服务和事件总线
func (s *APIServer) Shutdown(ctx context.Context) error {
	log.Println("🛑 Shutting down API Server...")

	s.mu.Lock()
	s.stopped = true
	srv := s.httpServer
	cancel := s.cancel
	s.mu.Unlock()

	s.hub.Close()

	var errs []error
	if srv != nil {
		if err := srv.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("server shutdown failed: %w", err))
		}
	}

	if cancel != nil {
		cancel()
	}
	if err := s.bus.Close(); err != nil {
		errs = append(errs, err)
	}
	if cancel != nil {
		select {
		case <-s.busDone:
		case <-ctx.Done():
			errs = append(errs, ctx.Err())
		}
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}
	log.Println("✅ API Server stopped")
	return nil
}

// Addr 获取服务器地址
func (s *APIServer) Addr() string {
	return s.config.Addr()
}
