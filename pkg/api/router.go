package api

import (
	"github.com/gin-gonic/gin"

	"github.com/LENAX/task-graph/pkg/api/handler"
	"github.com/LENAX/task-graph/pkg/api/middleware"
	"github.com/LENAX/task-graph/pkg/core/cache"
	"github.com/LENAX/task-graph/pkg/core/realtime"
	"github.com/LENAX/task-graph/pkg/storage"
)

// RouterDeps 路由依赖
type RouterDeps struct {
	Repo           storage.TaskRepository
	Cache          cache.TaskCache
	Hub            *realtime.Hub
	Publisher      handler.EventPublisher
	Version        string
	AllowedOrigins []string
}

// SetupRouter 设置路由
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// 全局中间件
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.CORS(deps.AllowedOrigins))

	taskHandler := handler.NewTaskHandler(deps.Repo, deps.Cache)
	healthHandler := handler.NewHealthHandler(deps.Version, deps.Repo, deps.Hub)
	wsHandler := handler.NewWebSocketHandler(deps.Repo, deps.Cache, deps.Hub, deps.Publisher)

	// 健康检查路由（不带前缀）
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	// WebSocket
	router.GET("/ws", wsHandler.Handle)

	// API v1 路由组
	v1 := router.Group("/api/v1")
	{
		tasks := v1.Group("/tasks")
		{
			tasks.GET("", taskHandler.List)
			tasks.GET("/:id", taskHandler.Get)
		}
	}

	return router
}
