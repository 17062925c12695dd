package handler

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/LENAX/task-graph/pkg/api/dto"
	"github.com/LENAX/task-graph/pkg/storage"
)

// ClientCounter 在线WebSocket客户端计数
type ClientCounter interface {
	Count() int
}

// HealthHandler 健康检查处理器
type HealthHandler struct {
	version   string
	startTime time.Time
	repo      storage.TaskRepository
	clients   ClientCounter
}

// NewHealthHandler 创建HealthHandler，repo和clients可以为nil
func NewHealthHandler(version string, repo storage.TaskRepository, clients ClientCounter) *HealthHandler {
	return &HealthHandler{
		version:   version,
		startTime: time.Now(),
		repo:      repo,
		clients:   clients,
	}
}

// Health 健康检查，数据库不可用时返回503
// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	resp := dto.HealthResponse{
		Status:    "healthy",
		Version:   h.version,
		Uptime:    formatDuration(time.Since(h.startTime)),
		Timestamp: time.Now().Format(time.RFC3339),
	}
	if h.clients != nil {
		resp.Clients = h.clients.Count()
	}

	if h.repo != nil {
		count, err := h.repo.CountTasks(c.Request.Context())
		if err != nil {
			log.Printf("❌ [Health] 查询任务数失败: %v", err)
			resp.Status = "unhealthy"
			c.JSON(http.StatusServiceUnavailable, dto.APIResponse[dto.HealthResponse]{
				Code:    503,
				Message: err.Error(),
				Data:    resp,
			})
			return
		}
		resp.TaskCount = count
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

// Ready 就绪检查
// GET /ready
func (h *HealthHandler) Ready(c *gin.Context) {
	if h.repo != nil {
		if err := h.repo.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, dto.NewErrorResponse(503, fmt.Sprintf("数据库不可用: %v", err)))
			return
		}
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(map[string]string{
		"status": "ready",
	}))
}

// formatDuration 格式化时长
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
