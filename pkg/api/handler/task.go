package handler

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/LENAX/task-graph/pkg/api/dto"
	"github.com/LENAX/task-graph/pkg/core/cache"
	"github.com/LENAX/task-graph/pkg/core/graph"
	"github.com/LENAX/task-graph/pkg/storage"
)

// TaskHandler 任务表查询处理器
type TaskHandler struct {
	repo  storage.TaskRepository
	cache cache.TaskCache
}

// NewTaskHandler 创建TaskHandler，taskCache为nil时不缓存
func NewTaskHandler(repo storage.TaskRepository, taskCache cache.TaskCache) *TaskHandler {
	return &TaskHandler{repo: repo, cache: taskCache}
}

// List 列出全部任务，可按状态和分类过滤
// GET /api/v1/tasks?status=failed&category=CI
func (h *TaskHandler) List(c *gin.Context) {
	var query dto.TaskQueryRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(400, fmt.Sprintf("查询参数错误: %v", err)))
		return
	}

	nodes, err := h.repo.ListTasks(c.Request.Context())
	if err != nil {
		log.Printf("❌ [TaskHandler] 查询任务列表失败: %v", err)
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(500, "error fetching tasks"))
		return
	}

	records := make([]dto.TaskRecord, 0, len(nodes))
	for _, n := range nodes {
		if !matchQuery(n, query) {
			continue
		}
		records = append(records, dto.FromNode(n))
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(records))
}

// Get 查询单个任务
// GET /api/v1/tasks/:id
func (h *TaskHandler) Get(c *gin.Context) {
	id := c.Param("id")

	if h.cache != nil {
		if n, ok := h.cache.Get(id); ok {
			c.JSON(http.StatusOK, dto.NewSuccessResponse(dto.FromNode(n)))
			return
		}
	}

	n, err := h.repo.GetTask(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, dto.NewErrorResponse(404, "task not found"))
			return
		}
		log.Printf("❌ [TaskHandler] 查询任务 %s 失败: %v", id, err)
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(500, "error fetching task"))
		return
	}

	if h.cache != nil {
		h.cache.Set(n, 0)
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(dto.FromNode(n)))
}

// matchQuery pending对应未执行的空状态
func matchQuery(n graph.Node, q dto.TaskQueryRequest) bool {
	if q.Status != "" {
		want := graph.Status(q.Status)
		if q.Status == "pending" {
			want = graph.StatusIdle
		}
		if n.Status != want {
			return false
		}
	}
	return q.Category == "" || n.Category == q.Category
}
