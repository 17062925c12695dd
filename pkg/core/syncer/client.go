package syncer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/LENAX/task-graph/pkg/api/dto"
)

// Client 权威任务服务的HTTP客户端
// 不设置请求超时，调用方通过ctx控制取消
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient 创建HTTP客户端，httpClient为nil时使用默认客户端
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// BaseURL 服务地址
func (c *Client) BaseURL() string {
	return c.baseURL
}

// FetchAll 拉取全部任务记录
func (c *Client) FetchAll(ctx context.Context) ([]dto.TaskRecord, error) {
	var resp dto.APIResponse[[]dto.TaskRecord]
	if err := c.get(ctx, "/api/v1/tasks", &resp); err != nil {
		return nil, err
	}
	if resp.Code != 0 {
		return nil, fmt.Errorf("拉取任务列表失败: %s", resp.Message)
	}
	if resp.Data == nil {
		return []dto.TaskRecord{}, nil
	}
	return resp.Data, nil
}

// FetchTask 拉取单个任务记录，不存在时返回ErrTaskNotFound
func (c *Client) FetchTask(ctx context.Context, id string) (dto.TaskRecord, error) {
	var resp dto.APIResponse[dto.TaskRecord]
	if err := c.get(ctx, "/api/v1/tasks/"+url.PathEscape(id), &resp); err != nil {
		return dto.TaskRecord{}, err
	}
	if resp.Code != 0 {
		return dto.TaskRecord{}, fmt.Errorf("拉取任务失败: %s", resp.Message)
	}
	return resp.Data, nil
}

// Health 查询服务健康状态
func (c *Client) Health(ctx context.Context) (dto.HealthResponse, error) {
	var resp dto.APIResponse[dto.HealthResponse]
	if err := c.get(ctx, "/health", &resp); err != nil {
		return dto.HealthResponse{}, err
	}
	return resp.Data, nil
}

func (c *Client) get(ctx context.Context, path string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("创建请求失败: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrTaskNotFound
	}
	return c.parseResponse(resp, result)
}

func (c *Client) parseResponse(resp *http.Response, result interface{}) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("读取响应体失败: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("服务返回错误状态 %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("解析响应失败: %w, body: %s", err, string(body))
	}
	return nil
}
