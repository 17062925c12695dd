// Package maintenance 权威服务的定时维护任务：数据库健康检查和缓存清理
package maintenance

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/LENAX/task-graph/pkg/storage"
)

// 内置任务名
const (
	JobHealthCheck = "health_check"
	JobCachePurge  = "cache_purge"
)

// parser 支持秒级精度和@every等描述符
var parser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ValidateExpr 校验cron表达式
func ValidateExpr(expr string) error {
	if _, err := parser.Parse(expr); err != nil {
		return fmt.Errorf("cron表达式无效 %q: %w", expr, err)
	}
	return nil
}

// Job 维护任务
type Job func(ctx context.Context) error

// Purger 可清理过期条目的缓存
type Purger interface {
	Purge() int
}

// Report 最近一次健康检查结果
type Report struct {
	CheckedAt time.Time
	TaskCount int
	Err       error
}

// Scheduler 定时维护调度器
type Scheduler struct {
	cron    *cron.Cron
	repo    storage.TaskRepository
	jobs    map[string]Job
	entries map[string]cron.EntryID
	mu      sync.RWMutex
	ctx     context.Context
	cancel  context.CancelFunc

	reportMu sync.RWMutex
	report   Report
}

// NewScheduler 创建维护调度器
func NewScheduler(repo storage.TaskRepository) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:    cron.New(cron.WithParser(parser)),
		repo:    repo,
		jobs:    make(map[string]Job),
		entries: make(map[string]cron.EntryID),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Register 注册维护任务
func (s *Scheduler) Register(name, expr string, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[name]; exists {
		return fmt.Errorf("维护任务 %s 已注册", name)
	}
	if err := ValidateExpr(expr); err != nil {
		return err
	}

	entryID, err := s.cron.AddFunc(expr, func() {
		s.run(name, job)
	})
	if err != nil {
		return fmt.Errorf("添加Cron任务失败: %w", err)
	}

	s.jobs[name] = job
	s.entries[name] = entryID
	log.Printf("✅ [Maintenance] 已注册维护任务: %s, CronExpr=%s", name, expr)
	return nil
}

// RegisterHealthCheck 注册数据库健康检查
func (s *Scheduler) RegisterHealthCheck(expr string) error {
	return s.Register(JobHealthCheck, expr, s.checkHealth)
}

// RegisterCachePurge 注册缓存过期清理
func (s *Scheduler) RegisterCachePurge(expr string, purger Purger) error {
	return s.Register(JobCachePurge, expr, func(ctx context.Context) error {
		if removed := purger.Purge(); removed > 0 {
			log.Printf("[Maintenance] 清理过期缓存 %d 条", removed)
		}
		return nil
	})
}

// Trigger 立即同步执行一次维护任务
func (s *Scheduler) Trigger(name string) error {
	s.mu.RLock()
	job, ok := s.jobs[name]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("维护任务 %s 未注册", name)
	}
	return s.run(name, job)
}

// Jobs 已注册的任务名
func (s *Scheduler) Jobs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LastReport 最近一次健康检查结果
func (s *Scheduler) LastReport() Report {
	s.reportMu.RLock()
	defer s.reportMu.RUnlock()
	return s.report
}

// Start 启动调度器
func (s *Scheduler) Start() {
	s.cron.Start()
	log.Println("✅ [Maintenance] 已启动")
}

// Stop 停止调度器并等待正在执行的任务结束
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	log.Println("✅ [Maintenance] 已停止")
}

// Run 启动调度器并阻塞到ctx取消
func (s *Scheduler) Run(ctx context.Context) error {
	s.Start()
	<-ctx.Done()
	s.Stop()
	return nil
}

func (s *Scheduler) run(name string, job Job) error {
	if err := job(s.ctx); err != nil {
		log.Printf("❌ [Maintenance] 维护任务 %s 失败: %v", name, err)
		return err
	}
	return nil
}

func (s *Scheduler) checkHealth(ctx context.Context) error {
	report := Report{CheckedAt: time.Now()}
	defer func() {
		s.reportMu.Lock()
		s.report = report
		s.reportMu.Unlock()
	}()

	if err := s.repo.Ping(ctx); err != nil {
		report.Err = fmt.Errorf("数据库不可用: %w", err)
		return report.Err
	}
	count, err := s.repo.CountTasks(ctx)
	if err != nil {
		report.Err = fmt.Errorf("统计任务数失败: %w", err)
		return report.Err
	}
	report.TaskCount = count
	log.Printf("[Maintenance] 数据库正常，任务数 %d", count)
	return nil
}
