// Package app 按配置组装权威任务服务和看板会话，供cmd和CLI共用
package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/LENAX/task-graph/internal/maintenance"
	internalstorage "github.com/LENAX/task-graph/internal/storage"
	"github.com/LENAX/task-graph/pkg/api"
	"github.com/LENAX/task-graph/pkg/config"
	"github.com/LENAX/task-graph/pkg/core/cache"
)

// ShutdownTimeout 优雅关闭的最长等待时间
const ShutdownTimeout = 10 * time.Second

// RunServer 启动权威任务服务（HTTP、WebSocket、定时维护），阻塞到ctx取消或任一组件失败
func RunServer(ctx context.Context, cfg *config.Config, version string) error {
	if err := config.ValidateServerConfig(cfg); err != nil {
		return fmt.Errorf("配置校验失败: %w", err)
	}

	repo, err := internalstorage.NewTaskRepositoryFromConfig(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := repo.Close(); err != nil {
			log.Printf("❌ [Server] 关闭数据库失败: %v", err)
		}
	}()
	log.Printf("✅ [Server] 存储已就绪: %s", cfg.GetDatabaseType())

	var opts []api.ServerOption
	var taskCache *cache.MemoryTaskCache
	cacheCfg := cfg.TaskGraph.Storage.Cache
	if cacheCfg.Enabled {
		taskCache = cache.NewMemoryTaskCache(cacheCfg.DefaultTTL, cacheCfg.CleanInterval)
		defer taskCache.Stop()
		opts = append(opts, api.WithTaskCache(taskCache))
	}

	server, err := api.NewAPIServer(repo, cfg.Server(), version, opts...)
	if err != nil {
		return err
	}

	var scheduler *maintenance.Scheduler
	if mc := cfg.TaskGraph.Maintenance; mc.Enabled {
		scheduler = maintenance.NewScheduler(repo)
		if err := scheduler.RegisterHealthCheck(mc.HealthCron); err != nil {
			return err
		}
		if taskCache != nil {
			if err := scheduler.RegisterCachePurge(mc.HealthCron, taskCache); err != nil {
				return err
			}
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(server.Start)

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if scheduler != nil {
		g.Go(func() error {
			return scheduler.Run(gctx)
		})
	}

	return g.Wait()
}
