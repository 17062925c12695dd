package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/LENAX/task-graph/internal/app"
	"github.com/LENAX/task-graph/pkg/config"
)

var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

func main() {
	// 命令行参数，host和port为空值时使用配置文件
	configPath := flag.String("config", "", "配置文件路径（为空时使用默认配置）")
	host := flag.String("host", "", "监听地址")
	port := flag.Int("port", 0, "监听端口")
	flag.Parse()

	log.Printf("Task Graph Server v%s (commit %s, built %s)", Version, GitCommit, BuildTime)

	// 1. 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ 加载配置失败: %v", err)
	}
	if *host != "" {
		cfg.TaskGraph.Server.Host = *host
	}
	if *port != 0 {
		cfg.TaskGraph.Server.Port = *port
	}

	// 2. 等待中断信号
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. 运行服务直到收到信号
	if err := app.RunServer(ctx, cfg, Version); err != nil {
		log.Printf("❌ 服务异常退出: %v", err)
		os.Exit(1)
	}
	log.Println("✅ 服务已停止")
}
