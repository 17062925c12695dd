package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/LENAX/task-graph/internal/app"
	"github.com/LENAX/task-graph/pkg/cli/output"
)

var (
	serverPort int
	serverHost string
)

// serverCmd server子命令
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "服务管理命令",
	Long:  `管理Task Graph权威任务服务。`,
}

// serverStartCmd 启动服务
var serverStartCmd = &cobra.Command{
	Use:   "start",
	Short: "启动权威任务服务",
	Long: `启动Task Graph HTTP + WebSocket服务，收到SIGINT/SIGTERM后优雅退出。

示例：
  # 使用默认配置启动（SQLite ./task-graph.db）
  task-graph server start

  # 指定端口启动
  task-graph server start --port 8080

  # 指定配置文件启动
  task-graph server start --config ./configs/task-graph.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			output.Error("加载配置失败: %v", err)
			return err
		}
		if cmd.Flags().Changed("host") {
			cfg.TaskGraph.Server.Host = serverHost
		}
		if cmd.Flags().Changed("port") {
			cfg.TaskGraph.Server.Port = serverPort
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		output.Info("数据库: %s %s", cfg.GetDatabaseType(), cfg.GetDatabaseDSN())
		output.Success("Task Graph Server starting on %s", cfg.Server().Addr())

		if err := app.RunServer(ctx, cfg, Version); err != nil {
			output.Error("服务异常退出: %v", err)
			return err
		}
		output.Success("服务已停止")
		return nil
	},
}

func init() {
	serverStartCmd.Flags().IntVarP(&serverPort, "port", "p", 8080, "监听端口")
	serverStartCmd.Flags().StringVarP(&serverHost, "host", "H", "0.0.0.0", "监听地址")

	serverCmd.AddCommand(serverStartCmd)
}
