// Package cmd task-graph命令行：启动权威服务，以及在终端里操作任务图看板
package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/LENAX/task-graph/pkg/config"
)

var (
	// 全局参数
	configPath string
	serverURL  string
	outputJSON bool
)

// rootCmd 根命令
var rootCmd = &cobra.Command{
	Use:   "task-graph",
	Short: "Task Graph CLI - 任务依赖图看板命令行工具",
	Long: `Task Graph CLI 用于管理任务依赖图。

支持的功能：
  - 启动权威任务服务（HTTP + WebSocket）
  - 查看任务列表、单个任务和依赖顺序
  - 新增、删除、连接、断开、移动任务节点
  - 模拟执行任务并查看结果通知

使用示例：
  # 启动服务
  task-graph server start --port 8080

  # 列出所有任务
  task-graph task list

  # 新增任务并建立依赖
  task-graph task add Build --employee Ada --category CI
  task-graph task connect 0 1

  # 执行任务
  task-graph task run 0`,
	SilenceUsage: true,
}

// Execute 执行根命令
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// NewRootCommand 返回根命令，供测试设置参数和输出
func NewRootCommand() *cobra.Command {
	return rootCmd
}

// loadConfig 读取配置文件，--server覆盖board.server_url
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("server") {
		cfg.TaskGraph.Board.ServerURL = serverURL
		cfg.TaskGraph.Board.WSURL = ""
	}
	return cfg, nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "配置文件路径（为空时使用默认配置）")
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", "http://localhost:8080", "任务服务地址")
	rootCmd.PersistentFlags().BoolVarP(&outputJSON, "json", "j", false, "使用JSON格式输出")

	rootCmd.AddCommand(serverCmd)
	rootCmd.AddCommand(taskCmd)
	rootCmd.AddCommand(versionCmd)
}
