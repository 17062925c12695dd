package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/LENAX/task-graph/internal/app"
	"github.com/LENAX/task-graph/pkg/api/dto"
	"github.com/LENAX/task-graph/pkg/board"
	"github.com/LENAX/task-graph/pkg/cli/output"
	"github.com/LENAX/task-graph/pkg/config"
	"github.com/LENAX/task-graph/pkg/core/graph"
	"github.com/LENAX/task-graph/pkg/core/syncer"
)

var (
	taskEmployee string
	taskCategory string
	taskColor    string
	taskX        float64
	taskY        float64
	runTimeout   time.Duration
)

// errInvalidOperation 节点不存在或操作不满足模型约束
var errInvalidOperation = errors.New("任务不存在或操作无效")

// taskCmd task子命令
var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "任务图管理命令",
	Long: `查看和修改任务依赖图。修改类命令会先拉取服务端的完整任务图，
在本地修改后把完整快照推送回服务端。`,
}

// taskListCmd 列出任务
var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "列出所有任务",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient(cmd)
		if err != nil {
			return err
		}
		records, err := client.FetchAll(cmd.Context())
		if err != nil {
			output.Error("查询失败: %v", err)
			return err
		}

		if outputJSON {
			return output.PrintJSON(records)
		}
		if len(records) == 0 {
			output.Info("暂无任务")
			return nil
		}

		table := output.NewTable([]string{"ID", "NAME", "EMPLOYEE", "CATEGORY", "STATUS", "DEPENDS_ON", "MESSAGE"})
		for _, r := range records {
			table.AddRow([]string{
				r.TaskID,
				r.TaskName,
				orDash(r.TaskEmployee),
				orDash(r.TaskCategory),
				formatStatus(graph.Status(r.TaskStatus)),
				orDash(strings.Join(r.TargetFor, ",")),
				orDash(derefString(r.TaskFailMessage)),
			})
		}
		table.Render()
		return nil
	},
}

// taskGetCmd 查看任务
var taskGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "查看单个任务",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient(cmd)
		if err != nil {
			return err
		}
		record, err := client.FetchTask(cmd.Context(), args[0])
		if err != nil {
			if errors.Is(err, syncer.ErrTaskNotFound) {
				output.Error("任务 %s 不存在", args[0])
			} else {
				output.Error("查询失败: %v", err)
			}
			return err
		}

		if outputJSON {
			return output.PrintJSON(record)
		}
		printRecord(record)
		return nil
	},
}

// taskOrderCmd 依赖顺序
var taskOrderCmd = &cobra.Command{
	Use:   "order",
	Short: "按依赖关系列出任务顺序（仅供参考，执行不受依赖约束）",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient(cmd)
		if err != nil {
			return err
		}
		records, err := client.FetchAll(cmd.Context())
		if err != nil {
			output.Error("查询失败: %v", err)
			return err
		}

		nodes := dto.ToSnapshot(records)
		order, err := graph.TopologicalOrder(nodes)
		if err != nil {
			output.Error("%v", err)
			return err
		}

		if outputJSON {
			return output.PrintJSON(order)
		}
		table := output.NewTable([]string{"#", "ID", "NAME", "STATUS"})
		for i, id := range order {
			n, _ := nodes.Find(id)
			table.AddRow([]string{strconv.Itoa(i + 1), id, n.Name, formatStatus(n.Status)})
		}
		table.Render()
		return nil
	},
}

// taskAddCmd 新增任务
var taskAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "新增任务节点",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, s *board.Session) error {
			id := s.Insert(args[0], taskEmployee, taskCategory, taskColor)
			if cmd.Flags().Changed("x") || cmd.Flags().Changed("y") {
				s.Move(id, taskX, taskY)
			}
			output.Success("已新增任务 %s (ID=%s)", args[0], id)
			return nil
		})
	},
}

// taskRemoveCmd 删除任务
var taskRemoveCmd = &cobra.Command{
	Use:     "rm <id>",
	Aliases: []string{"remove"},
	Short:   "删除任务节点及其所有依赖",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, s *board.Session) error {
			if !s.Remove(args[0]) {
				return fmt.Errorf("任务 %s: %w", args[0], errInvalidOperation)
			}
			output.Success("已删除任务 %s", args[0])
			return nil
		})
	},
}

// taskConnectCmd 建立依赖
var taskConnectCmd = &cobra.Command{
	Use:   "connect <source> <target>",
	Short: "建立依赖 source -> target",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, s *board.Session) error {
			if err := checkEdge(s, args[0], args[1]); err != nil {
				return err
			}
			if !s.Connect(args[0], args[1]) {
				return fmt.Errorf("%s -> %s: %w", args[0], args[1], errInvalidOperation)
			}
			output.Success("已建立依赖 %s -> %s", args[0], args[1])
			return nil
		})
	},
}

// taskDisconnectCmd 删除依赖
var taskDisconnectCmd = &cobra.Command{
	Use:   "disconnect <source> <target>",
	Short: "删除依赖 source -> target",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, s *board.Session) error {
			if !s.Disconnect(args[0], args[1]) {
				return fmt.Errorf("%s -> %s: 依赖不存在", args[0], args[1])
			}
			output.Success("已删除依赖 %s -> %s", args[0], args[1])
			return nil
		})
	},
}

// taskMoveCmd 移动节点
var taskMoveCmd = &cobra.Command{
	Use:   "move <id> <x> <y>",
	Short: "移动任务节点",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		x, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("x坐标格式错误: %w", err)
		}
		y, err := strconv.ParseFloat(args[2], 64)
		if err != nil {
			return fmt.Errorf("y坐标格式错误: %w", err)
		}
		return withSession(cmd, func(ctx context.Context, s *board.Session) error {
			if !s.Move(args[0], x, y) {
				return fmt.Errorf("任务 %s: %w", args[0], errInvalidOperation)
			}
			output.Success("已移动任务 %s 到 (%g, %g)", args[0], x, y)
			return nil
		})
	},
}

// taskRunCmd 执行任务
var taskRunCmd = &cobra.Command{
	Use:   "run <id>...",
	Short: "模拟执行任务，等待全部结束后推送结果",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTasks(cmd, args, (*board.Session).Click)
	},
}

// taskRetryCmd 重试任务
var taskRetryCmd = &cobra.Command{
	Use:   "retry <id>...",
	Short: "清除失败信息并重新执行任务",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTasks(cmd, args, (*board.Session).Retry)
	},
}

func runTasks(cmd *cobra.Command, ids []string, start func(*board.Session, string) bool) error {
	return withSession(cmd, func(ctx context.Context, s *board.Session) error {
		started := make([]string, 0, len(ids))
		for _, id := range ids {
			if !start(s, id) {
				output.Warning("任务 %s 不存在或正在执行，已跳过", id)
				continue
			}
			started = append(started, id)
		}
		if len(started) == 0 {
			return errInvalidOperation
		}

		waitCtx, cancel := context.WithTimeout(ctx, runTimeout)
		defer cancel()
		if err := s.WaitIdle(waitCtx); err != nil {
			return fmt.Errorf("等待任务结束超时: %w", err)
		}

		snap := s.Snapshot()
		if outputJSON {
			records := make([]dto.TaskRecord, 0, len(started))
			for _, id := range started {
				if n, ok := snap.Find(id); ok {
					records = append(records, dto.FromNode(n))
				}
			}
			return output.PrintJSON(records)
		}

		table := output.NewTable([]string{"ID", "NAME", "STATUS", "START", "END", "MESSAGE"})
		for _, id := range started {
			n, ok := snap.Find(id)
			if !ok {
				continue
			}
			table.AddRow([]string{n.ID, n.Name, formatStatus(n.Status), orDash(n.Start), orDash(n.End), orDash(n.FailMessage)})
		}
		table.Render()
		return nil
	})
}

// checkEdge 图模型不拒绝自环和重复依赖，由调用方过滤
func checkEdge(s *board.Session, source, target string) error {
	if source == target {
		return fmt.Errorf("%s -> %s: 不能依赖自身", source, target)
	}
	key := graph.Edge{Source: source, Target: target}.Key()
	for _, e := range s.Edges() {
		if e.Key() == key {
			return fmt.Errorf("%s -> %s: 依赖已存在", source, target)
		}
	}
	return nil
}

// newClient 按配置创建HTTP客户端
func newClient(cmd *cobra.Command) (*syncer.Client, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		output.Error("加载配置失败: %v", err)
		return nil, err
	}
	return syncer.NewClient(cfg.Board().ServerURL, nil), nil
}

// withSession 打开看板会话执行fn，结束后立即推送并关闭
// 加载失败时不执行fn，避免用不完整的任务图覆盖服务端
func withSession(cmd *cobra.Command, fn func(ctx context.Context, s *board.Session) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		output.Error("加载配置失败: %v", err)
		return err
	}
	if err := config.ValidateBoardConfig(cfg.Board()); err != nil {
		return err
	}

	sink, err := app.NewSink(cfg.TaskGraph.Notify, output.Writer())
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	s := app.NewBoardSession(cfg.Board(), sink)
	if err := s.Open(ctx); err != nil {
		_ = s.Close()
		output.Error("连接任务服务失败: %v", err)
		return err
	}

	if err := fn(ctx, s); err != nil {
		_ = s.Close()
		output.Error("%v", err)
		return err
	}

	s.Flush()
	return s.Close()
}

func printRecord(r dto.TaskRecord) {
	table := output.NewTable([]string{"FIELD", "VALUE"})
	table.AddRow([]string{"ID", r.TaskID})
	table.AddRow([]string{"Name", r.TaskName})
	table.AddRow([]string{"Employee", orDash(r.TaskEmployee)})
	table.AddRow([]string{"Category", orDash(r.TaskCategory)})
	table.AddRow([]string{"Status", formatStatus(graph.Status(r.TaskStatus))})
	table.AddRow([]string{"Start", orDash(derefString(r.TaskStart))})
	table.AddRow([]string{"End", orDash(derefString(r.TaskEnd))})
	table.AddRow([]string{"Message", orDash(derefString(r.TaskFailMessage))})
	table.AddRow([]string{"Color", r.TaskColor})
	table.AddRow([]string{"Depends on", orDash(strings.Join(r.TargetFor, ","))})
	table.AddRow([]string{"Required by", orDash(strings.Join(r.SourceFor, ","))})
	table.AddRow([]string{"Position", fmt.Sprintf("(%g, %g)", r.X, r.Y)})
	table.Render()
}

// formatStatus 格式化状态显示
func formatStatus(status graph.Status) string {
	switch status {
	case graph.StatusSuccess:
		return "✅ success"
	case graph.StatusFailed:
		return "❌ failed"
	case graph.StatusRunning:
		return "🔄 running"
	default:
		return "⏳ " + status.Label()
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func init() {
	taskAddCmd.Flags().StringVarP(&taskEmployee, "employee", "e", "", "负责人")
	taskAddCmd.Flags().StringVar(&taskCategory, "category", "", "分类")
	taskAddCmd.Flags().StringVar(&taskColor, "color", graph.DefaultColor, "节点颜色")
	taskAddCmd.Flags().Float64Var(&taskX, "x", 0, "画布X坐标")
	taskAddCmd.Flags().Float64Var(&taskY, "y", 0, "画布Y坐标")

	for _, c := range []*cobra.Command{taskRunCmd, taskRetryCmd} {
		c.Flags().DurationVar(&runTimeout, "timeout", 30*time.Second, "等待执行结束的最长时间")
	}

	taskCmd.AddCommand(taskListCmd, taskGetCmd, taskOrderCmd, taskAddCmd, taskRemoveCmd,
		taskConnectCmd, taskDisconnectCmd, taskMoveCmd, taskRunCmd, taskRetryCmd)
}
