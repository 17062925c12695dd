package plugin

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
)

// ConsolePlugin 以彩色单行提示输出任务执行结果
type ConsolePlugin struct {
	name string

	mu        sync.Mutex
	out       io.Writer
	timestamp bool
}

// NewConsolePlugin 创建控制台提示插件，out为nil时写到标准输出
func NewConsolePlugin(out io.Writer) *ConsolePlugin {
	if out == nil {
		out = os.Stdout
	}
	return &ConsolePlugin{name: "console", out: out}
}

// Name 插件名称
func (p *ConsolePlugin) Name() string {
	return p.name
}

// Init 参数：timestamp=true 时在提示前附加时间
func (p *ConsolePlugin) Init(params map[string]string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.timestamp = params["timestamp"] == "true"
	return nil
}

// Execute 输出一行提示
func (p *ConsolePlugin) Execute(data interface{}) error {
	pluginData, ok := data.(PluginData)
	if !ok {
		return fmt.Errorf("插件数据类型错误")
	}

	line := ToastText(pluginData.Outcome, pluginData.TaskName, pluginData.Message)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.timestamp {
		at := pluginData.OccurredAt
		if at.IsZero() {
			at = time.Now()
		}
		line = at.Format("15:04:05") + " " + line
	}

	var err error
	if pluginData.Outcome == "success" {
		_, err = color.New(color.FgGreen).Fprintln(p.out, "✓ "+line)
	} else {
		_, err = color.New(color.FgRed).Fprintln(p.out, "✗ "+line)
	}
	return err
}

// ToastText 执行结果的提示文案
func ToastText(outcome, taskName, message string) string {
	if outcome == "success" {
		return fmt.Sprintf("Задача %s выполнилась успешно", taskName)
	}
	return fmt.Sprintf("Задача %s выполнилась с ошибкой: %s", taskName, message)
}
