package plugin

import (
	"context"
	"log"
	"time"
)

// Sink 任务执行结果的通知接收方
// outcome为"success"或"failed"，message只在失败时有值；核心逻辑从不检查Sink的输出
type Sink interface {
	Notify(outcome, taskName, message string)
}

// SinkFunc 函数适配器
type SinkFunc func(outcome, taskName, message string)

// Notify 实现Sink接口
func (f SinkFunc) Notify(outcome, taskName, message string) {
	f(outcome, taskName, message)
}

// PluginSink 把插件管理器适配为Sink：success触发task.success，failed触发task.failed
type PluginSink struct {
	manager PluginManager
	now     func() time.Time
}

// NewPluginSink 创建基于插件管理器的Sink
func NewPluginSink(manager PluginManager) *PluginSink {
	return &PluginSink{manager: manager, now: time.Now}
}

// Manager 底层插件管理器
func (s *PluginSink) Manager() PluginManager {
	return s.manager
}

// Notify 实现Sink接口，插件错误只记录日志
func (s *PluginSink) Notify(outcome, taskName, message string) {
	event := EventForOutcome(outcome)
	if event == "" {
		log.Printf("⚠️ [PluginSink] 未知的执行结果 %q，任务: %s", outcome, taskName)
		return
	}

	data := PluginData{
		TaskName:   taskName,
		Outcome:    outcome,
		Message:    message,
		OccurredAt: s.now(),
	}
	if err := s.manager.Trigger(context.Background(), event, data); err != nil {
		log.Printf("❌ [PluginSink] %v", err)
	}
}

// NewConsoleSink 创建只绑定控制台插件的Sink
func NewConsoleSink(console *ConsolePlugin) (*PluginSink, error) {
	manager := NewPluginManager()
	if err := manager.RegisterWithInit(console, nil); err != nil {
		return nil, err
	}
	for _, event := range []TriggerEvent{EventTaskSuccess, EventTaskFailed} {
		if err := manager.Bind(PluginBinding{PluginName: console.Name(), Event: event}); err != nil {
			return nil, err
		}
	}
	return NewPluginSink(manager), nil
}
