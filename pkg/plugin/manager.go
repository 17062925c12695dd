package plugin

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// TriggerEvent 插件触发事件类型
type TriggerEvent string

const (
	EventTaskSuccess TriggerEvent = "task.success" // 任务执行成功
	EventTaskFailed  TriggerEvent = "task.failed"  // 任务执行失败
)

// EventForOutcome 执行结果对应的事件，未知结果返回空字符串
func EventForOutcome(outcome string) TriggerEvent {
	switch outcome {
	case "success":
		return EventTaskSuccess
	case "failed":
		return EventTaskFailed
	default:
		return ""
	}
}

// PluginBinding 插件绑定规则
type PluginBinding struct {
	PluginName string                    // 插件名称
	Event      TriggerEvent              // 触发事件
	Condition  func(data PluginData) bool // 可选：满足条件才触发
}

// PluginData 传递给插件的通知内容
type PluginData struct {
	Event      TriggerEvent
	TaskName   string
	Outcome    string // success 或 failed
	Message    string // 失败信息，成功时为空
	OccurredAt time.Time
}

// PluginManager 插件管理器
type PluginManager interface {
	// Register 注册插件
	Register(plugin Plugin) error
	// RegisterWithInit 注册并初始化插件
	RegisterWithInit(plugin Plugin, params map[string]string) error
	// Bind 绑定插件到事件
	Bind(binding PluginBinding) error
	// Trigger 触发绑定到事件的所有插件
	Trigger(ctx context.Context, event TriggerEvent, data PluginData) error
	// GetPlugin 获取已注册的插件
	GetPlugin(name string) (Plugin, bool)
	// ListPlugins 列出已注册的插件（按名称排序）
	ListPlugins() []string
	// Unregister 取消注册插件及其绑定
	Unregister(name string) error
}

type pluginManagerImpl struct {
	plugins  map[string]Plugin
	bindings map[TriggerEvent][]PluginBinding
	mu       sync.RWMutex
}

// NewPluginManager 创建插件管理器
func NewPluginManager() PluginManager {
	return &pluginManagerImpl{
		plugins:  make(map[string]Plugin),
		bindings: make(map[TriggerEvent][]PluginBinding),
	}
}

func (pm *pluginManagerImpl) Register(plugin Plugin) error {
	if plugin == nil {
		return fmt.Errorf("插件不能为空")
	}
	name := plugin.Name()
	if name == "" {
		return fmt.Errorf("插件名称不能为空")
	}

	pm.mu.Lock()
	defer pm.mu.Unlock()
	if _, exists := pm.plugins[name]; exists {
		return fmt.Errorf("插件 %s 已注册", name)
	}
	pm.plugins[name] = plugin
	return nil
}

func (pm *pluginManagerImpl) RegisterWithInit(plugin Plugin, params map[string]string) error {
	if err := pm.Register(plugin); err != nil {
		return err
	}
	if err := plugin.Init(params); err != nil {
		pm.mu.Lock()
		delete(pm.plugins, plugin.Name())
		pm.mu.Unlock()
		return fmt.Errorf("插件 %s 初始化失败: %w", plugin.Name(), err)
	}
	return nil
}

func (pm *pluginManagerImpl) Bind(binding PluginBinding) error {
	if binding.PluginName == "" {
		return fmt.Errorf("插件名称不能为空")
	}
	if binding.Event != EventTaskSuccess && binding.Event != EventTaskFailed {
		return fmt.Errorf("不支持的触发事件: %q", binding.Event)
	}

	pm.mu.Lock()
	defer pm.mu.Unlock()
	if _, exists := pm.plugins[binding.PluginName]; !exists {
		return fmt.Errorf("插件 %s 未注册", binding.PluginName)
	}
	pm.bindings[binding.Event] = append(pm.bindings[binding.Event], binding)
	return nil
}

func (pm *pluginManagerImpl) Trigger(ctx context.Context, event TriggerEvent, data PluginData) error {
	pm.mu.RLock()
	bindings := append([]PluginBinding(nil), pm.bindings[event]...)
	pm.mu.RUnlock()

	if len(bindings) == 0 {
		return nil
	}
	data.Event = event

	var errs []error
	for _, binding := range bindings {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if binding.Condition != nil && !binding.Condition(data) {
			continue
		}

		pm.mu.RLock()
		plugin, exists := pm.plugins[binding.PluginName]
		pm.mu.RUnlock()
		if !exists {
			continue
		}

		if err := plugin.Execute(data); err != nil {
			errs = append(errs, fmt.Errorf("插件 %s 执行失败: %w", binding.PluginName, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("触发插件失败: %w", errors.Join(errs...))
	}
	return nil
}

func (pm *pluginManagerImpl) GetPlugin(name string) (Plugin, bool) {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	plugin, exists := pm.plugins[name]
	return plugin, exists
}

func (pm *pluginManagerImpl) ListPlugins() []string {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	names := make([]string, 0, len(pm.plugins))
	for name := range pm.plugins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (pm *pluginManagerImpl) Unregister(name string) error {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if _, exists := pm.plugins[name]; !exists {
		return fmt.Errorf("插件 %s 未注册", name)
	}
	delete(pm.plugins, name)

	for event, bindings := range pm.bindings {
		kept := bindings[:0]
		for _, b := range bindings {
			if b.PluginName != name {
				kept = append(kept, b)
			}
		}
		pm.bindings[event] = kept
	}
	return nil
}
