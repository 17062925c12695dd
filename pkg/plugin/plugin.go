// Package plugin 提供任务执行结果的通知插件以及把插件管理器适配为通知接收方的Sink
package plugin

// Plugin 插件基础接口
type Plugin interface {
	// Name 插件名称
	Name() string
	// Init 初始化插件
	Init(params map[string]string) error
	// Execute 执行插件逻辑，data为PluginData
	Execute(data interface{}) error
}
