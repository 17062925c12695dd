package plugin

import "fmt"

// FuncPlugin 把回调函数包装成插件，用于自定义通知或测试
type FuncPlugin struct {
	name string
	fn   func(PluginData) error
}

// NewFuncPlugin 创建回调插件
func NewFuncPlugin(name string, fn func(PluginData) error) *FuncPlugin {
	return &FuncPlugin{name: name, fn: fn}
}

// Name 插件名称
func (f *FuncPlugin) Name() string {
	return f.name
}

// Init 回调插件不需要参数
func (f *FuncPlugin) Init(map[string]string) error {
	if f.fn == nil {
		return fmt.Errorf("回调函数不能为空")
	}
	return nil
}

// Execute 调用回调
func (f *FuncPlugin) Execute(data interface{}) error {
	pluginData, ok := data.(PluginData)
	if !ok {
		return fmt.Errorf("插件数据类型错误")
	}
	return f.fn(pluginData)
}
