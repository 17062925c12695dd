package app

import (
	"io"
	"strconv"

	"github.com/LENAX/task-graph/pkg/config"
	"github.com/LENAX/task-graph/pkg/plugin"
)

// NewSink 按通知配置组装插件：控制台插件接收全部结果，邮件插件只接收失败
func NewSink(cfg config.NotifyConfig, out io.Writer) (*plugin.PluginSink, error) {
	manager := plugin.NewPluginManager()

	if cfg.Console {
		console := plugin.NewConsolePlugin(out)
		if err := manager.RegisterWithInit(console, nil); err != nil {
			return nil, err
		}
		for _, event := range []plugin.TriggerEvent{plugin.EventTaskSuccess, plugin.EventTaskFailed} {
			if err := manager.Bind(plugin.PluginBinding{PluginName: console.Name(), Event: event}); err != nil {
				return nil, err
			}
		}
	}

	if email := cfg.Email; email.Enabled {
		emailPlugin := plugin.NewEmailPlugin()
		err := manager.RegisterWithInit(emailPlugin, map[string]string{
			"smtp_host": email.SMTPHost,
			"smtp_port": strconv.Itoa(email.SMTPPort),
			"username":  email.Username,
			"password":  email.Password,
			"from":      email.From,
			"to":        email.To,
		})
		if err != nil {
			return nil, err
		}
		if err := manager.Bind(plugin.PluginBinding{PluginName: emailPlugin.Name(), Event: plugin.EventTaskFailed}); err != nil {
			return nil, err
		}
	}

	return plugin.NewPluginSink(manager), nil
}
