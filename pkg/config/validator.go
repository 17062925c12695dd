package config

import (
	"fmt"
	"net/url"
)

// Validate 校验配置合法性（在ApplyDefaults之后调用）
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("配置不能为空")
	}
	if err := ValidateServerConfig(cfg); err != nil {
		return err
	}
	return ValidateBoardConfig(cfg.TaskGraph.Board)
}

// ValidateServerConfig 校验服务端配置
func ValidateServerConfig(cfg *Config) error {
	srv := cfg.TaskGraph.Server
	if srv.Port <= 0 || srv.Port > 65535 {
		return fmt.Errorf("server.port必须在1-65535之间")
	}

	db := cfg.TaskGraph.Storage.Database
	validDBTypes := map[string]bool{
		"sqlite":     true,
		"sqlite3":    true,
		"postgres":   true,
		"postgresql": true,
		"mysql":      true,
	}
	if !validDBTypes[db.Type] {
		return fmt.Errorf("database.type必须是sqlite/postgres/mysql之一")
	}
	if db.DSN == "" {
		return fmt.Errorf("database.dsn不能为空")
	}
	if db.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns不能为负数")
	}

	email := cfg.TaskGraph.Notify.Email
	if email.Enabled {
		if email.SMTPHost == "" {
			return fmt.Errorf("notify.email.smtp_host不能为空")
		}
		if email.From == "" || email.To == "" {
			return fmt.Errorf("notify.email.from和to不能为空")
		}
	}
	return nil
}

// ValidateBoardConfig 校验看板客户端配置
func ValidateBoardConfig(board BoardConfig) error {
	u, err := url.Parse(board.ServerURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("board.server_url必须是http(s)地址: %q", board.ServerURL)
	}
	if board.WSURL != "" {
		w, err := url.Parse(board.WSURL)
		if err != nil || (w.Scheme != "ws" && w.Scheme != "wss") {
			return fmt.Errorf("board.ws_url必须是ws(s)地址: %q", board.WSURL)
		}
	}
	if board.Debounce <= 0 {
		return fmt.Errorf("board.debounce必须大于0")
	}
	if board.Simulator.MaxDuration <= 0 {
		return fmt.Errorf("board.simulator.max_duration必须大于0")
	}
	return nil
}
