package config

import (
	"time"
)

// Config task-graph配置（服务端与看板客户端共用一个文件）
type Config struct {
	TaskGraph struct {
		Server      ServerConfig      `yaml:"server"`
		Storage     StorageConfig     `yaml:"storage"`
		Maintenance MaintenanceConfig `yaml:"maintenance"`
		Board       BoardConfig       `yaml:"board"`
		Notify      NotifyConfig      `yaml:"notify"`
	} `yaml:"task-graph"`
}

// ServerConfig 权威任务服务的HTTP配置
type ServerConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
}

// StorageConfig 存储配置
type StorageConfig struct {
	Database struct {
		Type            string        `yaml:"type"`
		DSN             string        `yaml:"dsn"`
		MaxOpenConns    int           `yaml:"max_open_conns"`
		MaxIdleConns    int           `yaml:"max_idle_conns"`
		ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
		ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
	} `yaml:"database"`
	Cache struct {
		Enabled       bool          `yaml:"enabled"`
		DefaultTTL    time.Duration `yaml:"default_ttl"`
		CleanInterval time.Duration `yaml:"clean_interval"`
	} `yaml:"cache"`
}

// MaintenanceConfig 定时维护任务配置
type MaintenanceConfig struct {
	Enabled    bool   `yaml:"enabled"`
	HealthCron string `yaml:"health_cron"` // 支持秒级的cron表达式或@every
}

// BoardConfig 看板客户端配置
type BoardConfig struct {
	ServerURL string        `yaml:"server_url"`
	WSURL     string        `yaml:"ws_url"`
	Debounce  time.Duration `yaml:"debounce"`
	Simulator struct {
		MaxDuration time.Duration `yaml:"max_duration"`
		Seed        int64         `yaml:"seed"`
	} `yaml:"simulator"`
}

// NotifyConfig 执行结果通知配置
type NotifyConfig struct {
	Console bool `yaml:"console"`
	Email   struct {
		Enabled  bool   `yaml:"enabled"`
		SMTPHost string `yaml:"smtp_host"`
		SMTPPort int    `yaml:"smtp_port"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		From     string `yaml:"from"`
		To       string `yaml:"to"`
	} `yaml:"email"`
}

// Default 返回填充了默认值的配置
func Default() *Config {
	cfg := &Config{}
	cfg.TaskGraph.Maintenance.Enabled = true
	cfg.TaskGraph.Notify.Console = true
	cfg.ApplyDefaults()
	return cfg
}

// Server 服务端配置
func (c *Config) Server() ServerConfig {
	return c.TaskGraph.Server
}

// Board 看板配置
func (c *Config) Board() BoardConfig {
	return c.TaskGraph.Board
}

// GetDatabaseType 获取数据库类型
func (c *Config) GetDatabaseType() string {
	return c.TaskGraph.Storage.Database.Type
}

// GetDatabaseDSN 获取数据库DSN
func (c *Config) GetDatabaseDSN() string {
	return c.TaskGraph.Storage.Database.DSN
}

// Addr 服务监听地址
func (s ServerConfig) Addr() string {
	return joinHostPort(s.Host, s.Port)
}

// ApplyDefaults 应用默认值
func (c *Config) ApplyDefaults() {
	srv := &c.TaskGraph.Server
	if srv.Host == "" {
		srv.Host = "0.0.0.0"
	}
	if srv.Port <= 0 {
		srv.Port = 8080
	}
	if srv.ReadTimeout <= 0 {
		srv.ReadTimeout = 30 * time.Second
	}
	if srv.WriteTimeout <= 0 {
		srv.WriteTimeout = 30 * time.Second
	}
	if len(srv.AllowedOrigins) == 0 {
		srv.AllowedOrigins = []string{"http://localhost:3000"}
	}

	db := &c.TaskGraph.Storage.Database
	if db.Type == "" {
		db.Type = "sqlite"
	}
	if db.DSN == "" && db.Type == "sqlite" {
		db.DSN = "./task-graph.db"
	}
	if db.MaxOpenConns <= 0 {
		db.MaxOpenConns = 10
	}
	if db.MaxIdleConns <= 0 {
		db.MaxIdleConns = 5
	}
	if db.ConnMaxLifetime <= 0 {
		db.ConnMaxLifetime = 2 * time.Hour
	}
	if db.ConnMaxIdleTime <= 0 {
		db.ConnMaxIdleTime = 1 * time.Hour
	}

	cache := &c.TaskGraph.Storage.Cache
	if cache.DefaultTTL <= 0 {
		cache.DefaultTTL = 1 * time.Hour
	}
	if cache.CleanInterval <= 0 {
		cache.CleanInterval = 30 * time.Minute
	}

	if c.TaskGraph.Maintenance.HealthCron == "" {
		c.TaskGraph.Maintenance.HealthCron = "@every 1m"
	}

	board := &c.TaskGraph.Board
	if board.ServerURL == "" {
		board.ServerURL = "http://localhost:8080"
	}
	if board.Debounce <= 0 {
		board.Debounce = 500 * time.Millisecond
	}
	if board.Simulator.MaxDuration <= 0 {
		board.Simulator.MaxDuration = 5 * time.Second
	}

	if c.TaskGraph.Notify.Email.SMTPPort <= 0 {
		c.TaskGraph.Notify.Email.SMTPPort = 25
	}
}
