// Package storage 按配置创建任务表Repository
package storage

import (
	"fmt"

	"github.com/LENAX/task-graph/pkg/config"
	"github.com/LENAX/task-graph/pkg/storage"
	"github.com/LENAX/task-graph/pkg/storage/mysql"
	"github.com/LENAX/task-graph/pkg/storage/postgres"
	"github.com/LENAX/task-graph/pkg/storage/sqlite"
	"github.com/LENAX/task-graph/pkg/storage/sqlstore"
)

// NewTaskRepository 根据数据库类型创建TaskRepository
// dbType: sqlite/mysql/postgres
func NewTaskRepository(dbType, dsn string, pool sqlstore.PoolOptions) (storage.TaskRepository, error) {
	var (
		repo *sqlstore.TaskRepo
		err  error
	)
	switch dbType {
	case "sqlite", "sqlite3":
		repo, err = sqlite.Open(dsn, pool)
	case "mysql":
		repo, err = mysql.Open(dsn, pool)
	case "postgres", "postgresql":
		repo, err = postgres.Open(dsn, pool)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", dbType)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s repository failed: %w", dbType, err)
	}
	return repo, nil
}

// NewTaskRepositoryFromConfig 根据配置创建TaskRepository
func NewTaskRepositoryFromConfig(cfg *config.Config) (storage.TaskRepository, error) {
	db := cfg.TaskGraph.Storage.Database
	return NewTaskRepository(db.Type, db.DSN, sqlstore.PoolOptions{
		MaxOpenConns:    db.MaxOpenConns,
		MaxIdleConns:    db.MaxIdleConns,
		ConnMaxLifetime: db.ConnMaxLifetime,
		ConnMaxIdleTime: db.ConnMaxIdleTime,
	})
}
