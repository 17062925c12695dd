// Package mysql MySQL方言
package mysql

import (
	_ "github.com/go-sql-driver/mysql"

	"github.com/LENAX/task-graph/pkg/storage"
	"github.com/LENAX/task-graph/pkg/storage/sqlstore"
)

// MySQLDialect MySQL方言实现
type MySQLDialect struct{}

// NewMySQLDialect 创建MySQL方言实例
func NewMySQLDialect() *MySQLDialect {
	return &MySQLDialect{}
}

// Open 打开MySQL任务库
func Open(dsn string, pool sqlstore.PoolOptions) (*sqlstore.TaskRepo, error) {
	return sqlstore.Open(NewMySQLDialect(), dsn, pool)
}

// Name 返回方言名称
func (d *MySQLDialect) Name() string {
	return "mysql"
}

// DriverName 返回驱动名
func (d *MySQLDialect) DriverName() string {
	return "mysql"
}

// AutoIncrementKeyword 返回MySQL自增关键字
func (d *MySQLDialect) AutoIncrementKeyword() string {
	return "BIGINT PRIMARY KEY AUTO_INCREMENT"
}

// KeyType MySQL的TEXT不能直接建唯一索引
func (d *MySQLDialect) KeyType() string {
	return "VARCHAR(64)"
}

// TextType 返回MySQL文本类型
func (d *MySQLDialect) TextType() string {
	return "TEXT"
}

// FloatType 返回MySQL浮点类型
func (d *MySQLDialect) FloatType() string {
	return "DOUBLE"
}

// ConfigureDB 返回MySQL会话配置
func (d *MySQLDialect) ConfigureDB() []string {
	return []string{
		"SET NAMES utf8mb4;",
	}
}

var _ storage.Dialect = (*MySQLDialect)(nil)
