// Package postgres PostgreSQL方言
package postgres

import (
	_ "github.com/lib/pq"

	"github.com/LENAX/task-graph/pkg/storage"
	"github.com/LENAX/task-graph/pkg/storage/sqlstore"
)

// PostgresDialect PostgreSQL方言实现
type PostgresDialect struct{}

// NewPostgresDialect 创建PostgreSQL方言实例
func NewPostgresDialect() *PostgresDialect {
	return &PostgresDialect{}
}

// Open 打开PostgreSQL任务库
func Open(dsn string, pool sqlstore.PoolOptions) (*sqlstore.TaskRepo, error) {
	return sqlstore.Open(NewPostgresDialect(), dsn, pool)
}

// Name 返回方言名称
func (d *PostgresDialect) Name() string {
	return "postgres"
}

// DriverName 返回驱动名（sqlx据此使用$1, $2占位符）
func (d *PostgresDialect) DriverName() string {
	return "postgres"
}

// AutoIncrementKeyword 返回PostgreSQL自增关键字
func (d *PostgresDialect) AutoIncrementKeyword() string {
	return "BIGSERIAL PRIMARY KEY"
}

// KeyType 返回任务ID列类型
func (d *PostgresDialect) KeyType() string {
	return "VARCHAR(64)"
}

// TextType 返回PostgreSQL文本类型
func (d *PostgresDialect) TextType() string {
	return "TEXT"
}

// FloatType 返回PostgreSQL浮点类型
func (d *PostgresDialect) FloatType() string {
	return "DOUBLE PRECISION"
}

// ConfigureDB 返回PostgreSQL配置SQL
func (d *PostgresDialect) ConfigureDB() []string {
	return []string{
		"SET timezone = 'UTC';",
	}
}

var _ storage.Dialect = (*PostgresDialect)(nil)
