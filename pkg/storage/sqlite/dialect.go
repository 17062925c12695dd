// Package sqlite SQLite方言（默认存储）
package sqlite

import (
	_ "github.com/mattn/go-sqlite3"

	"github.com/LENAX/task-graph/pkg/storage"
	"github.com/LENAX/task-graph/pkg/storage/sqlstore"
)

// SQLiteDialect SQLite方言实现
type SQLiteDialect struct{}

// NewSQLiteDialect 创建SQLite方言实例
func NewSQLiteDialect() *SQLiteDialect {
	return &SQLiteDialect{}
}

// Open 打开SQLite任务库
func Open(dsn string, pool sqlstore.PoolOptions) (*sqlstore.TaskRepo, error) {
	return sqlstore.Open(NewSQLiteDialect(), dsn, pool)
}

// Name 返回方言名称
func (d *SQLiteDialect) Name() string {
	return "sqlite"
}

// DriverName 返回驱动名
func (d *SQLiteDialect) DriverName() string {
	return "sqlite3"
}

// AutoIncrementKeyword 返回SQLite自增关键字
func (d *SQLiteDialect) AutoIncrementKeyword() string {
	return "INTEGER PRIMARY KEY AUTOINCREMENT"
}

// KeyType SQLite的TEXT可以直接建唯一索引
func (d *SQLiteDialect) KeyType() string {
	return "TEXT"
}

// TextType 返回SQLite文本类型
func (d *SQLiteDialect) TextType() string {
	return "TEXT"
}

// FloatType 返回SQLite浮点类型
func (d *SQLiteDialect) FloatType() string {
	return "REAL"
}

// ConfigureDB 返回SQLite配置SQL
func (d *SQLiteDialect) ConfigureDB() []string {
	return []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA busy_timeout=30000;",
		"PRAGMA synchronous=NORMAL;",
	}
}

var _ storage.Dialect = (*SQLiteDialect)(nil)
