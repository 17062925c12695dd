// Package sqlstore 基于sqlx的TaskRepository实现，方言差异由storage.Dialect提供
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/LENAX/task-graph/pkg/core/graph"
	"github.com/LENAX/task-graph/pkg/storage"
	"github.com/LENAX/task-graph/pkg/storage/dao"
)

// PoolOptions 连接池参数，零值表示使用驱动默认值
type PoolOptions struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// TaskRepo TaskRepository的SQL实现
type TaskRepo struct {
	db      *sqlx.DB
	dialect storage.Dialect

	selectSQL string
	insertSQL string
}

// Open 通过DSN打开数据库并初始化表结构
func Open(dialect storage.Dialect, dsn string, pool PoolOptions) (*TaskRepo, error) {
	db, err := sqlx.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("打开数据库失败: %w", err)
	}
	if pool.MaxOpenConns > 0 {
		db.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		db.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(pool.ConnMaxLifetime)
	}
	if pool.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(pool.ConnMaxIdleTime)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("数据库连接失败: %w", err)
	}

	repo, err := New(db, dialect)
	if err != nil {
		db.Close()
		return nil, err
	}
	return repo, nil
}

// New 基于已有连接创建Repository
func New(db *sqlx.DB, dialect storage.Dialect) (*TaskRepo, error) {
	for _, stmt := range dialect.ConfigureDB() {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("配置%s失败: %w", dialect.Name(), err)
		}
	}

	placeholders := make([]string, len(dao.TaskColumns))
	for i, col := range dao.TaskColumns {
		placeholders[i] = ":" + col
	}
	repo := &TaskRepo{
		db:        db,
		dialect:   dialect,
		selectSQL: "SELECT " + strings.Join(dao.TaskColumns, ", ") + " FROM tasks",
		insertSQL: fmt.Sprintf("INSERT INTO tasks (%s) VALUES (%s)",
			strings.Join(dao.TaskColumns, ", "), strings.Join(placeholders, ", ")),
	}
	if err := repo.initSchema(); err != nil {
		return nil, fmt.Errorf("初始化表结构失败: %w", err)
	}
	return repo, nil
}

// Schema tasks表DDL
func Schema(d storage.Dialect) string {
	text := d.TextType()
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS tasks (
		id %s,
		task_id %s NOT NULL UNIQUE,
		task_name %s,
		task_employee %s,
		task_category %s,
		task_status %s,
		task_start %s,
		task_end %s,
		task_color %s,
		task_fail_message %s,
		task_x_pos %s,
		task_y_pos %s,
		target_for %s,
		source_for %s
	)`, d.AutoIncrementKeyword(), d.KeyType(),
		text, text, text, text, text, text, text, text,
		d.FloatType(), d.FloatType(), text, text)
}

func (r *TaskRepo) initSchema() error {
	_, err := r.db.Exec(Schema(r.dialect))
	return err
}

// DB 底层连接
func (r *TaskRepo) DB() *sqlx.DB {
	return r.db
}

// Dialect 当前方言
func (r *TaskRepo) Dialect() storage.Dialect {
	return r.dialect
}

// ListTasks 实现TaskRepository
func (r *TaskRepo) ListTasks(ctx context.Context) ([]graph.Node, error) {
	var rows []dao.TaskDAO
	if err := r.db.SelectContext(ctx, &rows, r.selectSQL+" ORDER BY id"); err != nil {
		return nil, fmt.Errorf("查询任务列表失败: %w", err)
	}

	nodes := make([]graph.Node, 0, len(rows))
	for _, row := range rows {
		nodes = append(nodes, row.ToNode())
	}
	return nodes, nil
}

// GetTask 实现TaskRepository
func (r *TaskRepo) GetTask(ctx context.Context, taskID string) (graph.Node, error) {
	var row dao.TaskDAO
	query := r.db.Rebind(r.selectSQL + " WHERE task_id = ?")
	if err := r.db.GetContext(ctx, &row, query, taskID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return graph.Node{}, storage.ErrTaskNotFound
		}
		return graph.Node{}, fmt.Errorf("查询任务失败: %w", err)
	}
	return row.ToNode(), nil
}

// ReplaceAll 实现TaskRepository，整个覆盖在一个事务内完成
func (r *TaskRepo) ReplaceAll(ctx context.Context, nodes []graph.Node) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("开启事务失败: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM tasks"); err != nil {
		return fmt.Errorf("清空任务表失败: %w", err)
	}
	for _, n := range nodes {
		if _, err := tx.NamedExecContext(ctx, r.insertSQL, dao.FromNode(n)); err != nil {
			return fmt.Errorf("写入任务 %s 失败: %w", n.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("提交事务失败: %w", err)
	}
	return nil
}

// CountTasks 实现TaskRepository
func (r *TaskRepo) CountTasks(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM tasks"); err != nil {
		return 0, fmt.Errorf("统计任务数量失败: %w", err)
	}
	return n, nil
}

// Ping 实现TaskRepository
func (r *TaskRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close 实现TaskRepository
func (r *TaskRepo) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

var _ storage.TaskRepository = (*TaskRepo)(nil)
