package storage_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/LENAX/task-graph/pkg/storage/mysql"
	"github.com/LENAX/task-graph/pkg/storage/postgres"
	"github.com/LENAX/task-graph/pkg/storage/sqlstore"
)

func TestSchema_MySQL(t *testing.T) {
	ddl := sqlstore.Schema(mysql.NewMySQLDialect())
	assert.Contains(t, ddl, "AUTO_INCREMENT")
	assert.Contains(t, ddl, "task_id VARCHAR(64) NOT NULL UNIQUE")
	assert.Contains(t, ddl, "task_y_pos DOUBLE")
}

func TestSchema_Postgres(t *testing.T) {
	d := postgres.NewPostgresDialect()
	ddl := sqlstore.Schema(d)
	assert.Contains(t, ddl, "BIGSERIAL PRIMARY KEY")
	assert.Contains(t, ddl, "DOUBLE PRECISION")
	assert.Equal(t, "postgres", d.DriverName())
}
