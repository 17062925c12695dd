package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LENAX/task-graph/pkg/config"
	"github.com/LENAX/task-graph/pkg/storage/sqlstore"
)

func TestNewTaskRepository_Unsupported(t *testing.T) {
	_, err := NewTaskRepository("oracle", "x", sqlstore.PoolOptions{})
	assert.Error(t, err)
}

func TestNewTaskRepositoryFromConfig_SQLite(t *testing.T) {
	cfg := config.Default()
	cfg.TaskGraph.Storage.Database.DSN = filepath.Join(t.TempDir(), "factory.db")

	repo, err := NewTaskRepositoryFromConfig(cfg)
	require.NoError(t, err)
	defer repo.Close()

	n, err := repo.CountTasks(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}
