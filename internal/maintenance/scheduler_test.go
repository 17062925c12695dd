package maintenance

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LENAX/task-graph/pkg/core/graph"
)

// fakeRepo 只实现健康检查用到的行为
type fakeRepo struct {
	count   int
	pingErr error
	pings   atomic.Int32
}

func (f *fakeRepo) ListTasks(ctx context.Context) ([]graph.Node, error) { return nil, nil }
func (f *fakeRepo) GetTask(ctx context.Context, id string) (graph.Node, error) {
	return graph.Node{}, nil
}
func (f *fakeRepo) ReplaceAll(ctx context.Context, nodes []graph.Node) error { return nil }
func (f *fakeRepo) CountTasks(ctx context.Context) (int, error)            { return f.count, nil }
func (f *fakeRepo) Ping(ctx context.Context) error {
	f.pings.Add(1)
	return f.pingErr
}
func (f *fakeRepo) Close() error { return nil }

type fakePurger struct{ calls atomic.Int32 }

func (p *fakePurger) Purge() int {
	p.calls.Add(1)
	return 2
}

func TestValidateExpr(t *testing.T) {
	assert.NoError(t, ValidateExpr("@every 1m"))
	assert.NoError(t, ValidateExpr("*/5 * * * *"))
	assert.NoError(t, ValidateExpr("0 */5 * * * *"))
	assert.Error(t, ValidateExpr("not a cron"))
}

func TestScheduler_RegisterRejectsInvalidAndDuplicate(t *testing.T) {
	s := NewScheduler(&fakeRepo{})

	assert.Error(t, s.RegisterHealthCheck("bogus"))
	require.NoError(t, s.RegisterHealthCheck("@every 1m"))
	assert.Error(t, s.RegisterHealthCheck("@every 1m"))
	assert.Equal(t, []string{JobHealthCheck}, s.Jobs())
}

func TestScheduler_TriggerHealthCheck(t *testing.T) {
	repo := &fakeRepo{count: 3}
	s := NewScheduler(repo)
	require.NoError(t, s.RegisterHealthCheck("@every 1h"))

	require.NoError(t, s.Trigger(JobHealthCheck))
	report := s.LastReport()
	assert.Equal(t, 3, report.TaskCount)
	assert.NoError(t, report.Err)
	assert.False(t, report.CheckedAt.IsZero())

	repo.pingErr = errors.New("connection refused")
	assert.Error(t, s.Trigger(JobHealthCheck))
	assert.ErrorContains(t, s.LastReport().Err, "connection refused")

	assert.Error(t, s.Trigger("unknown"))
}

func TestScheduler_CachePurge(t *testing.T) {
	purger := &fakePurger{}
	s := NewScheduler(&fakeRepo{})
	require.NoError(t, s.RegisterCachePurge("@every 1h", purger))

	require.NoError(t, s.Trigger(JobCachePurge))
	assert.Equal(t, int32(1), purger.calls.Load())
}

func TestScheduler_RunFiresOnSchedule(t *testing.T) {
	repo := &fakeRepo{count: 1}
	s := NewScheduler(repo)
	require.NoError(t, s.RegisterHealthCheck("* * * * * *"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	assert.Eventually(t, func() bool { return repo.pings.Load() > 0 }, 3*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("调度器没有停止")
	}
}
