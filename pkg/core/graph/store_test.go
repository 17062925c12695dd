package graph

import (
	"fmt"
	"sort"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedNotice struct {
	outcome, name, message string
}

type recordingNotifier struct {
	mu      sync.Mutex
	notices []recordedNotice
}

func (r *recordingNotifier) Notify(outcome, taskName, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, recordedNotice{outcome, taskName, message})
}

// assertMirrored 校验邻接表镜像不变量
func assertMirrored(t *testing.T, snap Snapshot) {
	t.Helper()
	for _, a := range snap {
		for _, b := range snap {
			aHasB := countOf(a.Successors, b.ID)
			bHasA := countOf(b.Predecessors, a.ID)
			assert.Equal(t, aHasB, bHasA, "节点%s->%s 邻接表不对称", a.ID, b.ID)
		}
	}
}

func countOf(ids []string, id string) int {
	n := 0
	for _, v := range ids {
		if v == id {
			n++
		}
	}
	return n
}

func edgeKeys(edges []Edge) []string {
	keys := make([]string, 0, len(edges))
	for _, e := range edges {
		keys = append(keys, e.Key())
	}
	sort.Strings(keys)
	return keys
}

func TestStore_InsertAllocatesSequentialIDs(t *testing.T) {
	s := NewStore(nil)
	for i := 0; i < 5; i++ {
		id := s.Insert(fmt.Sprintf("task-%d", i), "", "", DefaultColor)
		assert.Equal(t, strconv.Itoa(i), id)
	}

	snap := s.Snapshot()
	require.Len(t, snap, 5)
	for i, n := range snap {
		assert.Equal(t, strconv.Itoa(i), n.ID)
		assert.Equal(t, StatusIdle, n.Status)
		assert.Empty(t, n.Predecessors)
		assert.Empty(t, n.Successors)
	}
	assert.Empty(t, s.Edges())
}

func TestStore_InsertAfterRemoveExceedsRemainingIDs(t *testing.T) {
	s := NewStore(nil)
	s.Insert("a", "", "", "")
	s.Insert("b", "", "", "")
	s.Insert("c", "", "", "")

	require.True(t, s.Remove("1"))
	id := s.Insert("d", "", "", "")
	assert.Equal(t, "3", id)

	// 删除最大ID后重新分配，新ID仍大于所有剩余ID
	require.True(t, s.Remove("3"))
	id = s.Insert("e", "", "", "")
	assert.Equal(t, "3", id)
	for _, n := range s.Snapshot() {
		if n.ID == id {
			continue
		}
		v, _ := strconv.Atoi(n.ID)
		assert.Less(t, v, 3)
	}
}

func TestStore_NextIDIgnoresNonNumericIDs(t *testing.T) {
	s := NewStore(nil)
	s.Hydrate(Snapshot{{ID: "seed"}, {ID: "7"}})
	assert.Equal(t, "8", s.Insert("x", "", "", ""))
}

func TestStore_ConnectMirrorsAdjacency(t *testing.T) {
	s := NewStore(nil)
	a := s.Insert("a", "", "", "")
	b := s.Insert("b", "", "", "")
	c := s.Insert("c", "", "", "")

	require.True(t, s.Connect(a, b))
	require.True(t, s.Connect(a, c))
	require.True(t, s.Connect(b, c))

	assertMirrored(t, s.Snapshot())
	assert.Equal(t, []string{"0-1", "0-2", "1-2"}, edgeKeys(s.Edges()))
}

func TestStore_ConnectMissingNodeIsNoop(t *testing.T) {
	s := NewStore(nil)
	a := s.Insert("a", "", "", "")

	assert.False(t, s.Connect(a, "42"))
	assert.False(t, s.Connect("42", a))
	n, _ := s.Get(a)
	assert.Empty(t, n.Successors)
	assert.Empty(t, n.Predecessors)
}

func TestStore_ConnectDoesNotRejectSelfLoopOrDuplicates(t *testing.T) {
	s := NewStore(nil)
	a := s.Insert("a", "", "", "")
	b := s.Insert("b", "", "", "")

	assert.True(t, s.Connect(a, a))
	assert.True(t, s.Connect(a, b))
	assert.True(t, s.Connect(a, b))

	n, _ := s.Get(a)
	assert.Equal(t, []string{a, b, b}, n.Successors)
	assertMirrored(t, s.Snapshot())
	// 重复的边在推导时去重
	assert.Equal(t, []string{"0-0", "0-1"}, edgeKeys(s.Edges()))
}

func TestStore_DisconnectRemovesOnePair(t *testing.T) {
	s := NewStore(nil)
	a := s.Insert("a", "", "", "")
	b := s.Insert("b", "", "", "")
	s.Connect(a, b)

	assert.True(t, s.Disconnect(a, b))
	assert.False(t, s.Disconnect(a, b))
	assertMirrored(t, s.Snapshot())
	assert.Empty(t, s.Edges())
}

func TestStore_RemoveCascadesAdjacency(t *testing.T) {
	s := NewStore(nil)
	a := s.Insert("a", "", "", "")
	b := s.Insert("b", "", "", "")
	c := s.Insert("c", "", "", "")
	s.Connect(a, b)
	s.Connect(b, c)
	s.Connect(c, b)

	require.True(t, s.Remove(b))

	snap := s.Snapshot()
	require.Len(t, snap, 2)
	for _, n := range snap {
		assert.NotContains(t, n.Predecessors, b)
		assert.NotContains(t, n.Successors, b)
	}
	for _, e := range s.Edges() {
		assert.NotEqual(t, b, e.Source)
		assert.NotEqual(t, b, e.Target)
	}
	assertMirrored(t, snap)
}

func TestStore_RemoveMissingIsNoop(t *testing.T) {
	s := NewStore(nil)
	s.Insert("a", "", "", "")

	changes := 0
	s.OnChange(func(Change) { changes++ })

	assert.False(t, s.Remove("9"))
	assert.Equal(t, 1, s.Len())
	assert.Zero(t, changes)
}

func TestStore_RandomOperationsKeepMirroring(t *testing.T) {
	s := NewStore(nil)
	for i := 0; i < 8; i++ {
		s.Insert(fmt.Sprintf("t%d", i), "", "", "")
	}
	ops := [][2]int{{0, 1}, {1, 2}, {2, 3}, {0, 3}, {3, 4}, {4, 5}, {5, 6}, {6, 7}, {1, 7}, {2, 2}}
	for _, op := range ops {
		s.Connect(strconv.Itoa(op[0]), strconv.Itoa(op[1]))
		assertMirrored(t, s.Snapshot())
	}
	for _, id := range []string{"3", "0", "7", "3"} {
		s.Remove(id)
		assertMirrored(t, s.Snapshot())
	}
	s.Disconnect("1", "2")
	assertMirrored(t, s.Snapshot())
}

func TestStore_UpdateStatusNotifiesOnTerminalStates(t *testing.T) {
	notifier := &recordingNotifier{}
	s := NewStore(notifier)
	id := s.Insert("Deploy", "", "", "")

	require.True(t, s.UpdateStatus(id, StatusRunning, "10:00:00, 01.01.2026", "", ""))
	assert.Empty(t, notifier.notices)

	require.True(t, s.UpdateStatus(id, StatusFailed, "10:00:00, 01.01.2026", "10:00:02, 01.01.2026", "0x1F2A"))
	require.Len(t, notifier.notices, 1)
	assert.Equal(t, recordedNotice{"failed", "Deploy", "0x1F2A"}, notifier.notices[0])

	n, _ := s.Get(id)
	assert.Equal(t, StatusFailed, n.Status)
	assert.Equal(t, "0x1F2A", n.FailMessage)

	assert.False(t, s.UpdateStatus("99", StatusSuccess, "", "", ""))
	assert.Len(t, notifier.notices, 1)
}

func TestStore_HydrateDefaultsAdjacencyAndSkipsObservers(t *testing.T) {
	s := NewStore(nil)
	changes := 0
	s.OnChange(func(Change) { changes++ })

	s.Hydrate(Snapshot{
		{ID: "0", Name: "Build", Successors: []string{"1"}},
		{ID: "1", Name: "Deploy", Predecessors: []string{"0"}},
	})

	assert.Zero(t, changes)
	n, ok := s.Get("0")
	require.True(t, ok)
	assert.NotNil(t, n.Predecessors)
	assert.Equal(t, []string{"0-1"}, edgeKeys(s.Edges()))
}

func TestStore_SnapshotIsDetached(t *testing.T) {
	s := NewStore(nil)
	a := s.Insert("a", "", "", "")
	b := s.Insert("b", "", "", "")
	s.Connect(a, b)

	snap := s.Snapshot()
	snap[0].Successors[0] = "mutated"
	snap[0].Name = "mutated"

	n, _ := s.Get(a)
	assert.Equal(t, "a", n.Name)
	assert.Equal(t, []string{b}, n.Successors)
}

func TestStore_ObserversSeeEveryMutation(t *testing.T) {
	s := NewStore(nil)
	var kinds []ChangeKind
	s.OnChange(func(c Change) { kinds = append(kinds, c.Kind) })

	a := s.Insert("a", "", "", "")
	b := s.Insert("b", "", "", "")
	s.Connect(a, b)
	s.Move(a, 10, 20)
	s.UpdateStatus(a, StatusRunning, "now", "", "")
	s.Disconnect(a, b)
	s.Remove(b)

	assert.Equal(t, []ChangeKind{
		ChangeInsert, ChangeInsert, ChangeConnect, ChangeMove, ChangeStatus, ChangeDisconnect, ChangeRemove,
	}, kinds)

	n, _ := s.Get(a)
	assert.Equal(t, Position{X: 10, Y: 20}, n.Position)
}

func TestStore_ConcurrentIntents(t *testing.T) {
	s := NewStore(nil)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Insert("t", "", "", "")
		}()
	}
	wg.Wait()

	snap := s.Snapshot()
	require.Len(t, snap, 50)
	seen := make(map[string]bool)
	for _, n := range snap {
		assert.False(t, seen[n.ID], "重复ID %s", n.ID)
		seen[n.ID] = true
	}
}

// Build/Deploy 场景（执行部分在executor包中测试）
func TestStore_BuildDeployScenario(t *testing.T) {
	s := NewStore(nil)

	build := s.Insert("Build", "Ada", "CI", "#525ee1")
	assert.Equal(t, "0", build)
	n, _ := s.Get(build)
	assert.Equal(t, StatusIdle, n.Status)
	assert.Empty(t, s.Edges())

	deploy := s.Insert("Deploy", "Ada", "CI", "#525ee1")
	assert.Equal(t, "1", deploy)

	require.True(t, s.Connect(build, deploy))
	n0, _ := s.Get(build)
	n1, _ := s.Get(deploy)
	assert.Equal(t, []string{"1"}, n0.Successors)
	assert.Equal(t, []string{"0"}, n1.Predecessors)
	assert.Equal(t, []Edge{{Source: "0", Target: "1"}}, s.Edges())

	require.True(t, s.Remove(build))
	n1, _ = s.Get(deploy)
	assert.Empty(t, n1.Predecessors)
	assert.Empty(t, s.Edges())
}
