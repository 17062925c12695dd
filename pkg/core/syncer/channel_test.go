package syncer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LENAX/task-graph/pkg/api/dto"
	"github.com/LENAX/task-graph/pkg/core/graph"
)

// fakeAuthority 模拟权威任务服务
type fakeAuthority struct {
	server   *httptest.Server
	upgrader websocket.Upgrader

	mu      sync.Mutex
	records []dto.TaskRecord
	conns   []*websocket.Conn

	updates chan dto.UpdateMessage
	listErr atomic.Bool
}

func newFakeAuthority(t *testing.T, records []dto.TaskRecord) *fakeAuthority {
	t.Helper()
	f := &fakeAuthority{
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		records:  records,
		updates:  make(chan dto.UpdateMessage, 16),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/tasks", func(w http.ResponseWriter, r *http.Request) {
		if f.listErr.Load() {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		_ = json.NewEncoder(w).Encode(dto.NewSuccessResponse(f.records))
	})
	mux.HandleFunc("/api/v1/tasks/", func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Path[len("/api/v1/tasks/"):]
		f.mu.Lock()
		defer f.mu.Unlock()
		for _, rec := range f.records {
			if rec.TaskID == id {
				_ = json.NewEncoder(w).Encode(dto.NewSuccessResponse(rec))
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(dto.NewErrorResponse(404, "task not found"))
	})
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := f.upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		f.mu.Lock()
		f.conns = append(f.conns, conn)
		f.mu.Unlock()

		for {
			var msg dto.UpdateMessage
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			f.updates <- msg
		}
	})

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeAuthority) broadcast(t *testing.T, payload string) {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.conns {
		require.NoError(t, c.WriteMessage(websocket.TextMessage, []byte(payload)))
	}
}

func (f *fakeAuthority) nextUpdate(t *testing.T) dto.UpdateMessage {
	t.Helper()
	select {
	case msg := <-f.updates:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("没有收到推送")
		return dto.UpdateMessage{}
	}
}

func (f *fakeAuthority) noUpdate(t *testing.T, wait time.Duration) {
	t.Helper()
	select {
	case msg := <-f.updates:
		t.Fatalf("不应收到推送: %+v", msg)
	case <-time.After(wait):
	}
}

func strPtr(s string) *string { return &s }

func seedRecords() []dto.TaskRecord {
	return []dto.TaskRecord{
		{TaskID: "0", TaskName: "Build", TaskColor: graph.DefaultColor, SourceFor: []string{"1"}},
		{TaskID: "1", TaskName: "Deploy", TaskStatus: "failed", TaskFailMessage: strPtr("0x1F2A"), TargetFor: []string{"0"}},
	}
}

func TestChannel_LoadHydratesSnapshot(t *testing.T) {
	f := newFakeAuthority(t, seedRecords())
	store := graph.NewStore(nil)
	ch := NewChannel(Config{BaseURL: f.server.URL}, store)

	snap, err := ch.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, snap, 2)

	store.Hydrate(snap)
	assert.Equal(t, []graph.Edge{{Source: "0", Target: "1"}}, store.Edges())
	n, _ := store.Get("1")
	assert.Equal(t, graph.StatusFailed, n.Status)
	assert.Equal(t, "0x1F2A", n.FailMessage)
	assert.Empty(t, n.Start)
}

func TestChannel_LoadFailureIsReturned(t *testing.T) {
	f := newFakeAuthority(t, nil)
	f.listErr.Store(true)
	ch := NewChannel(Config{BaseURL: f.server.URL}, graph.NewStore(nil))

	snap, err := ch.Load(context.Background())
	assert.Error(t, err)
	assert.Nil(t, snap)
}

func TestChannel_FetchTask(t *testing.T) {
	f := newFakeAuthority(t, seedRecords())
	ch := NewChannel(Config{BaseURL: f.server.URL}, nil)

	n, err := ch.FetchTask(context.Background(), "0")
	require.NoError(t, err)
	assert.Equal(t, "Build", n.Name)
	assert.Equal(t, []string{"1"}, n.Successors)

	_, err = ch.FetchTask(context.Background(), "42")
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestChannel_PushWithoutConnection(t *testing.T) {
	ch := NewChannel(Config{BaseURL: "http://127.0.0.1:1"}, nil)
	assert.ErrorIs(t, ch.Push(graph.Snapshot{}), ErrNotConnected)
}

func TestChannel_DebounceCollapsesToLatestSnapshot(t *testing.T) {
	f := newFakeAuthority(t, nil)
	store := graph.NewStore(nil)
	ch := NewChannel(Config{BaseURL: f.server.URL, Debounce: 80 * time.Millisecond}, store)
	require.NoError(t, ch.Open(context.Background()))
	t.Cleanup(func() { _ = ch.Close() })

	// M1..M3 在窗口内连续发生
	store.Insert("M1", "", "", "")
	ch.SchedulePush()
	store.Insert("M2", "", "", "")
	ch.SchedulePush()
	store.Insert("M3", "", "", "")
	ch.SchedulePush()

	msg := f.nextUpdate(t)
	assert.Equal(t, dto.MessageTypeUpdate, msg.Type)
	require.Len(t, msg.Payload.Nodes, 3)
	assert.Equal(t, "M3", msg.Payload.Nodes[2].TaskName)

	f.noUpdate(t, 200*time.Millisecond)
}

func TestChannel_SeparateWindowsProduceSeparatePushes(t *testing.T) {
	f := newFakeAuthority(t, nil)
	store := graph.NewStore(nil)
	ch := NewChannel(Config{BaseURL: f.server.URL, Debounce: 30 * time.Millisecond}, store)
	require.NoError(t, ch.Open(context.Background()))
	t.Cleanup(func() { _ = ch.Close() })

	store.Insert("a", "", "", "")
	ch.SchedulePush()
	assert.Len(t, f.nextUpdate(t).Payload.Nodes, 1)

	store.Insert("b", "", "", "")
	ch.SchedulePush()
	assert.Len(t, f.nextUpdate(t).Payload.Nodes, 2)
}

func TestChannel_FlushSendsImmediately(t *testing.T) {
	f := newFakeAuthority(t, nil)
	store := graph.NewStore(nil)
	ch := NewChannel(Config{BaseURL: f.server.URL, Debounce: time.Hour}, store)
	require.NoError(t, ch.Open(context.Background()))
	t.Cleanup(func() { _ = ch.Close() })

	assert.False(t, ch.Flush())

	store.Insert("a", "", "", "")
	ch.SchedulePush()
	assert.True(t, ch.PendingPush())
	assert.True(t, ch.Flush())
	assert.False(t, ch.PendingPush())

	msg := f.nextUpdate(t)
	assert.Len(t, msg.Payload.Nodes, 1)
}

func TestChannel_CloseCancelsPendingPush(t *testing.T) {
	f := newFakeAuthority(t, nil)
	store := graph.NewStore(nil)
	ch := NewChannel(Config{BaseURL: f.server.URL, Debounce: 50 * time.Millisecond}, store)
	require.NoError(t, ch.Open(context.Background()))

	store.Insert("a", "", "", "")
	ch.SchedulePush()
	require.NoError(t, ch.Close())

	f.noUpdate(t, 150*time.Millisecond)
	assert.False(t, ch.Connected())

	// 关闭之后的调度被拒绝
	ch.SchedulePush()
	assert.False(t, ch.PendingPush())
	assert.ErrorIs(t, ch.Open(context.Background()), ErrClosed)
}

func TestChannel_InboundMessagesAreDeliveredButNotMerged(t *testing.T) {
	f := newFakeAuthority(t, nil)
	store := graph.NewStore(nil)
	ch := NewChannel(Config{BaseURL: f.server.URL}, store)

	received := make(chan []byte, 1)
	ch.OnMessage(func(b []byte) { received <- b })
	require.NoError(t, ch.Open(context.Background()))
	t.Cleanup(func() { _ = ch.Close() })

	require.Eventually(t, func() bool {
		f.mu.Lock()
		defer f.mu.Unlock()
		return len(f.conns) == 1
	}, time.Second, 10*time.Millisecond)

	f.broadcast(t, `{"type":"graph.updated"}`)

	select {
	case b := <-received:
		assert.JSONEq(t, `{"type":"graph.updated"}`, string(b))
	case <-time.After(2 * time.Second):
		t.Fatal("没有收到入站消息")
	}
	assert.Zero(t, store.Len())
}

func TestChannel_WireFormat(t *testing.T) {
	f := newFakeAuthority(t, nil)
	store := graph.NewStore(nil)
	ch := NewChannel(Config{BaseURL: f.server.URL}, store)
	require.NoError(t, ch.Open(context.Background()))
	t.Cleanup(func() { _ = ch.Close() })

	a := store.Insert("Build", "Ada", "CI", graph.DefaultColor)
	b := store.Insert("Deploy", "Ada", "CI", graph.DefaultColor)
	store.Connect(a, b)
	store.Move(b, 120, 40)

	require.NoError(t, ch.Push(store.Snapshot()))
	msg := f.nextUpdate(t)
	require.Len(t, msg.Payload.Nodes, 2)

	deploy := msg.Payload.Nodes[1]
	assert.Equal(t, "1", deploy.TaskID)
	assert.Equal(t, "Ada", deploy.TaskEmployee)
	assert.Equal(t, "CI", deploy.TaskCategory)
	assert.Equal(t, []string{"0"}, deploy.TargetFor)
	assert.Empty(t, deploy.SourceFor)
	assert.Equal(t, 120.0, deploy.X)
	assert.Nil(t, deploy.TaskStart)
	assert.Nil(t, deploy.TaskFailMessage)
}

func TestDeriveWSURL(t *testing.T) {
	assert.Equal(t, "ws://localhost:8080/ws", DeriveWSURL("http://localhost:8080"))
	assert.Equal(t, "wss://example.com/ws", DeriveWSURL("https://example.com/"))
	assert.Equal(t, "ws://custom/socket", Config{BaseURL: "http://x", WSURL: "ws://custom/socket"}.WebSocketURL())
}
