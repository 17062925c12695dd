package graph

import (
	"log"
	"strconv"
	"sync"
)

// Notifier 任务执行终止时的通知接收方
// outcome为"success"或"failed"，message仅在失败时非空
type Notifier interface {
	Notify(outcome, taskName, message string)
}

// ChangeKind 变更类型
type ChangeKind string

const (
	ChangeInsert     ChangeKind = "insert"
	ChangeRemove     ChangeKind = "remove"
	ChangeConnect    ChangeKind = "connect"
	ChangeDisconnect ChangeKind = "disconnect"
	ChangeMove       ChangeKind = "move"
	ChangeStatus     ChangeKind = "status"
)

// Change 一次已提交的变更
type Change struct {
	Kind   ChangeKind
	NodeID string
}

// Store 节点集合的唯一数据源（单写者）
// 所有变更都通过意图方法串行化，观察者在释放锁之后被调用。
type Store struct {
	mu    sync.RWMutex
	nodes []Node
	index map[string]int
	edges []Edge

	notifier  Notifier
	obsMu     sync.RWMutex
	observers []func(Change)
}

// NewStore 创建空Store，notifier可以为nil
func NewStore(notifier Notifier) *Store {
	return &Store{
		nodes:    make([]Node, 0),
		index:    make(map[string]int),
		edges:    make([]Edge, 0),
		notifier: notifier,
	}
}

// OnChange 注册变更观察者
func (s *Store) OnChange(fn func(Change)) {
	if fn == nil {
		return
	}
	s.obsMu.Lock()
	defer s.obsMu.Unlock()
	s.observers = append(s.observers, fn)
}

// Hydrate 用权威数据源的快照替换全部节点（不触发观察者）
func (s *Store) Hydrate(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nodes = make([]Node, 0, len(snapshot))
	for _, n := range snapshot {
		c := n.Clone()
		if c.Predecessors == nil {
			c.Predecessors = []string{}
		}
		if c.Successors == nil {
			c.Successors = []string{}
		}
		s.nodes = append(s.nodes, c)
	}
	s.reindex()
	s.edges = DeriveEdges(s.nodes)
}

// Insert 新增节点并返回分配的ID
func (s *Store) Insert(name, assignee, category, color string) string {
	s.mu.Lock()
	id := s.nextID()
	s.nodes = append(s.nodes, Node{
		ID:           id,
		Name:         name,
		Assignee:     assignee,
		Category:     category,
		Color:        color,
		Status:       StatusIdle,
		Predecessors: []string{},
		Successors:   []string{},
	})
	s.index[id] = len(s.nodes) - 1
	s.edges = DeriveEdges(s.nodes)
	s.mu.Unlock()

	s.emit(Change{Kind: ChangeInsert, NodeID: id})
	return id
}

// Remove 删除节点，并从其余节点的邻接表中移除该ID
// 节点不存在时返回false且不做任何修改
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	pos, ok := s.index[id]
	if !ok {
		s.mu.Unlock()
		return false
	}

	s.nodes = append(s.nodes[:pos], s.nodes[pos+1:]...)
	for i := range s.nodes {
		s.nodes[i].Predecessors = removeID(s.nodes[i].Predecessors, id)
		s.nodes[i].Successors = removeID(s.nodes[i].Successors, id)
	}
	s.reindex()
	s.edges = DeriveEdges(s.nodes)
	s.mu.Unlock()

	s.emit(Change{Kind: ChangeRemove, NodeID: id})
	return true
}

// Connect 建立 source -> target 的依赖
// 自环和重复边不在这一层拒绝；任一端不存在时为no-op
func (s *Store) Connect(source, target string) bool {
	s.mu.Lock()
	src, okSrc := s.index[source]
	dst, okDst := s.index[target]
	if !okSrc || !okDst {
		s.mu.Unlock()
		return false
	}

	s.nodes[src].Successors = append(s.nodes[src].Successors, target)
	s.nodes[dst].Predecessors = append(s.nodes[dst].Predecessors, source)
	s.edges = DeriveEdges(s.nodes)
	s.mu.Unlock()

	s.emit(Change{Kind: ChangeConnect, NodeID: source})
	return true
}

// Disconnect 删除一条 source -> target 依赖（两侧各删一次）
func (s *Store) Disconnect(source, target string) bool {
	s.mu.Lock()
	src, okSrc := s.index[source]
	dst, okDst := s.index[target]
	if !okSrc || !okDst {
		s.mu.Unlock()
		return false
	}

	succ, removed := removeOnce(s.nodes[src].Successors, target)
	if !removed {
		s.mu.Unlock()
		return false
	}
	s.nodes[src].Successors = succ
	s.nodes[dst].Predecessors, _ = removeOnce(s.nodes[dst].Predecessors, source)
	s.edges = DeriveEdges(s.nodes)
	s.mu.Unlock()

	s.emit(Change{Kind: ChangeDisconnect, NodeID: source})
	return true
}

// Move 更新节点坐标
func (s *Store) Move(id string, x, y float64) bool {
	s.mu.Lock()
	pos, ok := s.index[id]
	if !ok {
		s.mu.Unlock()
		return false
	}
	s.nodes[pos].Position = Position{X: x, Y: y}
	s.mu.Unlock()

	s.emit(Change{Kind: ChangeMove, NodeID: id})
	return true
}

// UpdateStatus 写入执行结果，执行器只通过这个方法回写状态
// 状态为success或failed时通知Notifier
func (s *Store) UpdateStatus(id string, status Status, start, end, failMessage string) bool {
	s.mu.Lock()
	pos, ok := s.index[id]
	if !ok {
		s.mu.Unlock()
		return false
	}
	n := &s.nodes[pos]
	n.Status = status
	n.Start = start
	n.End = end
	n.FailMessage = failMessage
	name := n.Name
	s.mu.Unlock()

	s.emit(Change{Kind: ChangeStatus, NodeID: id})

	if status.IsTerminal() && s.notifier != nil {
		s.notifier.Notify(string(status), name, failMessage)
	}
	return true
}

// Get 按ID获取节点拷贝
func (s *Store) Get(id string) (Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pos, ok := s.index[id]
	if !ok {
		return Node{}, false
	}
	return s.nodes[pos].Clone(), true
}

// Len 节点数量
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}

// Snapshot 返回全部节点的只读拷贝
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot(s.nodes).Clone()
}

// Edges 返回当前推导出的边集合拷贝
func (s *Store) Edges() []Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append(make([]Edge, 0, len(s.edges)), s.edges...)
}

// nextID 最大数字ID加一，空图返回"0"（调用方持有写锁）
func (s *Store) nextID() string {
	maxID := -1
	for _, n := range s.nodes {
		v, err := strconv.Atoi(n.ID)
		if err != nil {
			continue
		}
		if v > maxID {
			maxID = v
		}
	}
	return strconv.Itoa(maxID + 1)
}

// reindex 重建ID索引（调用方持有写锁）
func (s *Store) reindex() {
	s.index = make(map[string]int, len(s.nodes))
	for i, n := range s.nodes {
		if _, dup := s.index[n.ID]; dup {
			log.Printf("⚠️ [GraphStore] 重复的节点ID: %s", n.ID)
			continue
		}
		s.index[n.ID] = i
	}
}

func (s *Store) emit(c Change) {
	s.obsMu.RLock()
	observers := append([]func(Change){}, s.observers...)
	s.obsMu.RUnlock()

	for _, fn := range observers {
		fn(c)
	}
}
