// Package graph 提供任务流水线图模型：节点集合、由邻接表推导的边集合以及单写者Store
package graph

// Status 节点持久化的执行状态
type Status string

const (
	StatusIdle    Status = ""        // 未执行（显示为pending）
	StatusRunning Status = "running" // 执行中
	StatusSuccess Status = "success" // 执行成功
	StatusFailed  Status = "failed"  // 执行失败
)

// DefaultColor 新建节点的默认颜色
const DefaultColor = "#525ee1"

// IsTerminal 是否为终态（只能通过重试离开）
func (s Status) IsTerminal() bool {
	return s == StatusSuccess || s == StatusFailed
}

// Label 状态显示标签
func (s Status) Label() string {
	if s == StatusIdle {
		return "pending"
	}
	return string(s)
}

// Position 节点在画布上的二维坐标
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node 任务节点
type Node struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Assignee     string   `json:"assignee"`
	Category     string   `json:"category"`
	Color        string   `json:"color"`
	Position     Position `json:"position"`
	Status       Status   `json:"status"`
	Start        string   `json:"start,omitempty"`
	End          string   `json:"end,omitempty"`
	FailMessage  string   `json:"fail_message,omitempty"`
	Predecessors []string `json:"predecessors"` // 指向本节点的节点ID
	Successors   []string `json:"successors"`   // 本节点指向的节点ID
}

// Clone 深拷贝节点（邻接表不与原节点共享底层数组）
func (n Node) Clone() Node {
	c := n
	c.Predecessors = append(make([]string, 0, len(n.Predecessors)), n.Predecessors...)
	c.Successors = append(make([]string, 0, len(n.Successors)), n.Successors...)
	return c
}

// Snapshot 某一时刻全部节点的有序只读拷贝
type Snapshot []Node

// Clone 深拷贝快照
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for i, n := range s {
		out[i] = n.Clone()
	}
	return out
}

// Find 按ID查找节点
func (s Snapshot) Find(id string) (Node, bool) {
	for _, n := range s {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// removeID 从ID列表中删除所有等于id的元素
func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// removeOnce 删除第一个等于id的元素
func removeOnce(ids []string, id string) ([]string, bool) {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...), true
		}
	}
	return ids, false
}
