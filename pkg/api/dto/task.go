package dto

import "github.com/LENAX/task-graph/pkg/core/graph"

// TaskRecord 任务节点的线上格式
// targetFor为前驱节点ID，sourceFor为后继节点ID；空的时间和失败信息序列化为null
type TaskRecord struct {
	TaskID          string   `json:"taskId"`
	TaskName        string   `json:"taskName"`
	TaskEmployee    string   `json:"taskEmployee"`
	TaskCategory    string   `json:"taskCategory"`
	TaskStatus      string   `json:"taskStatus"`
	TaskStart       *string  `json:"taskStart"`
	TaskEnd         *string  `json:"taskEnd"`
	TaskColor       string   `json:"taskColor"`
	TaskFailMessage *string  `json:"taskFailMessage"`
	TargetFor       []string `json:"targetFor"`
	SourceFor       []string `json:"sourceFor"`
	X               float64  `json:"x"`
	Y               float64  `json:"y"`
}

// FromNode 节点转换为线上格式
func FromNode(n graph.Node) TaskRecord {
	return TaskRecord{
		TaskID:          n.ID,
		TaskName:        n.Name,
		TaskEmployee:    n.Assignee,
		TaskCategory:    n.Category,
		TaskStatus:      string(n.Status),
		TaskStart:       nullable(n.Start),
		TaskEnd:         nullable(n.End),
		TaskColor:       n.Color,
		TaskFailMessage: nullable(n.FailMessage),
		TargetFor:       copyIDs(n.Predecessors),
		SourceFor:       copyIDs(n.Successors),
		X:               n.Position.X,
		Y:               n.Position.Y,
	}
}

// ToNode 线上格式转换为节点，缺失的邻接表视为空
func (r TaskRecord) ToNode() graph.Node {
	return graph.Node{
		ID:           r.TaskID,
		Name:         r.TaskName,
		Assignee:     r.TaskEmployee,
		Category:     r.TaskCategory,
		Color:        r.TaskColor,
		Position:     graph.Position{X: r.X, Y: r.Y},
		Status:       graph.Status(r.TaskStatus),
		Start:        deref(r.TaskStart),
		End:          deref(r.TaskEnd),
		FailMessage:  deref(r.TaskFailMessage),
		Predecessors: copyIDs(r.TargetFor),
		Successors:   copyIDs(r.SourceFor),
	}
}

// FromSnapshot 快照转换为线上格式
func FromSnapshot(snap graph.Snapshot) []TaskRecord {
	records := make([]TaskRecord, 0, len(snap))
	for _, n := range snap {
		records = append(records, FromNode(n))
	}
	return records
}

// ToSnapshot 线上格式转换为快照
func ToSnapshot(records []TaskRecord) graph.Snapshot {
	snap := make(graph.Snapshot, 0, len(records))
	for _, r := range records {
		snap = append(snap, r.ToNode())
	}
	return snap
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func copyIDs(ids []string) []string {
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}
