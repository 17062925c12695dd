package dao

import (
	"database/sql"
	"encoding/json"
	"log"

	"github.com/LENAX/task-graph/pkg/core/graph"
)

// TaskDAO tasks表的数据访问对象
// 邻接表以JSON数组文本存储
type TaskDAO struct {
	TaskID          string         `db:"task_id"`
	TaskName        string         `db:"task_name"`
	TaskEmployee    string         `db:"task_employee"`
	TaskCategory    string         `db:"task_category"`
	TaskStatus      string         `db:"task_status"`
	TaskStart       sql.NullString `db:"task_start"`
	TaskEnd         sql.NullString `db:"task_end"`
	TaskColor       string         `db:"task_color"`
	TaskFailMessage sql.NullString `db:"task_fail_message"`
	TaskXPos        float64        `db:"task_x_pos"`
	TaskYPos        float64        `db:"task_y_pos"`
	TargetFor       string         `db:"target_for"`
	SourceFor       string         `db:"source_for"`
}

// TaskColumns tasks表业务列（不含自增主键）
var TaskColumns = []string{
	"task_id", "task_name", "task_employee", "task_category", "task_status",
	"task_start", "task_end", "task_color", "task_fail_message",
	"task_x_pos", "task_y_pos", "target_for", "source_for",
}

// FromNode 节点转换为DAO
func FromNode(n graph.Node) TaskDAO {
	return TaskDAO{
		TaskID:          n.ID,
		TaskName:        n.Name,
		TaskEmployee:    n.Assignee,
		TaskCategory:    n.Category,
		TaskStatus:      string(n.Status),
		TaskStart:       nullString(n.Start),
		TaskEnd:         nullString(n.End),
		TaskColor:       n.Color,
		TaskFailMessage: nullString(n.FailMessage),
		TaskXPos:        n.Position.X,
		TaskYPos:        n.Position.Y,
		TargetFor:       encodeIDs(n.Predecessors),
		SourceFor:       encodeIDs(n.Successors),
	}
}

// ToNode DAO转换为节点，无法解析的邻接表按空处理
func (d TaskDAO) ToNode() graph.Node {
	return graph.Node{
		ID:           d.TaskID,
		Name:         d.TaskName,
		Assignee:     d.TaskEmployee,
		Category:     d.TaskCategory,
		Color:        d.TaskColor,
		Position:     graph.Position{X: d.TaskXPos, Y: d.TaskYPos},
		Status:       graph.Status(d.TaskStatus),
		Start:        d.TaskStart.String,
		End:          d.TaskEnd.String,
		FailMessage:  d.TaskFailMessage.String,
		Predecessors: decodeIDs(d.TaskID, "target_for", d.TargetFor),
		Successors:   decodeIDs(d.TaskID, "source_for", d.SourceFor),
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func encodeIDs(ids []string) string {
	if len(ids) == 0 {
		return "[]"
	}
	data, _ := json.Marshal(ids)
	return string(data)
}

func decodeIDs(taskID, column, raw string) []string {
	ids := []string{}
	if raw == "" {
		return ids
	}
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		log.Printf("⚠️ [Storage] 任务 %s 的 %s 解析失败: %v", taskID, column, err)
		return []string{}
	}
	return ids
}
