package dto

// MessageTypeUpdate 客户端推送全量任务图的消息类型
const MessageTypeUpdate = "update"

// UpdatePayload update消息的载荷
type UpdatePayload struct {
	Nodes []TaskRecord `json:"nodes"`
}

// UpdateMessage WebSocket上的全量推送信封 {type:"update",payload:{nodes:[...]}}
type UpdateMessage struct {
	Type    string        `json:"type"`
	Payload UpdatePayload `json:"payload"`
}

// NewUpdateMessage 创建update消息
func NewUpdateMessage(records []TaskRecord) UpdateMessage {
	if records == nil {
		records = []TaskRecord{}
	}
	return UpdateMessage{
		Type:    MessageTypeUpdate,
		Payload: UpdatePayload{Nodes: records},
	}
}

// TaskQueryRequest 任务列表查询参数
type TaskQueryRequest struct {
	Status   string `form:"status" binding:"omitempty,oneof=running success failed pending"`
	Category string `form:"category" binding:"omitempty"`
}
