package chat

// EventType 推送事件类型
type EventType string

const (
	// EventProcessing 处理状态变更（开始 / 完成）
	EventProcessing EventType = "processing"
	// EventMessageChunk 流式回复片段
	EventMessageChunk EventType = "message-chunk"
	// EventError 处理失败
	EventError EventType = "error"
)

// 处理状态
const (
	StatusStarted   = "started"
	StatusCompleted = "completed"
)

// Event 通过 WebSocket 推送给前端的事件
type Event struct {
	Type           EventType `json:"type"`
	ConversationID string    `json:"conversationId"`
	// Status 仅在 processing 事件中出现
	Status string `json:"status,omitempty"`
	// Title 会话标题生成后随 completed 状态下发
	Title string `json:"title,omitempty"`
	// Chunk 仅在 message-chunk 事件中出现
	Chunk string `json:"chunk,omitempty"`
	// Error 仅在 error 事件中出现
	Error string `json:"error,omitempty"`
}

// Pusher 事件推送能力,由基础设施层实现
type Pusher interface {
	Push(userID string, event *Event) error
}

// NewProcessingStartedEvent 创建处理开始事件
func NewProcessingStartedEvent(conversationID string) *Event {
	return &Event{
		Type:           EventProcessing,
		ConversationID: conversationID,
		Status:         StatusStarted,
	}
}

// NewProcessingCompletedEvent 创建处理完成事件,title 为空时不下发标题
func NewProcessingCompletedEvent(conversationID, title string) *Event {
	return &Event{
		Type:           EventProcessing,
		ConversationID: conversationID,
		Status:         StatusCompleted,
		Title:          title,
	}
}

// NewMessageChunkEvent 创建流式片段事件
func NewMessageChunkEvent(conversationID, chunk string) *Event {
	return &Event{
		Type:           EventMessageChunk,
		ConversationID: conversationID,
		Chunk:          chunk,
	}
}

// NewErrorEvent 创建错误事件
func NewErrorEvent(conversationID, message string) *Event {
	return &Event{
		Type:           EventError,
		ConversationID: conversationID,
		Error:          message,
	}
}
