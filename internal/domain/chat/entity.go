package chat

import "time"

// Sender 消息发送方
type Sender string

const (
	// SenderUser 用户消息
	SenderUser Sender = "user"
	// SenderAI AI 回复消息
	SenderAI Sender = "ai"
)

// FileRef 消息引用的文件
type FileRef struct {
	FileID   string `json:"file_id"`
	FileName string `json:"file_name"`
}

// Message 对话消息
// 追加后不再修改，顺序即到达顺序（也是时间顺序）
type Message struct {
	ID        string    `json:"id"`
	Sender    Sender    `json:"sender"`
	Content   string    `json:"content"`
	Embedding []float32 `json:"embedding,omitempty"` // 向量化失败时为空，不视为错误
	FileRefs  []FileRef `json:"file_refs,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// MessageRange 总结覆盖的消息区间
// 引用创建时刻消息序列中的绝对位置，之后不再重算
type MessageRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Summary 对话窗口总结
type Summary struct {
	Text         string       `json:"text"`
	Embedding    []float32    `json:"embedding,omitempty"`
	MessageRange MessageRange `json:"message_range"`
	CreatedAt    time.Time    `json:"created_at"`
}

// Conversation 会话实体
// 独占其消息与总结序列，追加后其他组件不再修改
type Conversation struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Title     string     `json:"title"`
	Messages  []*Message `json:"messages"`
	Summaries []*Summary `json:"summaries"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// HasEmbedding 检查消息是否带有效向量
func (m *Message) HasEmbedding() bool {
	return len(m.Embedding) > 0
}

// MessageCount 获取消息数量
func (c *Conversation) MessageCount() int {
	return len(c.Messages)
}

// IsFirstExchange 是否为会话的第一次完整交互
// 追加新的用户消息后调用，此时仅有这一条消息
func (c *Conversation) IsFirstExchange() bool {
	return len(c.Messages) == 1
}
