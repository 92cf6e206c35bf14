package chat

// Repository 会话仓库接口
type Repository interface {
	// Create 创建会话
	Create(conv *Conversation) error
	// FindByIDAndUser 按 ID 和所属用户查找会话（含消息与总结）
	FindByIDAndUser(id, userID string) (*Conversation, error)
	// ListByUser 列出用户的所有会话（不含消息体）
	ListByUser(userID string) ([]*Conversation, error)
	// AppendMessage 向会话追加一条消息
	AppendMessage(convID string, msg *Message) error
	// AppendSummary 向会话追加一条总结
	AppendSummary(convID string, summary *Summary) error
	// UpdateTitle 更新会话标题
	UpdateTitle(convID, title string) error
	// Delete 删除会话及其消息与总结
	Delete(id, userID string) error
}
