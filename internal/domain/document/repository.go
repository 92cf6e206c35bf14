package document

// Repository 文件仓库接口
type Repository interface {
	// Create 保存文件记录
	Create(file *File) error
	// FindByIDAndUser 按 ID 和所属用户查找文件
	FindByIDAndUser(id, userID string) (*File, error)
	// ListByUser 列出用户的所有文件（不含切片内容）
	ListByUser(userID string) ([]*File, error)
	// Delete 删除文件记录
	Delete(id, userID string) error
}
