package storage

import "github.com/google/wire"

// ProviderSet Storage 基础设施层 ProviderSet
var ProviderSet = wire.NewSet(
	ProvideDB,                 // 提供数据库连接
	NewConversationRepository, // 会话仓储
	NewFileRepository,         // 文件仓储
	NewImageStore,             // 临时图片存储
)
