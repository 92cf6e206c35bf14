package chat

import "github.com/google/wire"

// ProviderSet 会话模块的依赖注入集合
var ProviderSet = wire.NewSet(
	NewService,
)
