package document

import "github.com/google/wire"

// ProviderSet 文件模块的依赖注入集合
var ProviderSet = wire.NewSet(
	NewService,
)
