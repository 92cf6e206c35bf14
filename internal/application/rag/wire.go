package rag

import "github.com/google/wire"

// ProviderSet 检索模块的依赖注入集合
var ProviderSet = wire.NewSet(
	NewChunker,
	NewRetriever,
	NewSummarizer,
)
