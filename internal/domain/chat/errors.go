package chat

import "errors"

var (
	// ErrNotFound 会话或文件不存在，或不属于当前用户
	ErrNotFound = errors.New("conversation not found")
	// ErrEmbeddingFailure 向量化重试耗尽后失败
	ErrEmbeddingFailure = errors.New("embedding failed")
	// ErrGenerationFailure 上游生成服务失败
	ErrGenerationFailure = errors.New("generation failed")
	// ErrValidationFailure 缺少必要输入
	ErrValidationFailure = errors.New("validation failed")
)
