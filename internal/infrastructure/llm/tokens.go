package llm

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

// 在包初始化时设置离线加载器
func init() {
	tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
}

// TokenEstimator 使用 tiktoken 估算 Token 数量
type TokenEstimator struct {
	encoding *tiktoken.Tiktoken
	mu       sync.RWMutex
}

var (
	estimatorInstance *TokenEstimator
	estimatorOnce     sync.Once
	estimatorErr      error
)

// GetTokenEstimator 获取 TokenEstimator 单例
// 单例避免重复加载编码文件
func GetTokenEstimator() (*TokenEstimator, error) {
	estimatorOnce.Do(func() {
		// cl100k_base 编码兼容 GPT-4 等主流模型
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			estimatorErr = err
			return
		}
		estimatorInstance = &TokenEstimator{
			encoding: enc,
		}
	})

	if estimatorErr != nil {
		return nil, estimatorErr
	}
	return estimatorInstance, nil
}

// CountTokens 计算文本的 Token 数量
func (e *TokenEstimator) CountTokens(text string) int {
	if text == "" {
		return 0
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	tokens := e.encoding.Encode(text, nil, nil)
	return len(tokens)
}

// CountMessages 计算消息序列的总 Token 数量
func (e *TokenEstimator) CountMessages(messages []Message) int {
	total := 0
	for _, msg := range messages {
		total += e.CountTokens(msg.Content)
	}
	return total
}
