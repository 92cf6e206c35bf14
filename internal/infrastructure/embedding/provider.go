package embedding

import (
	"log/slog"

	"github.com/docchat/backend/internal/domain/document"
	"github.com/docchat/backend/internal/infrastructure/config"
	"github.com/docchat/backend/internal/infrastructure/log"
)

// CachedProvider 带缓存的向量化提供者
// 缓存是进程内唯一的共享可变状态，内部互斥保护；
// 并发未命中时的重复计算是可接受的，不影响正确性
type CachedProvider struct {
	client *Client
	cache  *Cache
	logger *slog.Logger
}

// NewCachedProvider 创建带缓存的向量化提供者
func NewCachedProvider(cfg *config.EmbeddingConfig) *CachedProvider {
	return &CachedProvider{
		client: NewClient(cfg),
		cache:  NewCache(cfg.CacheCapacity, cfg.CacheKeyPrefixLen),
		logger: log.NewModuleLogger("embedding", "provider"),
	}
}

// NewCachedProviderWith 使用现有客户端与缓存创建提供者（测试用）
func NewCachedProviderWith(client *Client, cache *Cache) *CachedProvider {
	return &CachedProvider{
		client: client,
		cache:  cache,
		logger: log.NewModuleLogger("embedding", "provider"),
	}
}

// Embed 向量化单条文本，命中缓存时不调用外部服务
func (p *CachedProvider) Embed(text string) ([]float32, error) {
	if vec, ok := p.cache.Get(text); ok {
		p.logger.Debug("Embedding cache hit", "text_length", len(text))
		return vec, nil
	}

	vec, err := p.client.EmbedText(text)
	if err != nil {
		return nil, err
	}

	p.cache.Put(text, vec)
	return vec, nil
}

// EmbedAll 批量向量化文本为切片序列
// 单条失败被隔离：该切片以空向量返回，由下游过滤，不中断整批
func (p *CachedProvider) EmbedAll(texts []string, sourceLabel string) []document.Chunk {
	chunks := make([]document.Chunk, 0, len(texts))
	failed := 0

	for _, text := range texts {
		chunk := document.Chunk{
			Text:        text,
			SourceLabel: sourceLabel,
		}
		vec, err := p.Embed(text)
		if err != nil {
			failed++
			p.logger.Warn("Failed to embed chunk, keeping empty embedding",
				"source", sourceLabel,
				"text_length", len(text),
				"error", err,
			)
		} else {
			chunk.Embedding = vec
		}
		chunks = append(chunks, chunk)
	}

	if failed > 0 {
		p.logger.Info("Embedded chunks with partial failures",
			"total", len(texts),
			"failed", failed,
		)
	}

	return chunks
}

// CacheLen 当前缓存条目数
func (p *CachedProvider) CacheLen() int {
	return p.cache.Len()
}
