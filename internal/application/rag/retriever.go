package rag

import (
	"log/slog"
	"sort"

	applog "github.com/docchat/backend/internal/infrastructure/log"
)

const (
	// 相似度与内容长度的加权系数
	similarityWeight = 0.7
	lengthWeight     = 0.3
	// 长度分在该字符数处封顶
	lengthSaturation = 2000
)

// Embedder 文本向量化能力
type Embedder interface {
	Embed(text string) ([]float32, error)
}

// Candidate 检索候选,携带预先计算好的向量
type Candidate struct {
	Text      string
	Embedding []float32
	Label     string
}

// ScoredChunk 带评分的检索结果
type ScoredChunk struct {
	Text  string
	Label string
	Score float64
}

// Retriever 基于余弦相似度的候选检索器
type Retriever struct {
	embedder Embedder
	logger   *slog.Logger
}

// NewRetriever 创建检索器
func NewRetriever(embedder Embedder) *Retriever {
	return &Retriever{
		embedder: embedder,
		logger:   applog.NewModuleLogger("rag", "retriever"),
	}
}

// Retrieve 对候选集评分并返回得分最高的 topK 条
// 综合得分 = similarityWeight*余弦相似度 + lengthWeight*长度分
// 缺少向量的候选被跳过;查询向量化失败时返回空结果而不是报错
func (r *Retriever) Retrieve(query string, candidates []Candidate, topK int) []ScoredChunk {
	usable := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if len(c.Embedding) > 0 {
			usable = append(usable, c)
		}
	}
	if len(usable) == 0 || topK <= 0 {
		return nil
	}

	queryEmbedding, err := r.embedder.Embed(query)
	if err != nil {
		r.logger.Warn("Failed to embed query, returning empty retrieval result", "error", err)
		return nil
	}

	scored := make([]ScoredChunk, 0, len(usable))
	for _, c := range usable {
		similarity := CosineSimilarity(queryEmbedding, c.Embedding)
		lengthScore := float64(len(c.Text)) / lengthSaturation
		if lengthScore > 1 {
			lengthScore = 1
		}
		scored = append(scored, ScoredChunk{
			Text:  c.Text,
			Label: c.Label,
			Score: similarityWeight*similarity + lengthWeight*lengthScore,
		})
	}

	// 稳定排序,同分保持候选原始顺序
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if len(scored) > topK {
		scored = scored[:topK]
	}
	return scored
}
