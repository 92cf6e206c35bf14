package rag

import (
	"strings"

	"github.com/docchat/backend/internal/infrastructure/config"
)

// Chunker 将长文本切分为带重叠的检索片段
// 切分尽量对齐句子边界,避免在句子中间断开
type Chunker struct {
	maxChunkSize int
	overlap      int
}

// NewChunker 创建文本切分器
func NewChunker(cfg *config.ChunkingConfig) *Chunker {
	return &Chunker{
		maxChunkSize: cfg.MaxChunkSize,
		overlap:      cfg.Overlap,
	}
}

// SplitText 按句子边界切分文本
// 文本长度不超过 maxChunkSize 时原样返回单个片段
// 相邻片段之间保留 overlap 个字符的重叠,保证跨片段的语义连续
func (c *Chunker) SplitText(text string) []string {
	if len(text) <= c.maxChunkSize {
		return []string{text}
	}

	sentences := splitSentences(text)
	chunks := make([]string, 0, len(text)/c.maxChunkSize+1)
	current := ""
	for _, sentence := range sentences {
		candidate := sentence
		if current != "" {
			candidate = current + " " + sentence
		}
		if len(candidate) > c.maxChunkSize && current != "" {
			chunks = append(chunks, current)
			seed := current
			if len(seed) > c.overlap {
				seed = seed[len(seed)-c.overlap:]
			}
			current = seed + " " + sentence
			continue
		}
		current = candidate
	}
	if current != "" {
		chunks = append(chunks, current)
	}
	return chunks
}

// splitSentences 在 . ! ? 后跟空白处断句,分隔空白不保留
// 末尾没有终结符的文本作为最后一个句子
func splitSentences(text string) []string {
	var sentences []string
	var sb strings.Builder
	runes := []rune(text)
	i := 0
	for i < len(runes) {
		r := runes[i]
		sb.WriteRune(r)
		if (r == '.' || r == '!' || r == '?') && i+1 < len(runes) && isSpace(runes[i+1]) {
			sentences = append(sentences, sb.String())
			sb.Reset()
			// 跳过分隔空白
			for i+1 < len(runes) && isSpace(runes[i+1]) {
				i++
			}
		}
		i++
	}
	if sb.Len() > 0 {
		sentences = append(sentences, sb.String())
	}
	return sentences
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}
