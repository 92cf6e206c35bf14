package rag

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEmbedder 按预设返回向量的测试桩
type fakeEmbedder struct {
	embedding []float32
	err       error
}

func (f *fakeEmbedder) Embed(text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.embedding, nil
}

// TestRetrieve_OrdersByScoreDescending 结果按综合得分降序排列
func TestRetrieve_OrdersByScoreDescending(t *testing.T) {
	retriever := NewRetriever(&fakeEmbedder{embedding: []float32{1, 0}})
	candidates := []Candidate{
		{Text: "weakly related", Embedding: []float32{0, 1}, Label: "a"},
		{Text: "strongly related", Embedding: []float32{1, 0}, Label: "b"},
		{Text: "somewhat related", Embedding: []float32{1, 1}, Label: "c"},
	}

	results := retriever.Retrieve("query", candidates, 3)

	require.Len(t, results, 3)
	assert.Equal(t, "b", results[0].Label)
	assert.Equal(t, "c", results[1].Label)
	assert.Equal(t, "a", results[2].Label)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}
}

// TestRetrieve_TopKTruncation 只返回得分最高的 topK 条
func TestRetrieve_TopKTruncation(t *testing.T) {
	retriever := NewRetriever(&fakeEmbedder{embedding: []float32{1, 0}})
	candidates := make([]Candidate, 10)
	for i := range candidates {
		candidates[i] = Candidate{Text: "text", Embedding: []float32{1, float32(i)}}
	}

	results := retriever.Retrieve("query", candidates, 3)

	assert.Len(t, results, 3)
}

// TestRetrieve_SkipsCandidatesWithoutEmbedding 缺少向量的候选被跳过
func TestRetrieve_SkipsCandidatesWithoutEmbedding(t *testing.T) {
	retriever := NewRetriever(&fakeEmbedder{embedding: []float32{1, 0}})
	candidates := []Candidate{
		{Text: "no embedding", Embedding: nil, Label: "skip"},
		{Text: "has embedding", Embedding: []float32{1, 0}, Label: "keep"},
	}

	results := retriever.Retrieve("query", candidates, 5)

	require.Len(t, results, 1)
	assert.Equal(t, "keep", results[0].Label)
}

// TestRetrieve_EmptyCandidates 无可用候选时返回空且不调用向量化
func TestRetrieve_EmptyCandidates(t *testing.T) {
	embedder := &fakeEmbedder{err: errors.New("should not be called")}
	retriever := NewRetriever(embedder)

	assert.Empty(t, retriever.Retrieve("query", nil, 3))
	assert.Empty(t, retriever.Retrieve("query", []Candidate{{Text: "x"}}, 3))
}

// TestRetrieve_EmbedFailureReturnsEmpty 查询向量化失败时返回空结果
func TestRetrieve_EmbedFailureReturnsEmpty(t *testing.T) {
	retriever := NewRetriever(&fakeEmbedder{err: errors.New("provider down")})
	candidates := []Candidate{
		{Text: "candidate", Embedding: []float32{1, 0}},
	}

	assert.Empty(t, retriever.Retrieve("query", candidates, 3))
}

// TestRetrieve_LengthBoostCapped 长度分在上限处封顶
func TestRetrieve_LengthBoostCapped(t *testing.T) {
	retriever := NewRetriever(&fakeEmbedder{embedding: []float32{1, 0}})
	long := strings.Repeat("a", lengthSaturation)
	veryLong := strings.Repeat("a", lengthSaturation*3)
	candidates := []Candidate{
		{Text: long, Embedding: []float32{1, 0}, Label: "long"},
		{Text: veryLong, Embedding: []float32{1, 0}, Label: "very-long"},
	}

	results := retriever.Retrieve("query", candidates, 2)

	require.Len(t, results, 2)
	// 相似度相同且长度分都封顶,得分应相等
	assert.InDelta(t, results[0].Score, results[1].Score, 1e-9)
	assert.InDelta(t, similarityWeight+lengthWeight, results[0].Score, 1e-9)
}
