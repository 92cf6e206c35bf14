package rag

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docchat/backend/internal/domain/chat"
	"github.com/docchat/backend/internal/infrastructure/config"
)

// fakeGenerator 按预设返回文本的测试桩
type fakeGenerator struct {
	result  string
	err     error
	prompts []string
}

func (f *fakeGenerator) Complete(prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.result, nil
}

func newTestSummarizer(gen Generator, emb Embedder) *Summarizer {
	return NewSummarizer(gen, emb, &config.SummarizeConfig{Interval: 10, Window: 10})
}

// TestShouldSummarize_TriggerPoints 触发点逐条验证
func TestShouldSummarize_TriggerPoints(t *testing.T) {
	s := newTestSummarizer(&fakeGenerator{}, &fakeEmbedder{})
	tests := []struct {
		count    int
		expected bool
	}{
		{0, false},
		{5, false},
		{10, false}, // 首个周期不触发
		{11, false},
		{20, true},
		{21, false},
		{30, true},
		{100, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, s.ShouldSummarize(tt.count), "count=%d", tt.count)
	}
}

// TestSummarize_RecordsMessageRange 摘要记录覆盖的消息区间
func TestSummarize_RecordsMessageRange(t *testing.T) {
	gen := &fakeGenerator{result: "They discussed database indexing strategies."}
	s := newTestSummarizer(gen, &fakeEmbedder{embedding: []float32{0.1, 0.2}})

	window := makeMessages(10)
	summary := s.Summarize(window, 9)

	require.NotNil(t, summary)
	assert.Equal(t, 9, summary.MessageRange.Start)
	assert.Equal(t, 19, summary.MessageRange.End)
	assert.Equal(t, "They discussed database indexing strategies.", summary.Text)
	assert.Equal(t, []float32{0.1, 0.2}, summary.Embedding)
}

// TestSummarize_PromptContainsAllMessages 提示词包含窗口内全部消息
func TestSummarize_PromptContainsAllMessages(t *testing.T) {
	gen := &fakeGenerator{result: "ok"}
	s := newTestSummarizer(gen, &fakeEmbedder{embedding: []float32{1}})

	window := []*chat.Message{
		{Sender: chat.SenderUser, Content: "How do I tune the query planner?"},
		{Sender: chat.SenderAI, Content: "Start by checking the statistics target."},
	}
	s.Summarize(window, 0)

	require.Len(t, gen.prompts, 1)
	prompt := gen.prompts[0]
	assert.Contains(t, prompt, "User: How do I tune the query planner?")
	assert.Contains(t, prompt, "AI: Start by checking the statistics target.")
}

// TestSummarize_GenerationFailureFallsBack 生成失败时返回降级摘要
func TestSummarize_GenerationFailureFallsBack(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("model unavailable")}
	s := newTestSummarizer(gen, &fakeEmbedder{embedding: []float32{1}})

	summary := s.Summarize(makeMessages(10), 9)

	require.NotNil(t, summary)
	assert.Equal(t, fallbackSummaryText, summary.Text)
	assert.Empty(t, summary.Embedding)
	assert.Equal(t, 9, summary.MessageRange.Start)
	assert.Equal(t, 19, summary.MessageRange.End)
}

// TestSummarize_EmbedFailureKeepsText 向量化失败时保留摘要文本
func TestSummarize_EmbedFailureKeepsText(t *testing.T) {
	gen := &fakeGenerator{result: "A useful summary."}
	s := newTestSummarizer(gen, &fakeEmbedder{err: errors.New("provider down")})

	summary := s.Summarize(makeMessages(4), 0)

	require.NotNil(t, summary)
	assert.Equal(t, "A useful summary.", summary.Text)
	assert.Empty(t, summary.Embedding)
}

func makeMessages(n int) []*chat.Message {
	messages := make([]*chat.Message, n)
	for i := range messages {
		sender := chat.SenderUser
		if i%2 == 1 {
			sender = chat.SenderAI
		}
		messages[i] = &chat.Message{
			Sender:  sender,
			Content: "message " + strings.Repeat("x", i),
		}
	}
	return messages
}
