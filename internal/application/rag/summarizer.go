package rag

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/docchat/backend/internal/domain/chat"
	"github.com/docchat/backend/internal/infrastructure/config"
	applog "github.com/docchat/backend/internal/infrastructure/log"
)

// fallbackSummaryText 摘要生成失败时的降级文本
const fallbackSummaryText = "Summary of earlier conversation (generation unavailable)."

// Generator 单轮文本生成能力
type Generator interface {
	Complete(prompt string) (string, error)
}

// Summarizer 周期性压缩历史消息为摘要
type Summarizer struct {
	generator Generator
	embedder  Embedder
	interval  int
	window    int
	logger    *slog.Logger
}

// NewSummarizer 创建摘要器
func NewSummarizer(generator Generator, embedder Embedder, cfg *config.SummarizeConfig) *Summarizer {
	return &Summarizer{
		generator: generator,
		embedder:  embedder,
		interval:  cfg.Interval,
		window:    cfg.Window,
		logger:    applog.NewModuleLogger("rag", "summarizer"),
	}
}

// ShouldSummarize 判断当前消息数是否到达摘要触发点
// 每累积 interval 条消息触发一次,首个 interval 不触发
func (s *Summarizer) ShouldSummarize(messageCount int) bool {
	return messageCount > s.interval && messageCount%s.interval == 0
}

// Window 返回摘要窗口大小
func (s *Summarizer) Window() int {
	return s.window
}

// Summarize 将一段消息窗口压缩为摘要
// startIndex 是窗口首条消息在会话中的序号,记录到摘要的覆盖区间
// 生成或向量化失败时返回降级摘要,不向上传播错误
func (s *Summarizer) Summarize(window []*chat.Message, startIndex int) *chat.Summary {
	summary := &chat.Summary{
		MessageRange: chat.MessageRange{
			Start: startIndex,
			End:   startIndex + len(window),
		},
		CreatedAt: time.Now(),
	}

	text, err := s.generator.Complete(s.buildPrompt(window))
	if err != nil {
		s.logger.Warn("Summary generation failed, using fallback text",
			"startIndex", startIndex, "windowSize", len(window), "error", err)
		summary.Text = fallbackSummaryText
		return summary
	}
	summary.Text = strings.TrimSpace(text)

	embedding, err := s.embedder.Embed(summary.Text)
	if err != nil {
		s.logger.Warn("Failed to embed summary, storing without embedding", "error", err)
		return summary
	}
	summary.Embedding = embedding
	return summary
}

// buildPrompt 构造摘要提示词
func (s *Summarizer) buildPrompt(window []*chat.Message) string {
	var sb strings.Builder
	for _, msg := range window {
		sender := "User"
		if msg.Sender == chat.SenderAI {
			sender = "AI"
		}
		fmt.Fprintf(&sb, "%s: %s\n", sender, msg.Content)
	}
	return fmt.Sprintf(`Summarize the following conversation segment concisely.
Focus on technical topics, decisions made and open questions.
Keep the summary under 150 words.

Conversation:
%s
Summary:`, sb.String())
}
