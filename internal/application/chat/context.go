package chat

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/docchat/backend/internal/application/rag"
	domainChat "github.com/docchat/backend/internal/domain/chat"
	"github.com/docchat/backend/internal/infrastructure/llm"
)

// summaryLabel 总结类上下文的来源标注
const summaryLabel = "conversation summary"

// contextPreamble 指示生成端以 70% 权重参考已检索到的资料
const contextPreamble = `Use the provided context below to answer the question. Weight the supplied context at 70% relative to your general knowledge. If the context does not cover the question, say so and answer from general knowledge.`

// gatherContext 收集文件上下文与会话历史上下文
// 检索失败返回空结果而不是报错,缺少上下文不阻塞回答
func (s *Service) gatherContext(state *sendState) {
	state.fileContext = s.buildFileContext(state)
	state.convContext = s.buildConversationContext(state)
}

// buildFileContext 汇集引用文件的全部切片后按相关性检索
func (s *Service) buildFileContext(state *sendState) string {
	var candidates []rag.Candidate
	for _, file := range state.files {
		for _, chunk := range file.Chunks {
			candidates = append(candidates, rag.Candidate{
				Text:      chunk.Text,
				Embedding: chunk.Embedding,
				Label:     file.Name,
			})
		}
	}
	results := s.retriever.Retrieve(state.content, candidates, s.retrievalCfg.FileTopK)
	return formatContext(results)
}

// buildConversationContext 从较早的历史消息中检索相关片段
// 消息数不足 minMessages 时不检索;近期 recentWindow 条消息直接进入
// 对话历史,不参与检索;较早消息都没有向量时回退到总结检索
func (s *Service) buildConversationContext(state *sendState) string {
	messages := state.conv.Messages
	if len(messages) < s.retrievalCfg.MinMessages {
		return ""
	}

	// 排除刚追加的新消息和其前的近期窗口
	cutoff := len(messages) - 1 - s.retrievalCfg.RecentWindow
	if cutoff < 0 {
		cutoff = 0
	}

	var candidates []rag.Candidate
	for _, msg := range messages[:cutoff] {
		if msg.HasEmbedding() {
			candidates = append(candidates, rag.Candidate{
				Text:      msg.Content,
				Embedding: msg.Embedding,
				Label:     string(msg.Sender),
			})
		}
	}

	if len(candidates) > 0 {
		results := s.retriever.Retrieve(state.content, candidates, s.retrievalCfg.ConversationTopK)
		return formatContext(results)
	}

	// 回退:历史消息没有可用向量时改查总结
	var summaryCandidates []rag.Candidate
	for _, summary := range state.conv.Summaries {
		summaryCandidates = append(summaryCandidates, rag.Candidate{
			Text:      summary.Text,
			Embedding: summary.Embedding,
			Label:     summaryLabel,
		})
	}
	results := s.retriever.Retrieve(state.content, summaryCandidates, s.retrievalCfg.SummaryTopK)
	return formatContext(results)
}

// buildHistory 组装发给生成端的对话历史与最终用户消息
// 历史是新消息之前的 recentWindow 条消息,按原顺序映射为对话角色
func (s *Service) buildHistory(state *sendState, logger *slog.Logger) {
	messages := state.conv.Messages
	start := len(messages) - 1 - s.retrievalCfg.RecentWindow
	if start < 0 {
		start = 0
	}

	history := make([]llm.Message, 0, s.retrievalCfg.RecentWindow+1)
	for _, msg := range messages[start : len(messages)-1] {
		role := "user"
		if msg.Sender == domainChat.SenderAI {
			role = "assistant"
		}
		history = append(history, llm.Message{Role: role, Content: msg.Content})
	}

	history = append(history, llm.Message{Role: "user", Content: s.buildPrompt(state)})
	state.history = history

	// 记录组装后的提示词规模,估算器不可用时跳过
	if estimator, err := llm.GetTokenEstimator(); err == nil {
		logger.Debug("Prompt assembled",
			"historyMessages", len(history),
			"promptTokens", estimator.CountMessages(history))
	}
}

// buildPrompt 组装最终提示词
// 没有检索到任何上下文时只发送原始消息
func (s *Service) buildPrompt(state *sendState) string {
	if state.fileContext == "" && state.convContext == "" {
		return state.content
	}

	var sb strings.Builder
	sb.WriteString(contextPreamble)
	sb.WriteString("\n\n")
	if state.fileContext != "" {
		sb.WriteString("--- File context ---\n")
		sb.WriteString(state.fileContext)
		sb.WriteString("\n")
	}
	if state.convContext != "" {
		sb.WriteString("--- Conversation context ---\n")
		sb.WriteString(state.convContext)
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(state.content)
	return sb.String()
}

// formatContext 将检索结果拼接为带来源标注的文本块
func formatContext(results []rag.ScoredChunk) string {
	if len(results) == 0 {
		return ""
	}
	var sb strings.Builder
	for i, r := range results {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "[%s]\n%s", r.Label, r.Text)
	}
	return sb.String()
}
