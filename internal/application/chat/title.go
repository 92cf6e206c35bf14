package chat

import (
	"fmt"
	"log/slog"
	"strings"
)

const (
	// maxTitleLength 标题长度上限,超出后截断为 47 字符加省略号
	maxTitleLength = 50
	// fallbackTitleLength 降级标题取用户消息的前缀长度
	fallbackTitleLength = 27
)

// ensureTitle 首轮对话完成后生成会话标题
// 生成失败降级为用户消息前缀,任何来源的标题都受长度上限约束
func (s *Service) ensureTitle(state *sendState, logger *slog.Logger) {
	if !state.conv.IsFirstExchange() {
		return
	}
	state.title = s.generateTitle(state.content, state.reply, logger)
}

// generateTitle 根据首轮问答请求一个不超过 5 个单词的标题
func (s *Service) generateTitle(userMessage, reply string, logger *slog.Logger) string {
	prompt := fmt.Sprintf(`Generate a short title (at most 5 words) for a conversation that starts with this exchange.
Reply with the title only, no quotes and no punctuation at the end.

User: %s
AI: %s`, userMessage, reply)

	title, err := s.generator.Complete(prompt)
	if err != nil {
		logger.Warn("Title generation failed, using fallback", "error", err)
		return truncateTitle(fallbackTitle(userMessage))
	}
	title = strings.Trim(strings.TrimSpace(title), `"`)
	if title == "" {
		return truncateTitle(fallbackTitle(userMessage))
	}
	return truncateTitle(title)
}

// fallbackTitle 用用户消息前缀构造降级标题
func fallbackTitle(userMessage string) string {
	runes := []rune(userMessage)
	if len(runes) <= fallbackTitleLength {
		return userMessage
	}
	return string(runes[:fallbackTitleLength]) + "..."
}

// truncateTitle 标题超长时截断,按字符计数避免截断多字节字符
func truncateTitle(title string) string {
	runes := []rune(title)
	if len(runes) <= maxTitleLength {
		return title
	}
	return string(runes[:maxTitleLength-3]) + "..."
}
