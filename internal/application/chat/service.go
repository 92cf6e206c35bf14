package chat

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/docchat/backend/internal/application/rag"
	domainChat "github.com/docchat/backend/internal/domain/chat"
	domainDocument "github.com/docchat/backend/internal/domain/document"
	"github.com/docchat/backend/internal/infrastructure/config"
	"github.com/docchat/backend/internal/infrastructure/llm"
	applog "github.com/docchat/backend/internal/infrastructure/log"
)

// Embedder 消息向量化能力
type Embedder interface {
	Embed(text string) ([]float32, error)
}

// Generator 文本生成能力,覆盖单轮补全、流式对话与多模态
type Generator interface {
	Complete(prompt string) (string, error)
	StreamChat(messages []llm.Message, onDelta func(delta string)) (string, error)
	StreamVision(text, imageMimeType, imageBase64 string, onDelta func(delta string)) (string, error)
}

// SendResult 发送消息的处理结果
type SendResult struct {
	Reply     string `json:"reply"`
	Title     string `json:"title,omitempty"`
	MessageID string `json:"messageId"`
}

// Service 会话编排服务
// 每个发送请求按固定阶段顺序执行:校验 → 向量化入库 → 总结 → 检索 → 流式生成 → 回复入库
type Service struct {
	conversations domainChat.Repository
	files         domainDocument.Repository
	embedder      Embedder
	generator     Generator
	retriever     *rag.Retriever
	summarizer    *rag.Summarizer
	pusher        Pusher
	images        ImageStore
	retrievalCfg  *config.RetrievalConfig
	logger        *slog.Logger
}

// NewService 创建会话编排服务
func NewService(
	conversations domainChat.Repository,
	files domainDocument.Repository,
	embedder Embedder,
	generator Generator,
	retriever *rag.Retriever,
	summarizer *rag.Summarizer,
	pusher Pusher,
	images ImageStore,
	retrievalCfg *config.RetrievalConfig,
) *Service {
	return &Service{
		conversations: conversations,
		files:         files,
		embedder:      embedder,
		generator:     generator,
		retriever:     retriever,
		summarizer:    summarizer,
		pusher:        pusher,
		images:        images,
		retrievalCfg:  retrievalCfg,
		logger:        applog.NewModuleLogger("chat", "service"),
	}
}

// CreateConversation 创建新会话
func (s *Service) CreateConversation(ctx context.Context, userID, title string) (*domainChat.Conversation, error) {
	if title == "" {
		title = "New Conversation"
	}
	now := time.Now()
	conv := &domainChat.Conversation{
		ID:        uuid.New().String(),
		UserID:    userID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.conversations.Create(conv); err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	s.logger.Info("Conversation created", "conversationID", conv.ID, "userID", userID)
	return conv, nil
}

// GetConversation 按 ID 获取会话,含消息与总结
func (s *Service) GetConversation(ctx context.Context, userID, conversationID string) (*domainChat.Conversation, error) {
	return s.conversations.FindByIDAndUser(conversationID, userID)
}

// ListConversations 列出用户的所有会话
func (s *Service) ListConversations(ctx context.Context, userID string) ([]*domainChat.Conversation, error) {
	return s.conversations.ListByUser(userID)
}

// DeleteConversation 删除会话
func (s *Service) DeleteConversation(ctx context.Context, userID, conversationID string) error {
	return s.conversations.Delete(conversationID, userID)
}

// sendState 单次发送请求的阶段上下文
// 各阶段读写该结构体而不是直接改动共享状态,便于单独测试失败路径
type sendState struct {
	userID  string
	content string

	conv        *domainChat.Conversation
	files       []*domainDocument.File
	userMessage *domainChat.Message

	fileContext string
	convContext string
	history     []llm.Message

	reply string
	title string
}

// SendMessage 处理一次用户消息并返回完整回复
// 流式片段在生成过程中实时推送,完整回复额外作为返回值交给调用方
// 失败时已入库的用户消息不会回滚
func (s *Service) SendMessage(ctx context.Context, userID, conversationID, content string, fileIDs []string) (*SendResult, error) {
	ctx = applog.WithConversationID(applog.WithUserID(ctx, userID), conversationID)
	logger := s.logger.With(applog.LogCtxFromContext(ctx)...)

	state := &sendState{userID: userID, content: content}

	// RECEIVED:校验会话归属
	conv, err := s.conversations.FindByIDAndUser(conversationID, userID)
	if err != nil {
		return nil, err
	}
	state.conv = conv

	if err := s.resolveFiles(state, fileIDs); err != nil {
		return nil, err
	}

	if err := s.appendUserMessage(state); err != nil {
		return nil, err
	}

	s.push(userID, NewProcessingStartedEvent(conv.ID))

	s.maybeSummarize(state, logger)

	// CONTEXT_GATHERED:收集文件与历史上下文
	s.gatherContext(state)
	s.buildHistory(state, logger)

	// GENERATING:流式生成,片段实时推送
	if err := s.generate(state); err != nil {
		logger.Error("Generation failed", "error", err)
		s.push(userID, NewErrorEvent(conv.ID, err.Error()))
		return nil, err
	}

	s.ensureTitle(state, logger)

	// COMPLETED:回复入库并通知
	if err := s.appendReply(state, logger); err != nil {
		s.push(userID, NewErrorEvent(conv.ID, err.Error()))
		return nil, err
	}

	s.push(userID, NewProcessingCompletedEvent(conv.ID, state.title))
	logger.Info("Message processed", "replyLength", len(state.reply), "title", state.title)

	return &SendResult{
		Reply:     state.reply,
		Title:     state.title,
		MessageID: state.userMessage.ID,
	}, nil
}

// resolveFiles 将文件 ID 解析为文件记录,任一文件不存在则整个请求失败
func (s *Service) resolveFiles(state *sendState, fileIDs []string) error {
	for _, fileID := range fileIDs {
		file, err := s.files.FindByIDAndUser(fileID, state.userID)
		if err != nil {
			return fmt.Errorf("failed to resolve file %s: %w", fileID, err)
		}
		state.files = append(state.files, file)
	}
	return nil
}

// appendUserMessage 向量化用户消息并入库
// 向量化失败降级为空向量,不阻塞请求;入库失败向上传播
func (s *Service) appendUserMessage(state *sendState) error {
	embedding, err := s.embedder.Embed(state.content)
	if err != nil {
		s.logger.Warn("Failed to embed user message, storing without embedding",
			"conversationID", state.conv.ID, "error", err)
		embedding = nil
	}

	msg := &domainChat.Message{
		ID:        uuid.New().String(),
		Sender:    domainChat.SenderUser,
		Content:   state.content,
		Embedding: embedding,
		CreatedAt: time.Now(),
	}
	for _, file := range state.files {
		msg.FileRefs = append(msg.FileRefs, domainChat.FileRef{
			FileID:   file.ID,
			FileName: file.Name,
		})
	}

	if err := s.conversations.AppendMessage(state.conv.ID, msg); err != nil {
		return fmt.Errorf("failed to persist user message: %w", err)
	}
	state.conv.Messages = append(state.conv.Messages, msg)
	state.userMessage = msg
	return nil
}

// maybeSummarize 到达触发点时总结最近一段历史
// 窗口是新消息之前的 window 条消息,不含触发总结的新消息本身
// 总结与入库失败都只记录日志,不中断请求
func (s *Service) maybeSummarize(state *sendState, logger *slog.Logger) {
	count := state.conv.MessageCount()
	if !s.summarizer.ShouldSummarize(count) {
		return
	}

	window := s.summarizer.Window()
	start := count - 1 - window
	if start < 0 {
		start = 0
	}
	summary := s.summarizer.Summarize(state.conv.Messages[start:count-1], start)

	if err := s.conversations.AppendSummary(state.conv.ID, summary); err != nil {
		logger.Warn("Failed to persist summary", "error", err)
		return
	}
	state.conv.Summaries = append(state.conv.Summaries, summary)
	logger.Info("Conversation window summarized",
		"rangeStart", summary.MessageRange.Start, "rangeEnd", summary.MessageRange.End)
}

// generate 流式调用生成能力,片段按到达顺序推送
func (s *Service) generate(state *sendState) error {
	reply, err := s.generator.StreamChat(state.history, func(delta string) {
		s.push(state.userID, NewMessageChunkEvent(state.conv.ID, delta))
	})
	if err != nil {
		return err
	}
	state.reply = reply
	return nil
}

// appendReply 向量化并入库 AI 回复,更新标题
// 回复向量化失败降级为空向量;标题入库失败只记录日志
func (s *Service) appendReply(state *sendState, logger *slog.Logger) error {
	embedding, err := s.embedder.Embed(state.reply)
	if err != nil {
		logger.Warn("Failed to embed reply, storing without embedding", "error", err)
		embedding = nil
	}

	msg := &domainChat.Message{
		ID:        uuid.New().String(),
		Sender:    domainChat.SenderAI,
		Content:   state.reply,
		Embedding: embedding,
		CreatedAt: time.Now(),
	}
	if err := s.conversations.AppendMessage(state.conv.ID, msg); err != nil {
		return fmt.Errorf("failed to persist reply: %w", err)
	}
	state.conv.Messages = append(state.conv.Messages, msg)

	if state.title != "" {
		if err := s.conversations.UpdateTitle(state.conv.ID, state.title); err != nil {
			logger.Warn("Failed to persist conversation title", "error", err)
		}
	}
	return nil
}

// push 尽力而为的事件推送,失败只记录日志
func (s *Service) push(userID string, event *Event) {
	if err := s.pusher.Push(userID, event); err != nil {
		s.logger.Warn("Failed to push event", "type", event.Type,
			"conversationID", event.ConversationID, "error", err)
	}
}
