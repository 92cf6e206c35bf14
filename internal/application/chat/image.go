package chat

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	domainChat "github.com/docchat/backend/internal/domain/chat"
	applog "github.com/docchat/backend/internal/infrastructure/log"
)

// ImageStore 临时图片存取能力
type ImageStore interface {
	// Load 读取图片内容,返回 base64 编码数据与 MIME 类型
	Load(imageID string) (data string, mimeType string, err error)
	// Delete 删除临时图片
	Delete(imageID string) error
}

// SendImageMessage 处理一次带图片的用户消息
// 与纯文本流程走同一套阶段,但跳过检索,消息文本不做向量化,
// 图片以多模态方式随消息一起发给生成端
// 临时图片在成功与失败路径上都尽力删除
func (s *Service) SendImageMessage(ctx context.Context, userID, conversationID, content, imageID string) (*SendResult, error) {
	ctx = applog.WithConversationID(applog.WithUserID(ctx, userID), conversationID)
	logger := s.logger.With(applog.LogCtxFromContext(ctx)...)

	if imageID == "" {
		return nil, fmt.Errorf("%w: image id is required", domainChat.ErrValidationFailure)
	}

	defer s.deleteImage(imageID, logger)

	conv, err := s.conversations.FindByIDAndUser(conversationID, userID)
	if err != nil {
		return nil, err
	}
	state := &sendState{userID: userID, content: content, conv: conv}

	imageData, mimeType, err := s.images.Load(imageID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load image %s: %v", domainChat.ErrValidationFailure, imageID, err)
	}

	// 图片消息不做文本向量化,直接入库
	msg := &domainChat.Message{
		ID:        uuid.New().String(),
		Sender:    domainChat.SenderUser,
		Content:   content,
		CreatedAt: time.Now(),
	}
	if err := s.conversations.AppendMessage(conv.ID, msg); err != nil {
		return nil, fmt.Errorf("failed to persist user message: %w", err)
	}
	conv.Messages = append(conv.Messages, msg)
	state.userMessage = msg

	s.push(userID, NewProcessingStartedEvent(conv.ID))

	reply, err := s.generator.StreamVision(content, mimeType, imageData, func(delta string) {
		s.push(userID, NewMessageChunkEvent(conv.ID, delta))
	})
	if err != nil {
		logger.Error("Vision generation failed", "error", err)
		s.push(userID, NewErrorEvent(conv.ID, err.Error()))
		return nil, err
	}
	state.reply = reply

	// 图片对话的标题触发条件放宽到前两条消息内
	if conv.MessageCount() <= 2 {
		state.title = s.generateTitle(content, reply, logger)
	}

	if err := s.appendReply(state, logger); err != nil {
		s.push(userID, NewErrorEvent(conv.ID, err.Error()))
		return nil, err
	}

	s.push(userID, NewProcessingCompletedEvent(conv.ID, state.title))
	logger.Info("Image message processed", "replyLength", len(state.reply), "title", state.title)

	return &SendResult{
		Reply:     state.reply,
		Title:     state.title,
		MessageID: msg.ID,
	}, nil
}

// deleteImage 尽力删除临时图片,失败只记录日志
func (s *Service) deleteImage(imageID string, logger *slog.Logger) {
	if err := s.images.Delete(imageID); err != nil {
		logger.Warn("Failed to delete transient image", "imageID", imageID, "error", err)
	}
}
