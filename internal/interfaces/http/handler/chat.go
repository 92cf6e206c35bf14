package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	appChat "github.com/docchat/backend/internal/application/chat"
	domainChat "github.com/docchat/backend/internal/domain/chat"
	"github.com/docchat/backend/internal/interfaces/http/response"
)

// ChatHandler 会话处理器
type ChatHandler struct {
	service *appChat.Service
}

// NewChatHandler 创建会话处理器
func NewChatHandler(service *appChat.Service) *ChatHandler {
	return &ChatHandler{service: service}
}

// CreateConversationRequest 创建会话请求
type CreateConversationRequest struct {
	Title string `json:"title"`
}

// SendMessageRequest 发送消息请求
type SendMessageRequest struct {
	Content string   `json:"content" binding:"required"`
	FileIDs []string `json:"fileIds"`
}

// SendImageMessageRequest 发送图片消息请求
type SendImageMessageRequest struct {
	Content string `json:"content"`
	ImageID string `json:"imageId" binding:"required"`
}

// ConversationDTO 会话 DTO
type ConversationDTO struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	Messages  []*MessageDTO `json:"messages,omitempty"`
	CreatedAt int64         `json:"createdAt"` // Unix 毫秒时间戳
	UpdatedAt int64         `json:"updatedAt"` // Unix 毫秒时间戳
}

// MessageDTO 消息 DTO
type MessageDTO struct {
	ID        string               `json:"id"`
	Sender    string               `json:"sender"`
	Content   string               `json:"content"`
	FileRefs  []domainChat.FileRef `json:"fileRefs,omitempty"`
	CreatedAt int64                `json:"createdAt"` // Unix 毫秒时间戳
}

// toConversationDTO 将领域模型转换为 DTO,向量不对外暴露
func toConversationDTO(conv *domainChat.Conversation, withMessages bool) *ConversationDTO {
	dto := &ConversationDTO{
		ID:        conv.ID,
		Title:     conv.Title,
		CreatedAt: conv.CreatedAt.UnixMilli(),
		UpdatedAt: conv.UpdatedAt.UnixMilli(),
	}
	if withMessages {
		dto.Messages = make([]*MessageDTO, 0, len(conv.Messages))
		for _, msg := range conv.Messages {
			dto.Messages = append(dto.Messages, &MessageDTO{
				ID:        msg.ID,
				Sender:    string(msg.Sender),
				Content:   msg.Content,
				FileRefs:  msg.FileRefs,
				CreatedAt: msg.CreatedAt.UnixMilli(),
			})
		}
	}
	return dto
}

// Create 创建会话
// @Summary 创建会话
// @Tags 会话
// @Accept json
// @Produce json
// @Param request body CreateConversationRequest true "创建会话请求"
// @Success 200 {object} response.Response
// @Router /conversations [post]
func (h *ChatHandler) Create(c *gin.Context) {
	var req CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, 100001, "invalid request body")
		return
	}

	conv, err := h.service.CreateConversation(c.Request.Context(), userID(c), req.Title)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, 100002, "failed to create conversation")
		return
	}
	response.Success(c, toConversationDTO(conv, false))
}

// List 会话列表
// @Summary 会话列表
// @Tags 会话
// @Produce json
// @Success 200 {object} response.Response
// @Router /conversations [get]
func (h *ChatHandler) List(c *gin.Context) {
	convs, err := h.service.ListConversations(c.Request.Context(), userID(c))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, 100003, "failed to list conversations")
		return
	}

	dtos := make([]*ConversationDTO, 0, len(convs))
	for _, conv := range convs {
		dtos = append(dtos, toConversationDTO(conv, false))
	}
	response.Success(c, dtos)
}

// Get 会话详情,含消息
// @Summary 会话详情
// @Tags 会话
// @Produce json
// @Param id path string true "会话 ID"
// @Success 200 {object} response.Response
// @Router /conversations/{id} [get]
func (h *ChatHandler) Get(c *gin.Context) {
	conv, err := h.service.GetConversation(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		if errors.Is(err, domainChat.ErrNotFound) {
			response.Error(c, http.StatusNotFound, 100004, "conversation not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, 100005, "failed to load conversation")
		return
	}
	response.Success(c, toConversationDTO(conv, true))
}

// Delete 删除会话
// @Summary 删除会话
// @Tags 会话
// @Produce json
// @Param id path string true "会话 ID"
// @Success 200 {object} response.Response
// @Router /conversations/{id} [delete]
func (h *ChatHandler) Delete(c *gin.Context) {
	if err := h.service.DeleteConversation(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		response.Error(c, http.StatusInternalServerError, 100006, "failed to delete conversation")
		return
	}
	response.Success(c, nil)
}

// SendMessage 发送消息
// 完整回复随响应返回,流式片段通过 WebSocket 推送
// @Summary 发送消息
// @Tags 会话
// @Accept json
// @Produce json
// @Param id path string true "会话 ID"
// @Param request body SendMessageRequest true "发送消息请求"
// @Success 200 {object} response.Response
// @Router /conversations/{id}/messages [post]
func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, 100007, "invalid request body")
		return
	}

	result, err := h.service.SendMessage(c.Request.Context(), userID(c), c.Param("id"), req.Content, req.FileIDs)
	if err != nil {
		h.sendError(c, err)
		return
	}
	response.Success(c, result)
}

// SendImageMessage 发送图片消息
// @Summary 发送图片消息
// @Tags 会话
// @Accept json
// @Produce json
// @Param id path string true "会话 ID"
// @Param request body SendImageMessageRequest true "发送图片消息请求"
// @Success 200 {object} response.Response
// @Router /conversations/{id}/images [post]
func (h *ChatHandler) SendImageMessage(c *gin.Context) {
	var req SendImageMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, 100008, "invalid request body")
		return
	}

	result, err := h.service.SendImageMessage(c.Request.Context(), userID(c), c.Param("id"), req.Content, req.ImageID)
	if err != nil {
		h.sendError(c, err)
		return
	}
	response.Success(c, result)
}

// sendError 按错误类别映射状态码,上游错误详情透传给调用方
func (h *ChatHandler) sendError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domainChat.ErrNotFound):
		response.Error(c, http.StatusNotFound, 100004, "conversation not found")
	case errors.Is(err, domainChat.ErrValidationFailure):
		response.ErrorWithDetail(c, http.StatusBadRequest, 100009, "validation failed", err.Error())
	case errors.Is(err, domainChat.ErrGenerationFailure):
		response.ErrorWithDetail(c, http.StatusBadGateway, 100010, "generation failed", err.Error())
	case errors.Is(err, domainChat.ErrEmbeddingFailure):
		response.ErrorWithDetail(c, http.StatusBadGateway, 100011, "embedding failed", err.Error())
	default:
		response.ErrorWithDetail(c, http.StatusInternalServerError, 100012, "failed to process message", err.Error())
	}
}
