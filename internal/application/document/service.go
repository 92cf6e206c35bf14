package document

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/docchat/backend/internal/application/rag"
	domainChat "github.com/docchat/backend/internal/domain/chat"
	domainDocument "github.com/docchat/backend/internal/domain/document"
	"github.com/docchat/backend/internal/infrastructure/llm"
	applog "github.com/docchat/backend/internal/infrastructure/log"
)

// Embedder 批量向量化能力
// 单个切片的向量化失败降级为空向量,不中断整批处理
type Embedder interface {
	EmbedAll(texts []string, sourceLabel string) []domainDocument.Chunk
}

// Service 文件入库服务
// 提取文本经切片、向量化后持久化,供会话检索使用
type Service struct {
	files    domainDocument.Repository
	chunker  *rag.Chunker
	embedder Embedder
	logger   *slog.Logger
}

// NewService 创建文件入库服务
func NewService(files domainDocument.Repository, chunker *rag.Chunker, embedder Embedder) *Service {
	return &Service{
		files:    files,
		chunker:  chunker,
		embedder: embedder,
		logger:   applog.NewModuleLogger("document", "service"),
	}
}

// Ingest 将提取文本切片、向量化并保存为文件记录
func (s *Service) Ingest(ctx context.Context, userID, name, fileType, extractedText string) (*domainDocument.File, error) {
	if strings.TrimSpace(extractedText) == "" {
		return nil, fmt.Errorf("%w: extracted text is empty", domainChat.ErrValidationFailure)
	}

	logger := s.logger.With("userID", userID, "fileName", name)

	texts := s.chunker.SplitText(extractedText)
	chunks := s.embedder.EmbedAll(texts, name)

	file := &domainDocument.File{
		ID:            uuid.New().String(),
		UserID:        userID,
		Name:          name,
		Type:          fileType,
		ExtractedText: extractedText,
		Chunks:        chunks,
		CreatedAt:     time.Now(),
	}
	if err := s.files.Create(file); err != nil {
		return nil, fmt.Errorf("failed to persist file: %w", err)
	}

	logger.Info("File ingested",
		"fileID", file.ID, "chunks", len(chunks), "tokens", estimateTokens(extractedText))
	return file, nil
}

// GetFile 按 ID 获取文件
func (s *Service) GetFile(ctx context.Context, userID, fileID string) (*domainDocument.File, error) {
	return s.files.FindByIDAndUser(fileID, userID)
}

// ListFiles 列出用户的所有文件
func (s *Service) ListFiles(ctx context.Context, userID string) ([]*domainDocument.File, error) {
	return s.files.ListByUser(userID)
}

// DeleteFile 删除文件
func (s *Service) DeleteFile(ctx context.Context, userID, fileID string) error {
	return s.files.Delete(fileID, userID)
}

// estimateTokens 估算文本 Token 数,估算器不可用时返回 0
func estimateTokens(text string) int {
	estimator, err := llm.GetTokenEstimator()
	if err != nil {
		return 0
	}
	return estimator.CountTokens(text)
}
