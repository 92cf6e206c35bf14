package handler

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appChat "github.com/docchat/backend/internal/application/chat"
	appDocument "github.com/docchat/backend/internal/application/document"
	"github.com/docchat/backend/internal/application/rag"
	domainDocument "github.com/docchat/backend/internal/domain/document"
	"github.com/docchat/backend/internal/infrastructure/config"
	"github.com/docchat/backend/internal/infrastructure/llm"
	"github.com/docchat/backend/internal/infrastructure/storage"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// stubEmbedder 固定向量的向量化桩
type stubEmbedder struct{}

func (stubEmbedder) Embed(text string) ([]float32, error) {
	return []float32{1, 0}, nil
}

// stubGenerator 固定回复的生成桩
type stubGenerator struct{}

func (stubGenerator) Complete(prompt string) (string, error) {
	return "Stub Title", nil
}

func (stubGenerator) StreamChat(messages []llm.Message, onDelta func(string)) (string, error) {
	onDelta("stub reply")
	return "stub reply", nil
}

func (stubGenerator) StreamVision(text, mimeType, data string, onDelta func(string)) (string, error) {
	onDelta("vision reply")
	return "vision reply", nil
}

// noopPusher 丢弃事件的推送桩
type noopPusher struct{}

func (noopPusher) Push(userID string, event *appChat.Event) error { return nil }

// noopImageStore 空图片存储桩
type noopImageStore struct{}

func (noopImageStore) Load(imageID string) (string, string, error) { return "aW1n", "image/png", nil }
func (noopImageStore) Delete(imageID string) error                 { return nil }

// setupRouter 用临时数据库和桩依赖搭建路由
func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()

	tmpDir := t.TempDir()
	db, err := storage.ProvideDB(&config.DatabaseConfig{Path: filepath.Join(tmpDir, "test.db")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	convRepo := storage.NewConversationRepository(db)
	fileRepo := storage.NewFileRepository(db)

	embedder := stubEmbedder{}
	generator := stubGenerator{}
	retrievalCfg := &config.RetrievalConfig{FileTopK: 3, ConversationTopK: 3, SummaryTopK: 1, RecentWindow: 5, MinMessages: 6}

	chatService := appChat.NewService(
		convRepo, fileRepo, embedder, generator,
		rag.NewRetriever(embedder),
		rag.NewSummarizer(generator, embedder, &config.SummarizeConfig{Interval: 10, Window: 10}),
		noopPusher{}, noopImageStore{}, retrievalCfg,
	)
	documentService := appDocument.NewService(
		fileRepo,
		rag.NewChunker(&config.ChunkingConfig{MaxChunkSize: 1000, Overlap: 100}),
		embedAllStub{},
	)

	chatHandler := NewChatHandler(chatService)
	fileHandler := NewFileHandler(documentService, nil)

	router := gin.New()
	api := router.Group("/api/v1")
	api.POST("/conversations", chatHandler.Create)
	api.GET("/conversations", chatHandler.List)
	api.GET("/conversations/:id", chatHandler.Get)
	api.DELETE("/conversations/:id", chatHandler.Delete)
	api.POST("/conversations/:id/messages", chatHandler.SendMessage)
	api.POST("/files", fileHandler.Upload)
	api.GET("/files", fileHandler.List)
	return router
}

// embedAllStub 批量向量化桩
type embedAllStub struct{}

func (embedAllStub) EmbedAll(texts []string, sourceLabel string) []domainDocument.Chunk {
	chunks := make([]domainDocument.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = domainDocument.Chunk{Text: text, Embedding: []float32{1, 0}, SourceLabel: sourceLabel}
	}
	return chunks
}

// doJSON 发送 JSON 请求并解析统一响应
func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var parsed map[string]interface{}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &parsed))
	}
	return rec, parsed
}

// TestConversationLifecycle 创建、发送消息、查询、删除的完整流程
func TestConversationLifecycle(t *testing.T) {
	router := setupRouter(t)

	// 创建会话
	rec, resp := doJSON(t, router, http.MethodPost, "/api/v1/conversations", gin.H{"title": "Test Chat"})
	require.Equal(t, http.StatusOK, rec.Code)
	conv := resp["data"].(map[string]interface{})
	convID := conv["id"].(string)
	require.NotEmpty(t, convID)

	// 发送消息
	rec, resp = doJSON(t, router, http.MethodPost, "/api/v1/conversations/"+convID+"/messages", gin.H{"content": "Hello"})
	require.Equal(t, http.StatusOK, rec.Code)
	result := resp["data"].(map[string]interface{})
	assert.Equal(t, "stub reply", result["reply"])
	assert.Equal(t, "Stub Title", result["title"])

	// 查询详情,含两条消息
	rec, resp = doJSON(t, router, http.MethodGet, "/api/v1/conversations/"+convID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	detail := resp["data"].(map[string]interface{})
	messages := detail["messages"].([]interface{})
	assert.Len(t, messages, 2)
	assert.Equal(t, "Stub Title", detail["title"])

	// 删除会话
	rec, _ = doJSON(t, router, http.MethodDelete, "/api/v1/conversations/"+convID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = doJSON(t, router, http.MethodGet, "/api/v1/conversations/"+convID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// TestSendMessage_UnknownConversation 不存在的会话返回 404
func TestSendMessage_UnknownConversation(t *testing.T) {
	router := setupRouter(t)

	rec, _ := doJSON(t, router, http.MethodPost, "/api/v1/conversations/missing/messages", gin.H{"content": "Hello"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// TestSendMessage_MissingContent 缺少消息内容返回 400
func TestSendMessage_MissingContent(t *testing.T) {
	router := setupRouter(t)

	rec, _ := doJSON(t, router, http.MethodPost, "/api/v1/conversations/any/messages", gin.H{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// TestFileUploadAndList 文件上传入库后出现在列表中
func TestFileUploadAndList(t *testing.T) {
	router := setupRouter(t)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "notes.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("Some document content to ingest."))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/files", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	listRec, resp := doJSON(t, router, http.MethodGet, "/api/v1/files", nil)
	require.Equal(t, http.StatusOK, listRec.Code)
	files := resp["data"].([]interface{})
	require.Len(t, files, 1)
	assert.Equal(t, "notes.txt", files[0].(map[string]interface{})["name"])
}
