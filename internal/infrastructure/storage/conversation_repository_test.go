package storage

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	domainChat "github.com/docchat/backend/internal/domain/chat"
	"github.com/docchat/backend/internal/domain/document"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// setupTestDB 创建临时测试数据库
func setupTestDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "docchat_test_*")
	require.NoError(t, err)

	dbPath := filepath.Join(tmpDir, "test.db")
	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)

	require.NoError(t, initSchema(db))

	cleanup := func() {
		db.Close()
		os.RemoveAll(tmpDir)
	}

	return db, cleanup
}

func newTestConversation(id, userID string) *domainChat.Conversation {
	now := time.Now()
	return &domainChat.Conversation{
		ID:        id,
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestConversationRepository_CreateAndFind(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewConversationRepository(db)

	conv := newTestConversation("conv-1", "user-1")
	require.NoError(t, repo.Create(conv))

	found, err := repo.FindByIDAndUser("conv-1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, "conv-1", found.ID)
	assert.Empty(t, found.Messages)
	assert.Empty(t, found.Summaries)
}

func TestConversationRepository_FindWrongUser(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewConversationRepository(db)
	require.NoError(t, repo.Create(newTestConversation("conv-1", "user-1")))

	// 其他用户不可见
	_, err := repo.FindByIDAndUser("conv-1", "user-2")
	assert.ErrorIs(t, err, domainChat.ErrNotFound)
}

func TestConversationRepository_AppendMessageOrder(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewConversationRepository(db)
	require.NoError(t, repo.Create(newTestConversation("conv-1", "user-1")))

	first := &domainChat.Message{
		ID:        "msg-1",
		Sender:    domainChat.SenderUser,
		Content:   "你好",
		Embedding: []float32{0.1, 0.2},
		FileRefs:  []domainChat.FileRef{{FileID: "f-1", FileName: "notes.txt"}},
		CreatedAt: time.Now(),
	}
	second := &domainChat.Message{
		ID:        "msg-2",
		Sender:    domainChat.SenderAI,
		Content:   "你好，有什么可以帮你？",
		CreatedAt: time.Now(),
	}

	require.NoError(t, repo.AppendMessage("conv-1", first))
	require.NoError(t, repo.AppendMessage("conv-1", second))

	found, err := repo.FindByIDAndUser("conv-1", "user-1")
	require.NoError(t, err)
	require.Len(t, found.Messages, 2)

	// 顺序即追加顺序
	assert.Equal(t, "msg-1", found.Messages[0].ID)
	assert.Equal(t, "msg-2", found.Messages[1].ID)
	assert.Equal(t, []float32{0.1, 0.2}, found.Messages[0].Embedding)
	assert.Equal(t, "notes.txt", found.Messages[0].FileRefs[0].FileName)
	// 空向量读回为 nil
	assert.Nil(t, found.Messages[1].Embedding)
}

func TestConversationRepository_AppendSummary(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewConversationRepository(db)
	require.NoError(t, repo.Create(newTestConversation("conv-1", "user-1")))

	summary := &domainChat.Summary{
		Text:         "讨论了部署流程",
		Embedding:    []float32{0.3},
		MessageRange: domainChat.MessageRange{Start: 9, End: 19},
		CreatedAt:    time.Now(),
	}
	require.NoError(t, repo.AppendSummary("conv-1", summary))

	found, err := repo.FindByIDAndUser("conv-1", "user-1")
	require.NoError(t, err)
	require.Len(t, found.Summaries, 1)
	assert.Equal(t, 9, found.Summaries[0].MessageRange.Start)
	assert.Equal(t, 19, found.Summaries[0].MessageRange.End)
}

func TestConversationRepository_UpdateTitle(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewConversationRepository(db)
	require.NoError(t, repo.Create(newTestConversation("conv-1", "user-1")))

	require.NoError(t, repo.UpdateTitle("conv-1", "部署问题排查"))

	found, err := repo.FindByIDAndUser("conv-1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, "部署问题排查", found.Title)

	assert.ErrorIs(t, repo.UpdateTitle("missing", "x"), domainChat.ErrNotFound)
}

func TestConversationRepository_Delete(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewConversationRepository(db)
	require.NoError(t, repo.Create(newTestConversation("conv-1", "user-1")))
	require.NoError(t, repo.AppendMessage("conv-1", &domainChat.Message{
		ID: "msg-1", Sender: domainChat.SenderUser, Content: "hi", CreatedAt: time.Now(),
	}))

	require.NoError(t, repo.Delete("conv-1", "user-1"))

	_, err := repo.FindByIDAndUser("conv-1", "user-1")
	assert.ErrorIs(t, err, domainChat.ErrNotFound)
}

func TestFileRepository_CreateAndFind(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewFileRepository(db)

	file := &document.File{
		ID:            "file-1",
		UserID:        "user-1",
		Name:          "manual.txt",
		Type:          "text/plain",
		ExtractedText: "完整文本内容",
		Chunks: []document.Chunk{
			{Text: "切片一", Embedding: []float32{0.1}, SourceLabel: "manual.txt"},
			{Text: "切片二", SourceLabel: "manual.txt"},
		},
		CreatedAt: time.Now(),
	}
	require.NoError(t, repo.Create(file))

	found, err := repo.FindByIDAndUser("file-1", "user-1")
	require.NoError(t, err)
	require.Len(t, found.Chunks, 2)
	assert.Equal(t, "切片一", found.Chunks[0].Text)
	assert.False(t, found.Chunks[1].HasEmbedding())

	_, err = repo.FindByIDAndUser("file-1", "user-2")
	assert.ErrorIs(t, err, domainChat.ErrNotFound)
}
