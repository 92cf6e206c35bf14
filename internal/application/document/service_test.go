package document

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docchat/backend/internal/application/rag"
	domainChat "github.com/docchat/backend/internal/domain/chat"
	domainDocument "github.com/docchat/backend/internal/domain/document"
	"github.com/docchat/backend/internal/infrastructure/config"
)

// memFileRepo 内存文件仓库
type memFileRepo struct {
	files map[string]*domainDocument.File
}

func newMemFileRepo() *memFileRepo {
	return &memFileRepo{files: make(map[string]*domainDocument.File)}
}

func (r *memFileRepo) Create(file *domainDocument.File) error {
	r.files[file.ID] = file
	return nil
}

func (r *memFileRepo) FindByIDAndUser(id, userID string) (*domainDocument.File, error) {
	file, ok := r.files[id]
	if !ok || file.UserID != userID {
		return nil, domainChat.ErrNotFound
	}
	return file, nil
}

func (r *memFileRepo) ListByUser(userID string) ([]*domainDocument.File, error) {
	var out []*domainDocument.File
	for _, file := range r.files {
		if file.UserID == userID {
			out = append(out, file)
		}
	}
	return out, nil
}

func (r *memFileRepo) Delete(id, userID string) error {
	delete(r.files, id)
	return nil
}

// fixedEmbedder 为每段文本返回固定向量
type fixedEmbedder struct{}

func (fixedEmbedder) EmbedAll(texts []string, sourceLabel string) []domainDocument.Chunk {
	chunks := make([]domainDocument.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = domainDocument.Chunk{
			Text:        text,
			Embedding:   []float32{1, float32(i)},
			SourceLabel: sourceLabel,
		}
	}
	return chunks
}

func newTestService() (*Service, *memFileRepo) {
	repo := newMemFileRepo()
	chunker := rag.NewChunker(&config.ChunkingConfig{MaxChunkSize: 100, Overlap: 10})
	return NewService(repo, chunker, fixedEmbedder{}), repo
}

// TestIngest_ChunksAndPersists 文本被切片向量化后保存
func TestIngest_ChunksAndPersists(t *testing.T) {
	service, repo := newTestService()
	text := strings.Repeat("A sentence with content. ", 20)

	file, err := service.Ingest(context.Background(), "u1", "doc.txt", "text", text)

	require.NoError(t, err)
	assert.NotEmpty(t, file.ID)
	assert.Greater(t, len(file.Chunks), 1)
	for _, chunk := range file.Chunks {
		assert.True(t, chunk.HasEmbedding())
		assert.Equal(t, "doc.txt", chunk.SourceLabel)
	}

	stored, err := repo.FindByIDAndUser(file.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, len(file.Chunks), len(stored.Chunks))
}

// TestIngest_ShortTextSingleChunk 短文本保存为单个切片
func TestIngest_ShortTextSingleChunk(t *testing.T) {
	service, _ := newTestService()

	file, err := service.Ingest(context.Background(), "u1", "note.txt", "text", "Short note.")

	require.NoError(t, err)
	require.Len(t, file.Chunks, 1)
	assert.Equal(t, "Short note.", file.Chunks[0].Text)
}

// TestIngest_EmptyTextRejected 空文本是校验错误
func TestIngest_EmptyTextRejected(t *testing.T) {
	service, _ := newTestService()

	_, err := service.Ingest(context.Background(), "u1", "empty.txt", "text", "   ")

	assert.ErrorIs(t, err, domainChat.ErrValidationFailure)
}

// TestGetFile_WrongUserNotFound 其他用户不可见
func TestGetFile_WrongUserNotFound(t *testing.T) {
	service, _ := newTestService()
	file, err := service.Ingest(context.Background(), "u1", "doc.txt", "text", "Some content.")
	require.NoError(t, err)

	_, err = service.GetFile(context.Background(), "u2", file.ID)
	assert.ErrorIs(t, err, domainChat.ErrNotFound)
}
