package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docchat/backend/internal/domain/document"
	"github.com/docchat/backend/internal/infrastructure/config"
)

// recordingIngester 记录入库调用的桩
type recordingIngester struct {
	mu    sync.Mutex
	names []string
	texts []string
}

func (r *recordingIngester) Ingest(ctx context.Context, userID, name, fileType, extractedText string) (*document.File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names = append(r.names, name)
	r.texts = append(r.texts, extractedText)
	return &document.File{ID: "f1", Name: name}, nil
}

func (r *recordingIngester) ingested() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.names...)
}

// TestIngestWatcher_PicksUpExistingFiles 启动时处理目录中已有的文件
func TestIngestWatcher_PicksUpExistingFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "existing.txt"), []byte("Pre-existing content."), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.bin"), []byte{0x1}, 0o644))

	ingester := &recordingIngester{}
	w, err := NewIngestWatcher(&config.IngestConfig{Enabled: true, WatchDir: dir, UserID: "local"}, ingester)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	names := ingester.ingested()
	require.Len(t, names, 1)
	assert.Equal(t, "existing.txt", names[0])
	// 入库成功后源文件被删除
	_, statErr := os.Stat(filepath.Join(dir, "existing.txt"))
	assert.True(t, os.IsNotExist(statErr))
	// 非文本文件不处理
	_, statErr = os.Stat(filepath.Join(dir, "ignored.bin"))
	assert.NoError(t, statErr)
}

// TestIngestWatcher_IngestsDroppedFile 新投入的文件在防抖后入库
func TestIngestWatcher_IngestsDroppedFile(t *testing.T) {
	dir := t.TempDir()
	ingester := &recordingIngester{}
	w, err := NewIngestWatcher(&config.IngestConfig{Enabled: true, WatchDir: dir, UserID: "local"}, ingester)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "dropped.md"), []byte("# Notes"), 0o644))

	require.Eventually(t, func() bool {
		return len(ingester.ingested()) == 1
	}, 5*time.Second, 50*time.Millisecond)
	assert.Equal(t, "dropped.md", ingester.ingested()[0])
}

// TestIngestWatcher_DisabledIsNoop 未启用时启动与停止都是空操作
func TestIngestWatcher_DisabledIsNoop(t *testing.T) {
	ingester := &recordingIngester{}
	w, err := NewIngestWatcher(&config.IngestConfig{Enabled: false}, ingester)
	require.NoError(t, err)

	require.NoError(t, w.Start())
	w.Stop()
	assert.Empty(t, ingester.ingested())
}
