package watcher

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/docchat/backend/internal/domain/document"
	"github.com/docchat/backend/internal/infrastructure/config"
	applog "github.com/docchat/backend/internal/infrastructure/log"
)

// debounceDelay 写入事件的防抖延迟,等待文件写完再入库
const debounceDelay = 500 * time.Millisecond

// Ingester 文件入库能力,由应用层实现
type Ingester interface {
	Ingest(ctx context.Context, userID, name, fileType, extractedText string) (*document.File, error)
}

// IngestWatcher 监听投递目录
// 投入目录的文本文件自动切片入库,入库成功后删除源文件
type IngestWatcher struct {
	cfg      *config.IngestConfig
	ingester Ingester
	watcher  *fsnotify.Watcher
	logger   *slog.Logger

	debounceTimers map[string]*time.Timer
	debounceMu     sync.Mutex

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewIngestWatcher 创建目录监听器
func NewIngestWatcher(cfg *config.IngestConfig, ingester Ingester) (*IngestWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &IngestWatcher{
		cfg:            cfg,
		ingester:       ingester,
		watcher:        watcher,
		logger:         applog.NewModuleLogger("watcher", "ingest"),
		debounceTimers: make(map[string]*time.Timer),
		stopCh:         make(chan struct{}),
	}, nil
}

// Start 启动监听,先处理目录中已存在的文件
func (w *IngestWatcher) Start() error {
	if !w.cfg.Enabled || w.cfg.WatchDir == "" {
		w.logger.Info("Ingest watcher disabled")
		return nil
	}

	if err := os.MkdirAll(w.cfg.WatchDir, 0o755); err != nil {
		return err
	}

	w.logger.Info("Starting ingest watcher", "dir", w.cfg.WatchDir)

	w.scanExisting()

	if err := w.watcher.Add(w.cfg.WatchDir); err != nil {
		return err
	}

	w.wg.Add(1)
	go w.watchLoop()
	return nil
}

// Stop 停止监听
func (w *IngestWatcher) Stop() {
	if !w.cfg.Enabled || w.cfg.WatchDir == "" {
		return
	}

	close(w.stopCh)
	w.watcher.Close()
	w.wg.Wait()

	w.debounceMu.Lock()
	for _, timer := range w.debounceTimers {
		timer.Stop()
	}
	w.debounceMu.Unlock()

	w.logger.Info("Ingest watcher stopped")
}

// scanExisting 处理启动前已投入目录的文件
func (w *IngestWatcher) scanExisting() {
	entries, err := os.ReadDir(w.cfg.WatchDir)
	if err != nil {
		w.logger.Error("Failed to read watch directory", "error", err)
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(w.cfg.WatchDir, entry.Name())
		if isIngestable(path) {
			w.ingestFile(path)
		}
	}
}

// watchLoop 事件处理循环
func (w *IngestWatcher) watchLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleFsEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Watcher error", "error", err)
		}
	}
}

// handleFsEvent 带防抖地处理创建与写入事件
// 防抖保证大文件写入完成后才读取
func (w *IngestWatcher) handleFsEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	if !isIngestable(event.Name) {
		return
	}

	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if timer, exists := w.debounceTimers[event.Name]; exists {
		timer.Stop()
	}
	w.debounceTimers[event.Name] = time.AfterFunc(debounceDelay, func() {
		w.ingestFile(event.Name)

		w.debounceMu.Lock()
		delete(w.debounceTimers, event.Name)
		w.debounceMu.Unlock()
	})
}

// ingestFile 读取并入库单个文件,成功后删除源文件避免重复入库
func (w *IngestWatcher) ingestFile(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		w.logger.Error("Failed to read dropped file", "path", path, "error", err)
		return
	}

	name := filepath.Base(path)
	if _, err := w.ingester.Ingest(context.Background(), w.cfg.UserID, name, fileType(path), string(data)); err != nil {
		w.logger.Error("Failed to ingest dropped file", "path", path, "error", err)
		return
	}

	if err := os.Remove(path); err != nil {
		w.logger.Warn("Failed to remove ingested file", "path", path, "error", err)
	}
	w.logger.Info("Dropped file ingested", "file", name)
}

// isIngestable 只处理纯文本类文件
func isIngestable(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md", ".markdown", ".log", ".csv":
		return true
	}
	return false
}

func fileType(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}
