package storage

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	appChat "github.com/docchat/backend/internal/application/chat"
	"github.com/docchat/backend/internal/infrastructure/config"
	applog "github.com/docchat/backend/internal/infrastructure/log"
)

// ImageStore 临时图片的磁盘存储
// 图片只在一次多模态请求的生命周期内存在,请求结束后删除
type ImageStore struct {
	dir    string
	logger *slog.Logger
}

// NewImageStore 创建图片存储,目录在数据目录下的 images 子目录
func NewImageStore() (*ImageStore, error) {
	dir := filepath.Join(config.GetDataDir(), "images")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create image dir: %w", err)
	}
	return &ImageStore{
		dir:    dir,
		logger: applog.NewModuleLogger("storage", "images"),
	}, nil
}

// Save 保存图片内容,返回生成的图片 ID
// MIME 类型编码进文件名,读取时恢复
func (s *ImageStore) Save(data []byte, mimeType string) (string, error) {
	id := uuid.New().String()
	path := s.path(id, mimeType)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}
	s.logger.Debug("Image saved", "imageID", id, "bytes", len(data))
	return id, nil
}

// Load 读取图片,返回 base64 编码内容与 MIME 类型
func (s *ImageStore) Load(imageID string) (string, string, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, imageID+".*"))
	if err != nil || len(matches) == 0 {
		return "", "", fmt.Errorf("image %s not found", imageID)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		return "", "", fmt.Errorf("failed to read image: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), mimeFromPath(matches[0]), nil
}

// Delete 删除图片,文件不存在视为成功
func (s *ImageStore) Delete(imageID string) error {
	matches, err := filepath.Glob(filepath.Join(s.dir, imageID+".*"))
	if err != nil {
		return err
	}
	for _, path := range matches {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

// path 文件名形如 <id>.<ext>,扩展名由 MIME 类型推导
func (s *ImageStore) path(id, mimeType string) string {
	return filepath.Join(s.dir, id+"."+extFromMime(mimeType))
}

func extFromMime(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return "jpg"
	case "image/gif":
		return "gif"
	case "image/webp":
		return "webp"
	default:
		return "png"
	}
}

func mimeFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "image/png"
	}
}

// 编译时检查接口实现
var _ appChat.ImageStore = (*ImageStore)(nil)
