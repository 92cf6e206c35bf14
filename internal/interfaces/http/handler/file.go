package handler

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	appDocument "github.com/docchat/backend/internal/application/document"
	domainChat "github.com/docchat/backend/internal/domain/chat"
	domainDocument "github.com/docchat/backend/internal/domain/document"
	"github.com/docchat/backend/internal/infrastructure/storage"
	"github.com/docchat/backend/internal/interfaces/http/response"
)

// maxUploadSize 上传大小上限
const maxUploadSize = 20 << 20

// FileHandler 文件处理器
type FileHandler struct {
	service *appDocument.Service
	images  *storage.ImageStore
}

// NewFileHandler 创建文件处理器
func NewFileHandler(service *appDocument.Service, images *storage.ImageStore) *FileHandler {
	return &FileHandler{service: service, images: images}
}

// FileDTO 文件 DTO
type FileDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Chunks    int    `json:"chunks"`
	CreatedAt int64  `json:"createdAt"` // Unix 毫秒时间戳
}

func toFileDTO(file *domainDocument.File) *FileDTO {
	return &FileDTO{
		ID:        file.ID,
		Name:      file.Name,
		Type:      file.Type,
		Chunks:    len(file.Chunks),
		CreatedAt: file.CreatedAt.UnixMilli(),
	}
}

// Upload 上传文本文件并入库
// @Summary 上传文件
// @Tags 文件
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "文本文件"
// @Success 200 {object} response.Response
// @Router /files [post]
func (h *FileHandler) Upload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, 200001, "file is required")
		return
	}
	if header.Size > maxUploadSize {
		response.Error(c, http.StatusBadRequest, 200002, "file too large")
		return
	}

	src, err := header.Open()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, 200003, "failed to read upload")
		return
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, 200003, "failed to read upload")
		return
	}

	fileType := strings.TrimPrefix(strings.ToLower(filepath.Ext(header.Filename)), ".")
	file, err := h.service.Ingest(c.Request.Context(), userID(c), header.Filename, fileType, string(data))
	if err != nil {
		if errors.Is(err, domainChat.ErrValidationFailure) {
			response.ErrorWithDetail(c, http.StatusBadRequest, 200004, "validation failed", err.Error())
			return
		}
		response.Error(c, http.StatusInternalServerError, 200005, "failed to ingest file")
		return
	}
	response.Success(c, toFileDTO(file))
}

// UploadImage 上传临时图片,供图片消息引用
// @Summary 上传图片
// @Tags 文件
// @Accept multipart/form-data
// @Produce json
// @Param image formData file true "图片文件"
// @Success 200 {object} response.Response
// @Router /images [post]
func (h *FileHandler) UploadImage(c *gin.Context) {
	header, err := c.FormFile("image")
	if err != nil {
		response.Error(c, http.StatusBadRequest, 200006, "image is required")
		return
	}
	if header.Size > maxUploadSize {
		response.Error(c, http.StatusBadRequest, 200002, "file too large")
		return
	}

	src, err := header.Open()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, 200003, "failed to read upload")
		return
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, 200003, "failed to read upload")
		return
	}

	imageID, err := h.images.Save(data, header.Header.Get("Content-Type"))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, 200007, "failed to store image")
		return
	}
	response.Success(c, gin.H{"imageId": imageID})
}

// List 文件列表
// @Summary 文件列表
// @Tags 文件
// @Produce json
// @Success 200 {object} response.Response
// @Router /files [get]
func (h *FileHandler) List(c *gin.Context) {
	files, err := h.service.ListFiles(c.Request.Context(), userID(c))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, 200008, "failed to list files")
		return
	}

	dtos := make([]*FileDTO, 0, len(files))
	for _, file := range files {
		dtos = append(dtos, toFileDTO(file))
	}
	response.Success(c, dtos)
}

// Get 文件详情
// @Summary 文件详情
// @Tags 文件
// @Produce json
// @Param id path string true "文件 ID"
// @Success 200 {object} response.Response
// @Router /files/{id} [get]
func (h *FileHandler) Get(c *gin.Context) {
	file, err := h.service.GetFile(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		if errors.Is(err, domainChat.ErrNotFound) {
			response.Error(c, http.StatusNotFound, 200009, "file not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, 200010, "failed to load file")
		return
	}
	response.Success(c, toFileDTO(file))
}

// Delete 删除文件
// @Summary 删除文件
// @Tags 文件
// @Produce json
// @Param id path string true "文件 ID"
// @Success 200 {object} response.Response
// @Router /files/{id} [delete]
func (h *FileHandler) Delete(c *gin.Context) {
	if err := h.service.DeleteFile(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		response.Error(c, http.StatusInternalServerError, 200011, "failed to delete file")
		return
	}
	response.Success(c, nil)
}
