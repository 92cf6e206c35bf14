package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	domainChat "github.com/docchat/backend/internal/domain/chat"
	"github.com/docchat/backend/internal/domain/document"
)

// 确保 FileRepositoryImpl 实现了 document.Repository 接口
var _ document.Repository = (*FileRepositoryImpl)(nil)

// FileRepositoryImpl 文件仓库实现
type FileRepositoryImpl struct {
	db *sql.DB
}

// NewFileRepository 创建文件仓库实例
func NewFileRepository(db *sql.DB) document.Repository {
	return &FileRepositoryImpl{db: db}
}

// Create 保存文件记录，切片序列以 JSON 存储
func (r *FileRepositoryImpl) Create(file *document.File) error {
	chunksJSON, err := json.Marshal(file.Chunks)
	if err != nil {
		return fmt.Errorf("failed to marshal chunks: %w", err)
	}

	_, err = r.db.Exec(
		`INSERT INTO files (id, user_id, name, type, extracted_text, chunks, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		file.ID,
		file.UserID,
		file.Name,
		file.Type,
		file.ExtractedText,
		string(chunksJSON),
		file.CreatedAt.Unix(),
	)
	return err
}

// FindByIDAndUser 按 ID 和所属用户查找文件
func (r *FileRepositoryImpl) FindByIDAndUser(id, userID string) (*document.File, error) {
	row := r.db.QueryRow(
		`SELECT id, user_id, name, type, extracted_text, chunks, created_at
		 FROM files WHERE id = ? AND user_id = ?`,
		id, userID,
	)

	file := &document.File{}
	var chunksJSON string
	var createdAt int64
	err := row.Scan(&file.ID, &file.UserID, &file.Name, &file.Type, &file.ExtractedText, &chunksJSON, &createdAt)
	if err == sql.ErrNoRows {
		return nil, domainChat.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	file.CreatedAt = time.Unix(createdAt, 0)

	if chunksJSON != "" {
		if err := json.Unmarshal([]byte(chunksJSON), &file.Chunks); err != nil {
			return nil, fmt.Errorf("failed to parse chunks: %w", err)
		}
	}

	return file, nil
}

// ListByUser 列出用户的所有文件（不含切片内容）
func (r *FileRepositoryImpl) ListByUser(userID string) ([]*document.File, error) {
	rows, err := r.db.Query(
		`SELECT id, user_id, name, type, created_at FROM files WHERE user_id = ? ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []*document.File
	for rows.Next() {
		file := &document.File{}
		var createdAt int64
		if err := rows.Scan(&file.ID, &file.UserID, &file.Name, &file.Type, &createdAt); err != nil {
			return nil, err
		}
		file.CreatedAt = time.Unix(createdAt, 0)
		files = append(files, file)
	}
	return files, rows.Err()
}

// Delete 删除文件记录
func (r *FileRepositoryImpl) Delete(id, userID string) error {
	result, err := r.db.Exec(`DELETE FROM files WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domainChat.ErrNotFound
	}
	return nil
}
