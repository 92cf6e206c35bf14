package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	domainChat "github.com/docchat/backend/internal/domain/chat"
)

// 确保 ConversationRepositoryImpl 实现了 chat.Repository 接口
var _ domainChat.Repository = (*ConversationRepositoryImpl)(nil)

// ConversationRepositoryImpl 会话仓库实现
type ConversationRepositoryImpl struct {
	db *sql.DB
}

// NewConversationRepository 创建会话仓库实例
func NewConversationRepository(db *sql.DB) domainChat.Repository {
	return &ConversationRepositoryImpl{db: db}
}

// Create 创建会话
func (r *ConversationRepositoryImpl) Create(conv *domainChat.Conversation) error {
	_, err := r.db.Exec(
		`INSERT INTO conversations (id, user_id, title, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		conv.ID,
		conv.UserID,
		conv.Title,
		conv.CreatedAt.Unix(),
		conv.UpdatedAt.Unix(),
	)
	return err
}

// FindByIDAndUser 按 ID 和所属用户查找会话，含完整消息与总结序列
func (r *ConversationRepositoryImpl) FindByIDAndUser(id, userID string) (*domainChat.Conversation, error) {
	row := r.db.QueryRow(
		`SELECT id, user_id, title, created_at, updated_at FROM conversations WHERE id = ? AND user_id = ?`,
		id, userID,
	)

	conv := &domainChat.Conversation{}
	var createdAt, updatedAt int64
	err := row.Scan(&conv.ID, &conv.UserID, &conv.Title, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, domainChat.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	conv.CreatedAt = time.Unix(createdAt, 0)
	conv.UpdatedAt = time.Unix(updatedAt, 0)

	if conv.Messages, err = r.loadMessages(id); err != nil {
		return nil, err
	}
	if conv.Summaries, err = r.loadSummaries(id); err != nil {
		return nil, err
	}

	return conv, nil
}

// ListByUser 列出用户的所有会话（不含消息体）
func (r *ConversationRepositoryImpl) ListByUser(userID string) ([]*domainChat.Conversation, error) {
	rows, err := r.db.Query(
		`SELECT id, user_id, title, created_at, updated_at FROM conversations WHERE user_id = ? ORDER BY updated_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var convs []*domainChat.Conversation
	for rows.Next() {
		conv := &domainChat.Conversation{}
		var createdAt, updatedAt int64
		if err := rows.Scan(&conv.ID, &conv.UserID, &conv.Title, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		conv.CreatedAt = time.Unix(createdAt, 0)
		conv.UpdatedAt = time.Unix(updatedAt, 0)
		convs = append(convs, conv)
	}
	return convs, rows.Err()
}

// AppendMessage 向会话追加一条消息
// seq 取当前最大值 +1，保证追加顺序即到达顺序
func (r *ConversationRepositoryImpl) AppendMessage(convID string, msg *domainChat.Message) error {
	embeddingJSON := marshalEmbedding(msg.Embedding)
	fileRefsJSON := ""
	if len(msg.FileRefs) > 0 {
		data, _ := json.Marshal(msg.FileRefs)
		fileRefsJSON = string(data)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var nextSeq int
	if err := tx.QueryRow(
		`SELECT COALESCE(MAX(seq), -1) + 1 FROM messages WHERE conversation_id = ?`, convID,
	).Scan(&nextSeq); err != nil {
		return err
	}

	_, err = tx.Exec(
		`INSERT INTO messages (id, conversation_id, seq, sender, content, embedding, file_refs, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		msg.ID,
		convID,
		nextSeq,
		string(msg.Sender),
		msg.Content,
		embeddingJSON,
		fileRefsJSON,
		msg.CreatedAt.Unix(),
	)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(
		`UPDATE conversations SET updated_at = ? WHERE id = ?`,
		time.Now().Unix(), convID,
	); err != nil {
		return err
	}

	return tx.Commit()
}

// AppendSummary 向会话追加一条总结
func (r *ConversationRepositoryImpl) AppendSummary(convID string, summary *domainChat.Summary) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var nextSeq int
	if err := tx.QueryRow(
		`SELECT COALESCE(MAX(seq), -1) + 1 FROM summaries WHERE conversation_id = ?`, convID,
	).Scan(&nextSeq); err != nil {
		return err
	}

	_, err = tx.Exec(
		`INSERT INTO summaries (conversation_id, seq, text, embedding, range_start, range_end, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		convID,
		nextSeq,
		summary.Text,
		marshalEmbedding(summary.Embedding),
		summary.MessageRange.Start,
		summary.MessageRange.End,
		summary.CreatedAt.Unix(),
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// UpdateTitle 更新会话标题
func (r *ConversationRepositoryImpl) UpdateTitle(convID, title string) error {
	result, err := r.db.Exec(
		`UPDATE conversations SET title = ?, updated_at = ? WHERE id = ?`,
		title, time.Now().Unix(), convID,
	)
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

// Delete 删除会话及其消息与总结
func (r *ConversationRepositoryImpl) Delete(id, userID string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.Exec(`DELETE FROM conversations WHERE id = ? AND user_id = ?`, id, userID)
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

	if _, err := tx.Exec(`DELETE FROM messages WHERE conversation_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM summaries WHERE conversation_id = ?`, id); err != nil {
		return err
	}

	return tx.Commit()
}

// loadMessages 加载会话的完整消息序列
func (r *ConversationRepositoryImpl) loadMessages(convID string) ([]*domainChat.Message, error) {
	rows, err := r.db.Query(
		`SELECT id, sender, content, embedding, file_refs, created_at FROM messages
		 WHERE conversation_id = ? ORDER BY seq ASC`,
		convID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*domainChat.Message
	for rows.Next() {
		msg := &domainChat.Message{}
		var sender, embeddingJSON, fileRefsJSON string
		var createdAt int64
		if err := rows.Scan(&msg.ID, &sender, &msg.Content, &embeddingJSON, &fileRefsJSON, &createdAt); err != nil {
			return nil, err
		}
		msg.Sender = domainChat.Sender(sender)
		msg.Embedding = unmarshalEmbedding(embeddingJSON)
		msg.CreatedAt = time.Unix(createdAt, 0)
		if fileRefsJSON != "" {
			if err := json.Unmarshal([]byte(fileRefsJSON), &msg.FileRefs); err != nil {
				return nil, fmt.Errorf("failed to parse file refs: %w", err)
			}
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// loadSummaries 加载会话的总结序列
func (r *ConversationRepositoryImpl) loadSummaries(convID string) ([]*domainChat.Summary, error) {
	rows, err := r.db.Query(
		`SELECT text, embedding, range_start, range_end, created_at FROM summaries
		 WHERE conversation_id = ? ORDER BY seq ASC`,
		convID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []*domainChat.Summary
	for rows.Next() {
		s := &domainChat.Summary{}
		var embeddingJSON string
		var createdAt int64
		if err := rows.Scan(&s.Text, &embeddingJSON, &s.MessageRange.Start, &s.MessageRange.End, &createdAt); err != nil {
			return nil, err
		}
		s.Embedding = unmarshalEmbedding(embeddingJSON)
		s.CreatedAt = time.Unix(createdAt, 0)
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// marshalEmbedding 向量序列化为 JSON 文本，空向量存空串
func marshalEmbedding(vec []float32) string {
	if len(vec) == 0 {
		return ""
	}
	data, _ := json.Marshal(vec)
	return string(data)
}

// unmarshalEmbedding 解析 JSON 向量，解析失败按空向量处理
func unmarshalEmbedding(s string) []float32 {
	if s == "" {
		return nil
	}
	var vec []float32
	if err := json.Unmarshal([]byte(s), &vec); err != nil {
		return nil
	}
	return vec
}
