package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/docchat/backend/internal/infrastructure/config"
)

// GetDBPath 获取数据库路径
// 默认 ~/.docchat/docchat.db，可通过配置覆盖
func GetDBPath(cfg *config.DatabaseConfig) string {
	if cfg != nil && cfg.Path != "" {
		return cfg.Path
	}
	return filepath.Join(config.GetDataDir(), "docchat.db")
}

// ProvideDB 打开数据库连接并初始化表结构
func ProvideDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	dbPath := GetDBPath(cfg)

	// 确保目录存在
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// initSchema 初始化表结构
func initSchema(db *sql.DB) error {
	createConversationsSQL := `
	CREATE TABLE IF NOT EXISTS conversations (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);`

	if _, err := db.Exec(createConversationsSQL); err != nil {
		return fmt.Errorf("failed to create conversations table: %w", err)
	}

	// seq 保证消息的追加顺序，即到达顺序
	createMessagesSQL := `
	CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		conversation_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		sender TEXT NOT NULL,
		content TEXT NOT NULL,
		embedding TEXT NOT NULL DEFAULT '',
		file_refs TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL,
		UNIQUE(conversation_id, seq)
	);`

	if _, err := db.Exec(createMessagesSQL); err != nil {
		return fmt.Errorf("failed to create messages table: %w", err)
	}

	createSummariesSQL := `
	CREATE TABLE IF NOT EXISTS summaries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		conversation_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		text TEXT NOT NULL,
		embedding TEXT NOT NULL DEFAULT '',
		range_start INTEGER NOT NULL,
		range_end INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		UNIQUE(conversation_id, seq)
	);`

	if _, err := db.Exec(createSummariesSQL); err != nil {
		return fmt.Errorf("failed to create summaries table: %w", err)
	}

	createFilesSQL := `
	CREATE TABLE IF NOT EXISTS files (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		extracted_text TEXT NOT NULL,
		chunks TEXT NOT NULL DEFAULT '[]',
		created_at INTEGER NOT NULL
	);`

	if _, err := db.Exec(createFilesSQL); err != nil {
		return fmt.Errorf("failed to create files table: %w", err)
	}

	createIndexSQL := `
	CREATE INDEX IF NOT EXISTS idx_conversations_user ON conversations(user_id);
	CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, seq);
	CREATE INDEX IF NOT EXISTS idx_summaries_conversation ON summaries(conversation_id, seq);
	CREATE INDEX IF NOT EXISTS idx_files_user ON files(user_id);`

	if _, err := db.Exec(createIndexSQL); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}
