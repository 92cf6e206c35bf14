package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// EnvHTTPPort HTTP 端口环境变量名
	EnvHTTPPort = "DOCCHAT_HTTP_PORT"
	// EnvConfigPath 配置文件路径环境变量名
	EnvConfigPath = "DOCCHAT_CONFIG"
)

// Config 应用配置
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	LLM       LLMConfig       `yaml:"llm"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Summarize SummarizeConfig `yaml:"summarize"`
	Ingest    IngestConfig    `yaml:"ingest"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	HTTPPort string `yaml:"http_port"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// WebSocketConfig WebSocket 配置
type WebSocketConfig struct {
	ReadBufferSize  int `yaml:"read_buffer_size"`
	WriteBufferSize int `yaml:"write_buffer_size"`
}

// EmbeddingConfig Embedding API 配置
type EmbeddingConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`

	// MaxAttempts 总尝试次数（首次调用 + 重试）
	MaxAttempts int `yaml:"max_attempts"`
	// RetryBackoff 重试间隔基数，按尝试次数递增
	RetryBackoff time.Duration `yaml:"retry_backoff"`

	// CacheCapacity 向量缓存容量，超出后按插入顺序淘汰最旧条目
	CacheCapacity int `yaml:"cache_capacity"`
	// CacheKeyPrefixLen 缓存键取文本前缀的长度
	CacheKeyPrefixLen int `yaml:"cache_key_prefix_len"`
}

// LLMConfig 生成模型配置
type LLMConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKey      string `yaml:"api_key"`
	Model       string `yaml:"model"`
	VisionModel string `yaml:"vision_model"`
}

// RetrievalConfig 检索配置
type RetrievalConfig struct {
	// FileTopK 文件上下文返回条数
	FileTopK int `yaml:"file_top_k"`
	// ConversationTopK 历史消息上下文返回条数
	ConversationTopK int `yaml:"conversation_top_k"`
	// SummaryTopK 总结回退检索返回条数
	SummaryTopK int `yaml:"summary_top_k"`
	// RecentWindow 直接进入 prompt 的近期消息条数
	RecentWindow int `yaml:"recent_window"`
	// MinMessages 启用会话上下文检索的最小消息数
	MinMessages int `yaml:"min_messages"`
}

// ChunkingConfig 文本切片配置
type ChunkingConfig struct {
	MaxChunkSize int `yaml:"max_chunk_size"`
	Overlap      int `yaml:"overlap"`
}

// SummarizeConfig 会话总结配置
type SummarizeConfig struct {
	// Interval 每多少条消息触发一次总结
	Interval int `yaml:"interval"`
	// Window 每次总结覆盖的消息条数
	Window int `yaml:"window"`
}

// IngestConfig 文件投递目录配置
type IngestConfig struct {
	// Enabled 是否启用目录监听
	Enabled bool `yaml:"enabled"`
	// WatchDir 监听目录，文本文件投入后自动切片入库
	WatchDir string `yaml:"watch_dir"`
	// UserID 目录投递文件归属的用户
	UserID string `yaml:"user_id"`
}

// NewConfig 创建配置（默认值 + 配置文件 + 环境变量覆盖）
func NewConfig() *Config {
	cfg := defaultConfig()

	if path := os.Getenv(EnvConfigPath); path != "" {
		// 配置文件读取失败时保留默认值，由调用方日志提示
		_ = cfg.loadFile(path)
	}

	if port := os.Getenv(EnvHTTPPort); port != "" {
		cfg.Server.HTTPPort = port
	}

	return cfg
}

// defaultConfig 默认配置
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort: ":18080",
		},
		Database: DatabaseConfig{
			Path: "",
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		Embedding: EmbeddingConfig{
			BaseURL:           "https://api.openai.com/v1",
			Model:             "text-embedding-3-small",
			MaxAttempts:       3,
			RetryBackoff:      500 * time.Millisecond,
			CacheCapacity:     1000,
			CacheKeyPrefixLen: 100,
		},
		LLM: LLMConfig{
			BaseURL:     "https://api.openai.com/v1",
			Model:       "gpt-4o-mini",
			VisionModel: "gpt-4o",
		},
		Retrieval: RetrievalConfig{
			FileTopK:         3,
			ConversationTopK: 3,
			SummaryTopK:      1,
			RecentWindow:     5,
			MinMessages:      6,
		},
		Chunking: ChunkingConfig{
			MaxChunkSize: 1000,
			Overlap:      100,
		},
		Summarize: SummarizeConfig{
			Interval: 10,
			Window:   10,
		},
		Ingest: IngestConfig{
			Enabled:  false,
			WatchDir: "",
			UserID:   "local",
		},
	}
}

// loadFile 从 YAML 文件加载配置
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// NewDatabaseConfig 创建数据库配置
func NewDatabaseConfig(cfg *Config) *DatabaseConfig {
	return &cfg.Database
}

// NewServerConfig 创建服务器配置
func NewServerConfig(cfg *Config) *ServerConfig {
	return &cfg.Server
}

// NewWebSocketConfig 创建 WebSocket 配置
func NewWebSocketConfig(cfg *Config) *WebSocketConfig {
	return &cfg.WebSocket
}

// NewEmbeddingConfig 创建 Embedding 配置
func NewEmbeddingConfig(cfg *Config) *EmbeddingConfig {
	return &cfg.Embedding
}

// NewLLMConfig 创建 LLM 配置
func NewLLMConfig(cfg *Config) *LLMConfig {
	return &cfg.LLM
}

// NewRetrievalConfig 创建检索配置
func NewRetrievalConfig(cfg *Config) *RetrievalConfig {
	return &cfg.Retrieval
}

// NewChunkingConfig 创建切片配置
func NewChunkingConfig(cfg *Config) *ChunkingConfig {
	return &cfg.Chunking
}

// NewSummarizeConfig 创建总结配置
func NewSummarizeConfig(cfg *Config) *SummarizeConfig {
	return &cfg.Summarize
}

// NewIngestConfig 创建投递目录配置
func NewIngestConfig(cfg *Config) *IngestConfig {
	return &cfg.Ingest
}
