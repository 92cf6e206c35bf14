package embedding

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/docchat/backend/internal/domain/chat"
	"github.com/docchat/backend/internal/infrastructure/config"
	"github.com/docchat/backend/internal/infrastructure/log"
)

// Client Embedding API 客户端
type Client struct {
	baseURL     string
	apiKey      string
	model       string
	maxAttempts int
	backoff     time.Duration
	httpClient  *http.Client
	logger      *slog.Logger
}

// NewClient 创建 Embedding 客户端
func NewClient(cfg *config.EmbeddingConfig) *Client {
	// 规范化 baseURL：移除末尾斜杠
	normalizedURL := strings.TrimSuffix(cfg.BaseURL, "/")

	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	backoff := cfg.RetryBackoff
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}

	return &Client{
		baseURL:     normalizedURL,
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		maxAttempts: maxAttempts,
		backoff:     backoff,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: log.NewModuleLogger("embedding", "client"),
	}
}

// buildEmbeddingURL 构建 Embedding API URL
// 支持多种输入格式，智能拼接 /v1/embeddings 路径
func buildEmbeddingURL(baseURL string) string {
	if strings.Contains(baseURL, "/v1/embeddings") {
		return baseURL
	}
	if strings.HasSuffix(baseURL, "/v1") {
		return baseURL + "/embeddings"
	}
	if strings.HasSuffix(baseURL, "/v1/") {
		return baseURL + "embeddings"
	}
	return fmt.Sprintf("%s/v1/embeddings", baseURL)
}

// EmbeddingRequest Embedding 请求
type EmbeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// EmbeddingResponse Embedding 响应
type EmbeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Model string `json:"model"`
	Usage struct {
		PromptTokens int `json:"prompt_tokens"`
		TotalTokens  int `json:"total_tokens"`
	} `json:"usage"`
}

// EmbedText 向量化单条文本
// 重试耗尽后返回包裹 chat.ErrEmbeddingFailure 的错误
func (c *Client) EmbedText(text string) ([]float32, error) {
	vectors, err := c.embedWithRetry([]string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, fmt.Errorf("%w: empty embedding response", chat.ErrEmbeddingFailure)
	}
	return vectors[0], nil
}

// EmbedTexts 批量向量化文本
func (c *Client) EmbedTexts(texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("texts cannot be empty")
	}
	return c.embedWithRetry(texts)
}

// embedWithRetry 带重试的向量化请求
func (c *Client) embedWithRetry(texts []string) ([][]float32, error) {
	reqBody := EmbeddingRequest{
		Model: c.model,
		Input: texts,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := buildEmbeddingURL(c.baseURL)

	c.logger.Debug("Sending embedding request",
		"url", url,
		"batch_size", len(texts),
		"model", c.model,
		"api_key", maskAPIKey(c.apiKey),
	)

	var resp *http.Response
	var lastErr error
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		req, reqErr := http.NewRequest("POST", url, bytes.NewBuffer(jsonData))
		if reqErr != nil {
			return nil, fmt.Errorf("failed to create request: %w", reqErr)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))

		resp, lastErr = c.httpClient.Do(req)
		if lastErr == nil && resp.StatusCode == http.StatusOK {
			break
		}
		if resp != nil {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			lastErr = fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
			resp = nil
		}
		c.logger.Warn("Embedding request failed, retrying",
			"attempt", attempt+1,
			"max_attempts", c.maxAttempts,
			"error", lastErr,
		)
		if attempt < c.maxAttempts-1 {
			time.Sleep(time.Duration(attempt+1) * c.backoff) // 递增延迟
		}
	}

	if resp == nil {
		c.logger.Error("Embedding request failed after all retries",
			"max_attempts", c.maxAttempts,
			"error", lastErr,
		)
		return nil, fmt.Errorf("%w: %v", chat.ErrEmbeddingFailure, lastErr)
	}
	defer resp.Body.Close()

	var embeddingResp EmbeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&embeddingResp); err != nil {
		c.logger.Error("Failed to decode embedding response",
			"error", err,
		)
		return nil, fmt.Errorf("%w: failed to decode response: %v", chat.ErrEmbeddingFailure, err)
	}

	// 提取向量，按 index 对齐输入顺序
	vectors := make([][]float32, len(embeddingResp.Data))
	for _, data := range embeddingResp.Data {
		if data.Index >= 0 && data.Index < len(vectors) {
			vectors[data.Index] = data.Embedding
		}
	}

	return vectors, nil
}

// maskAPIKey API Key 脱敏
func maskAPIKey(apiKey string) string {
	if len(apiKey) > 8 {
		return apiKey[:4] + "..." + apiKey[len(apiKey)-4:]
	}
	return "***"
}
