package llm

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"log/slog"

	"github.com/docchat/backend/internal/domain/chat"
	"github.com/docchat/backend/internal/infrastructure/config"
	"github.com/docchat/backend/internal/infrastructure/log"
)

// Client LLM Chat 客户端
type Client struct {
	baseURL     string
	apiKey      string
	model       string
	visionModel string
	httpClient  *http.Client
	logger      *slog.Logger
}

// Message Chat 消息
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest Chat API 请求
type ChatRequest struct {
	Model    string    `json:"model,omitempty"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream,omitempty"`
}

// ChatResponse Chat API 响应（非流式）
type ChatResponse struct {
	ID      string `json:"id,omitempty"`
	Model   string `json:"model,omitempty"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// streamChunk 流式响应的单条增量
type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// NewClient 创建 LLM 客户端
func NewClient(cfg *config.LLMConfig) *Client {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	visionModel := cfg.VisionModel
	if visionModel == "" {
		visionModel = cfg.Model
	}

	return &Client{
		baseURL:     baseURL,
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		visionModel: visionModel,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		logger: log.NewModuleLogger("llm", "client"),
	}
}

// Complete 单次补全，返回完整文本
func (c *Client) Complete(prompt string) (string, error) {
	reqBody := ChatRequest{
		Model: c.model,
		Messages: []Message{
			{Role: "user", Content: prompt},
		},
	}

	resp, err := c.doChatRequest(reqBody)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	var chatResp ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("%w: failed to decode response: %v", chat.ErrGenerationFailure, err)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned", chat.ErrGenerationFailure)
	}

	c.logger.Debug("Completion successful",
		"model", c.model,
		"tokens", chatResp.Usage.TotalTokens,
	)

	return chatResp.Choices[0].Message.Content, nil
}

// StreamChat 流式补全
// messages 为完整的对话轮次序列；每收到一条增量立即回调 onDelta，
// 增量按到达顺序传递，完整回复作为返回值
func (c *Client) StreamChat(messages []Message, onDelta func(delta string)) (string, error) {
	reqBody := ChatRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   true,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	return c.streamRequest(jsonData, onDelta)
}

// visionRequest 多模态请求（文本 + 内联图片）
type visionRequest struct {
	Model    string          `json:"model"`
	Messages []visionMessage `json:"messages"`
	Stream   bool            `json:"stream"`
}

type visionMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

// StreamVision 多模态流式补全，图片以 data URL 内联
func (c *Client) StreamVision(text, imageMimeType, imageBase64 string, onDelta func(delta string)) (string, error) {
	dataURL := fmt.Sprintf("data:%s;base64,%s", imageMimeType, imageBase64)

	reqBody := visionRequest{
		Model: c.visionModel,
		Messages: []visionMessage{
			{
				Role: "user",
				Content: []contentPart{
					{Type: "text", Text: text},
					{Type: "image_url", ImageURL: &imageURL{URL: dataURL}},
				},
			},
		},
		Stream: true,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	return c.streamRequest(jsonData, onDelta)
}

// streamRequest 发送流式请求并解析 SSE 增量
func (c *Client) streamRequest(jsonData []byte, onDelta func(delta string)) (string, error) {
	url := fmt.Sprintf("%s/chat/completions", c.baseURL)
	req, err := http.NewRequest("POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))

	c.logger.Debug("Sending streaming completion request",
		"url", url,
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", chat.ErrGenerationFailure, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: status %d: %s", chat.ErrGenerationFailure, resp.StatusCode, string(body))
	}

	var full strings.Builder
	reader := bufio.NewReader(resp.Body)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				break
			}
			return "", fmt.Errorf("%w: stream read failed: %v", chat.ErrGenerationFailure, err)
		}

		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}
		if line == "data: [DONE]" {
			break
		}
		if !strings.HasPrefix(line, "data: ") {
			continue
		}

		var chunk streamChunk
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &chunk); err != nil {
			// 无法解析的行直接跳过，不中断流
			continue
		}
		if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
			delta := chunk.Choices[0].Delta.Content
			full.WriteString(delta)
			if onDelta != nil {
				onDelta(delta)
			}
		}
	}

	return full.String(), nil
}

// doChatRequest 发送非流式请求
func (c *Client) doChatRequest(reqBody ChatRequest) (*http.Response, error) {
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/chat/completions", c.baseURL)
	req, err := http.NewRequest("POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", chat.ErrGenerationFailure, err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%w: status %d: %s", chat.ErrGenerationFailure, resp.StatusCode, string(body))
	}

	return resp, nil
}

// TestConnection 测试 LLM API 连接
func (c *Client) TestConnection() error {
	_, err := c.Complete("This is a connection test. Reply with OK.")
	if err != nil {
		c.logger.Error("LLM connection test failed",
			"error", err,
		)
		return err
	}

	c.logger.Info("LLM connection test successful",
		"model", c.model,
	)
	return nil
}
