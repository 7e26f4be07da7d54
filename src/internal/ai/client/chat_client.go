package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/VectorBits/GasGuardian/src/internal/logger"
)

// ChatClient OpenAI 兼容的 /chat/completions 接口 (OpenAI、DeepSeek 等)
type ChatClient struct {
	name       string
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	maxRetries int
	retryDelay time.Duration
}

type ChatConfig struct {
	Name       string // 显示名，如 OpenAI、DeepSeek
	APIKey     string
	BaseURL    string
	Model      string
	Timeout    time.Duration
	Proxy      string
	MaxRetries int
	RetryDelay time.Duration // 第一次重试前的等待，之后指数增长
}

func NewChatClient(cfg ChatConfig) (*ChatClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = 2 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	httpClient, err := newHTTPClient(cfg.Proxy, cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}
	if cfg.Proxy != "" {
		logger.Debug("Using proxy: %s", cfg.Proxy)
	}

	return &ChatClient{
		name:       cfg.Name,
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		model:      cfg.Model,
		httpClient: httpClient,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
	}, nil
}

func isRetryableError(err error) bool {
	var nre *NonRetryableError
	if errors.As(err, &nre) {
		return false
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func (c *ChatClient) doRequest(ctx context.Context, jsonData []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		errMsg := string(body)
		if len(errMsg) > 4096 {
			errMsg = errMsg[:4096] + "...(truncated)"
		}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return "", fmt.Errorf("API temporary error status %d: %s", resp.StatusCode, errMsg)
		}
		return "", &NonRetryableError{StatusCode: resp.StatusCode, Message: errMsg}
	}

	var apiResp ChatCompletionResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if apiResp.Error != nil {
		msg := fmt.Sprintf("%s (type: %s, code: %s)", apiResp.Error.Message, apiResp.Error.Type, apiResp.Error.Code)
		lower := strings.ToLower(msg)
		if strings.Contains(lower, "rate") || strings.Contains(lower, "limit") {
			return "", fmt.Errorf("API temporary error: %s", msg)
		}
		return "", &NonRetryableError{StatusCode: resp.StatusCode, Message: msg}
	}
	if len(apiResp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	logger.Debug("Token usage: prompt=%d, completion=%d, total=%d",
		apiResp.Usage.PromptTokens,
		apiResp.Usage.CompletionTokens,
		apiResp.Usage.TotalTokens)

	return apiResp.Choices[0].Message.Content, nil
}

func (c *ChatClient) sendWithRetry(ctx context.Context, jsonData []byte) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.retryDelay * time.Duration(1<<uint(attempt-1))
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return "", ctx.Err()
			case <-timer.C:
			}
		}

		content, err := c.doRequest(ctx, jsonData)
		if err == nil {
			return content, nil
		}
		lastErr = err
		if !isRetryableError(err) {
			return "", err
		}
	}
	return "", fmt.Errorf("exceeded max retries (%d), last error: %w", c.maxRetries, lastErr)
}

// SendPrompt systemPrompt 为空时只发送用户消息
func (c *ChatClient) SendPrompt(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	var messages []Message
	if systemPrompt != "" {
		messages = append(messages, Message{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, Message{Role: "user", Content: userPrompt})

	jsonData, err := json.Marshal(ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: 0.1,
		MaxTokens:   512,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}
	return c.sendWithRetry(ctx, jsonData)
}

func (c *ChatClient) Analyze(ctx context.Context, prompt string) (string, error) {
	return c.SendPrompt(ctx, "", prompt)
}

func (c *ChatClient) GetName() string {
	return fmt.Sprintf("%s (%s)", c.name, c.model)
}

func (c *ChatClient) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
