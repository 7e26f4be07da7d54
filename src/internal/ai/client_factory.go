package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/VectorBits/GasGuardian/src/internal/ai/client"
)

type AIClient interface {
	Analyze(ctx context.Context, prompt string) (string, error)
	GetName() string
	Close() error
}

type AIClientConfig struct {
	Provider   string
	APIKey     string
	BaseURL    string
	Model      string
	Timeout    time.Duration
	Proxy      string
	MaxRetries int
	RetryDelay time.Duration
}

// NewAIClient AI 客户端工厂
func NewAIClient(cfg AIClientConfig) (AIClient, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "openai", "gpt4", "chatgpt", "":
		return client.NewChatClient(client.ChatConfig{
			Name:       "OpenAI",
			APIKey:     cfg.APIKey,
			BaseURL:    orDefault(cfg.BaseURL, "https://api.openai.com/v1"),
			Model:      orDefault(cfg.Model, "gpt-4o-mini"),
			Timeout:    cfg.Timeout,
			Proxy:      cfg.Proxy,
			MaxRetries: cfg.MaxRetries,
			RetryDelay: cfg.RetryDelay,
		})

	case "deepseek":
		return client.NewChatClient(client.ChatConfig{
			Name:       "DeepSeek",
			APIKey:     cfg.APIKey,
			BaseURL:    orDefault(cfg.BaseURL, "https://api.deepseek.com/v1"),
			Model:      orDefault(cfg.Model, "deepseek-chat"),
			Timeout:    cfg.Timeout,
			Proxy:      cfg.Proxy,
			MaxRetries: cfg.MaxRetries,
			RetryDelay: cfg.RetryDelay,
		})

	case "local-llm", "ollama":
		return client.NewLocalLLMClient(client.LocalLLMConfig{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
			Proxy:   cfg.Proxy,
		})

	default:
		return nil, fmt.Errorf("unsupported AI provider: %s (supported: openai, gpt4, chatgpt, deepseek, local-llm, ollama)", cfg.Provider)
	}
}

func ValidateProvider(provider string) error {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "openai", "gpt4", "chatgpt", "deepseek", "local-llm", "ollama", "":
		return nil
	}
	return fmt.Errorf("invalid provider '%s', must be one of: openai, gpt4, chatgpt, deepseek, local-llm, ollama", provider)
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
