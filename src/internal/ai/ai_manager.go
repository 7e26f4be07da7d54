package ai

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/VectorBits/GasGuardian/src/internal/config"
	"github.com/VectorBits/GasGuardian/src/internal/logger"
)

const defaultMaxRetries = 3

// 配置文件中未给出 api_key 时读取的环境变量
var apiKeyEnv = map[string]string{
	"openai":   "OPENAI_API_KEY",
	"gpt4":     "OPENAI_API_KEY",
	"chatgpt":  "OPENAI_API_KEY",
	"":         "OPENAI_API_KEY",
	"deepseek": "DEEPSEEK_API_KEY",
}

// NewFromConfig 按 ai 配置段创建建议来源；缓存目录不可用时退化为不缓存
func NewFromConfig(cfg config.AIConfig) (*Suggestor, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if err := ValidateProvider(provider); err != nil {
		return nil, err
	}

	apiKey := cfg.APIKey
	if apiKey == "" {
		if env, ok := apiKeyEnv[provider]; ok {
			apiKey = os.Getenv(env)
		}
	}
	retries := cfg.MaxRetries
	if retries == 0 {
		retries = defaultMaxRetries
	}

	c, err := NewAIClient(AIClientConfig{
		Provider:   provider,
		APIKey:     apiKey,
		BaseURL:    cfg.BaseURL,
		Model:      cfg.Model,
		Timeout:    time.Duration(cfg.Timeout) * time.Second,
		Proxy:      cfg.Proxy,
		MaxRetries: retries,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AI client: %w", err)
	}

	var cache *Cache
	if !cfg.NoCache {
		cache, err = NewCache(cfg.CacheDir, DefaultCacheTTL)
		if err != nil {
			logger.Warn("LLM cache disabled: %v", err)
			cache = nil
		}
	}

	logger.Info("LLM suggestions enabled via %s", c.GetName())
	return NewSuggestor(c, cache, SuggestorConfig{
		MaxSuggestions: cfg.MaxSuggestions,
		Concurrency:    cfg.Concurrency,
	}), nil
}
