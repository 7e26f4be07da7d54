package ai

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"github.com/VectorBits/GasGuardian/src/internal/gasparser"
	"github.com/VectorBits/GasGuardian/src/internal/logger"
	"github.com/VectorBits/GasGuardian/src/internal/rules"
)

const (
	// SuggestionType LLM 建议的类型标记
	SuggestionType = "ai_generated"

	defaultMaxSuggestions = 3
	defaultConcurrency    = 2
	llmConfidence         = 0.8
	// maxPromptCode 提示词中函数源码的最大字符数
	maxPromptCode = 4000
)

var (
	preambleRe = regexp.MustCompile(`(?is)^.*?gas optimizations:\s*`)
	listMarkRe = regexp.MustCompile(`^(\d+[.)]|[*\-•])\s*`)
)

// 至少包含其一才算 gas 相关建议
var solidityKeywords = []string{
	"unchecked", "external", "storage", "memory", "calldata",
	"gas", "sstore", "sload", "mapping", "array", "uint",
	"require", "error", "batch", "pack", "slot", "optimize",
}

type SuggestorConfig struct {
	MaxSuggestions int // 每个函数最多保留的建议数，默认 3
	Concurrency    int // 同时进行的请求数，默认 2
}

// Suggestor 用 LLM 为单个函数生成 gas 优化建议，结果按函数源码缓存
type Suggestor struct {
	client         AIClient
	cache          *Cache
	maxSuggestions int
	sem            *semaphore.Weighted
	group          singleflight.Group
}

// NewSuggestor cache 为 nil 时不缓存
func NewSuggestor(c AIClient, cache *Cache, cfg SuggestorConfig) *Suggestor {
	if cfg.MaxSuggestions <= 0 {
		cfg.MaxSuggestions = defaultMaxSuggestions
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	return &Suggestor{
		client:         c,
		cache:          cache,
		maxSuggestions: cfg.MaxSuggestions,
		sem:            semaphore.NewWeighted(int64(cfg.Concurrency)),
	}
}

// Suggest 返回的建议 Source 为 llm；没有源码的函数不发请求
func (s *Suggestor) Suggest(ctx context.Context, fn gasparser.FunctionInfo) ([]rules.Suggestion, error) {
	code := strings.TrimSpace(fn.SourceCode)
	if code == "" {
		logger.Debug("No function code available for LLM analysis of %s", fn.Name)
		return nil, nil
	}

	key := CacheKey(code)
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			logger.Debug("LLM suggestions for %s served from cache", fn.Name)
			return cached, nil
		}
	}

	// 相同源码的函数只请求一次
	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		if err := s.sem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		defer s.sem.Release(1)

		logger.Debug("Requesting LLM suggestions for %s from %s", fn.Name, s.client.GetName())
		output, err := s.client.Analyze(ctx, BuildPrompt(fn, s.maxSuggestions))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.client.GetName(), err)
		}
		suggestions := ParseSuggestions(output, s.maxSuggestions)
		if s.cache != nil {
			if err := s.cache.Put(key, suggestions); err != nil {
				logger.Warn("Cache write error: %v", err)
			}
		}
		return suggestions, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]rules.Suggestion), nil
}

func (s *Suggestor) Close() error {
	return s.client.Close()
}

// BuildPrompt 函数源码超过 maxPromptCode 个字符时截断
func BuildPrompt(fn gasparser.FunctionInfo, limit int) string {
	code := strings.TrimSpace(fn.SourceCode)
	if utf8.RuneCountInString(code) > maxPromptCode {
		code = string([]rune(code)[:maxPromptCode]) + "\n// ..."
	}

	patterns := make([]string, 0, len(fn.Patterns))
	for _, p := range fn.Patterns {
		patterns = append(patterns, string(p.Kind))
	}
	issues := "none"
	if len(patterns) > 0 {
		issues = strings.Join(patterns, ", ")
	}

	var b strings.Builder
	b.WriteString("You are a Solidity gas optimization expert.\n")
	fmt.Fprintf(&b, "Suggest at most %d concrete gas optimizations for the function below.\n", limit)
	b.WriteString("Answer with a numbered list, one short sentence per item, no code.\n\n")
	fmt.Fprintf(&b, "Function: %s (%s, %s)\n", fn.Name, fn.Visibility, fn.StateMutability)
	fmt.Fprintf(&b, "Issues: %s\n\n", issues)
	b.WriteString("```solidity\n")
	b.WriteString(code)
	b.WriteString("\n```\n\nGas optimizations:\n")
	return b.String()
}

// ParseSuggestions 从模型输出中逐行提取建议，过滤与 gas 无关的行，最多保留 limit 条
func ParseSuggestions(output string, limit int) []rules.Suggestion {
	body := preambleRe.ReplaceAllString(output, "")

	suggestions := make([]rules.Suggestion, 0, limit)
	for _, line := range strings.Split(body, "\n") {
		text := strings.TrimSpace(line)
		if len(text) < 15 || strings.HasPrefix(text, "```") ||
			strings.HasPrefix(text, "Function:") || strings.HasPrefix(text, "Issues:") {
			continue
		}
		text = cleanSuggestion(text)
		if !isGasOptimization(text) {
			continue
		}
		suggestions = append(suggestions, rules.Suggestion{
			Type:       SuggestionType,
			Message:    text,
			Confidence: llmConfidence,
			Impact:     EstimateImpact(text),
			Source:     rules.SourceLLM,
		})
		if len(suggestions) == limit {
			break
		}
	}
	return suggestions
}

func cleanSuggestion(text string) string {
	text = listMarkRe.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, "**", "")
	text = strings.TrimSpace(text)
	if text == "" {
		return text
	}

	r, size := utf8.DecodeRuneInString(text)
	text = string(unicode.ToUpper(r)) + text[size:]
	if !strings.HasSuffix(text, ".") && !strings.HasSuffix(text, "!") {
		text += "."
	}
	return text
}

func isGasOptimization(text string) bool {
	if len(text) <= 20 || len(text) >= 200 {
		return false
	}
	lower := strings.ToLower(text)
	for _, keyword := range solidityKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

// EstimateImpact 存储相关为 high，循环/unchecked/memory 为 medium，其余 low
func EstimateImpact(text string) rules.Impact {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "storage"), strings.Contains(lower, "sstore"), strings.Contains(lower, "struct"):
		return rules.ImpactHigh
	case strings.Contains(lower, "loop"), strings.Contains(lower, "unchecked"), strings.Contains(lower, "memory"):
		return rules.ImpactMedium
	default:
		return rules.ImpactLow
	}
}
